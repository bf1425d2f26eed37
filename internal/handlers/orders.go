package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marketfront/api/internal/platform/httpx"
	"github.com/marketfront/api/internal/services"
)

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// OrderHandlers exposes order lookup and status transition endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}:status", h.updateStatus)
	r.Post("/{orderID}:cancel", h.cancelOrder)
	r.Post("/{orderID}:complete", h.completeOrder)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	buyerID := strings.TrimSpace(query.Get("buyer_id"))
	storeID := strings.TrimSpace(query.Get("store_id"))

	var err error
	var orders []orderPayload
	switch {
	case buyerID != "":
		list, listErr := h.orders.ListBuyerOrders(ctx, buyerID)
		orders, err = newOrderPayloads(list), listErr
	case storeID != "":
		list, listErr := h.orders.ListStoreOrders(ctx, storeID)
		orders, err = newOrderPayloads(list), listErr
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "buyer_id or store_id is required", http.StatusBadRequest))
		return
	}
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.orders.GetOrder(ctx, urlParam(r, "orderID"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newOrderPayload(order))
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateOrderStatusRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	h.applyStatus(ctx, w, urlParam(r, "orderID"), req.Status)
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.applyStatus(r.Context(), w, urlParam(r, "orderID"), "cancelled")
}

func (h *OrderHandlers) completeOrder(w http.ResponseWriter, r *http.Request) {
	h.applyStatus(r.Context(), w, urlParam(r, "orderID"), "completed")
}

func (h *OrderHandlers) applyStatus(ctx context.Context, w http.ResponseWriter, orderID, status string) {
	order, err := h.orders.UpdateOrderStatus(ctx, services.UpdateOrderStatusCommand{
		OrderID: orderID,
		Status:  status,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newOrderPayload(order))
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput), errors.Is(err, services.ErrOrderInvalidStatus):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrOrderClosed):
		httpx.WriteError(ctx, w, httpx.NewError("order_closed", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
