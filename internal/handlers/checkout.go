package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/marketfront/api/internal/domain"
	"github.com/marketfront/api/internal/platform/httpx"
	"github.com/marketfront/api/internal/services"
)

type registerBuyerRequest struct {
	Balance int64 `json:"balance"`
}

type placeOrderRequest struct {
	StoreID       string                  `json:"store_id"`
	Lines         []placeOrderLineRequest `json:"lines"`
	ReceiverName  string                  `json:"receiver_name"`
	ReceiverPhone string                  `json:"receiver_phone"`
	Address       string                  `json:"address"`
}

type placeOrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderReceiptResponse struct {
	Order          orderPayload `json:"order"`
	Balance        int64        `json:"balance"`
	BalanceDisplay string       `json:"balance_display"`
}

// BuyerHandlers exposes buyer registration, balance lookup and order placement.
type BuyerHandlers struct {
	checkout services.CheckoutService
}

// NewBuyerHandlers constructs a new BuyerHandlers instance.
func NewBuyerHandlers(checkout services.CheckoutService) *BuyerHandlers {
	return &BuyerHandlers{checkout: checkout}
}

// Routes registers the /buyers endpoints.
func (h *BuyerHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.registerBuyer)
	r.Get("/{buyerID}", h.getBuyer)
	r.Post("/{buyerID}/orders", h.placeOrder)
}

func (h *BuyerHandlers) registerBuyer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyerID := actorID(r)
	if buyerID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "buyer identity required", http.StatusUnauthorized))
		return
	}

	var req registerBuyerRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	buyer, err := h.checkout.RegisterBuyer(ctx, services.RegisterBuyerCommand{
		BuyerID: buyerID,
		Balance: req.Balance,
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newBuyerPayload(buyer))
}

func (h *BuyerHandlers) getBuyer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyer, err := h.checkout.GetBuyer(ctx, urlParam(r, "buyerID"))
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newBuyerPayload(buyer))
}

func (h *BuyerHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req placeOrderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	lines := make([]services.OrderLineInput, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = services.OrderLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
	}

	receipt, err := h.checkout.PlaceOrder(ctx, services.PlaceOrderCommand{
		BuyerID: urlParam(r, "buyerID"),
		StoreID: req.StoreID,
		Lines:   lines,
		Shipping: domain.ShippingInfo{
			ReceiverName:  req.ReceiverName,
			ReceiverPhone: req.ReceiverPhone,
			Address:       req.Address,
		},
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, orderReceiptResponse{
		Order:          newOrderPayload(receipt.Order),
		Balance:        receipt.Balance,
		BalanceDisplay: domain.FormatAmount(receipt.Balance),
	})
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrEmptyOrder):
		httpx.WriteError(ctx, w, httpx.NewError("empty_order", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrStoreUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("store_unavailable", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrProductUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("product_unavailable", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrBuyerNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("buyer_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrInsufficientFunds):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_funds", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrBuyerExists):
		httpx.WriteError(ctx, w, httpx.NewError("buyer_exists", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrConcurrencyConflict):
		httpx.WriteError(ctx, w, httpx.NewError("concurrency_conflict", "the order hit a concurrent update, retry the request", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
