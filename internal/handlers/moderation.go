package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marketfront/api/internal/platform/httpx"
	"github.com/marketfront/api/internal/services"
)

type reviewDecisionRequest struct {
	Comment string `json:"comment"`
}

type storeReviewResponse struct {
	Store     storePayload     `json:"store"`
	Products  []productPayload `json:"products"`
	Escalated bool             `json:"escalated"`
}

type productReviewResponse struct {
	Product   productPayload `json:"product"`
	Store     storePayload   `json:"store"`
	Escalated bool           `json:"escalated"`
}

// ModerationHandlers exposes the reviewer workflow endpoints.
type ModerationHandlers struct {
	moderation services.ModerationService
}

// NewModerationHandlers constructs a new ModerationHandlers instance.
func NewModerationHandlers(moderation services.ModerationService) *ModerationHandlers {
	return &ModerationHandlers{moderation: moderation}
}

// Routes registers the /moderation endpoints.
func (h *ModerationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/stores", h.listPendingStores)
	r.Get("/products", h.listPendingProducts)
	r.Post("/stores/{storeID}:approve", h.approveStore)
	r.Post("/stores/{storeID}:reject", h.rejectStore)
	r.Post("/products/{productID}:approve", h.approveProduct)
	r.Post("/products/{productID}:reject", h.rejectProduct)
	r.Get("/stores/{storeID}/records", h.listRecords)
	r.Get("/products/{productID}/records", h.listProductRecords)
}

func (h *ModerationHandlers) listPendingStores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	aggregates, err := h.moderation.ListPendingStores(ctx)
	if err != nil {
		writeModerationError(ctx, w, err)
		return
	}
	payload := make([]storeAggregatePayload, len(aggregates))
	for i, agg := range aggregates {
		payload[i] = newStoreAggregatePayload(agg)
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"stores": payload})
}

func (h *ModerationHandlers) listPendingProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.moderation.ListPendingProducts(ctx)
	if err != nil {
		writeModerationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": newProductPayloads(products)})
}

func (h *ModerationHandlers) approveStore(w http.ResponseWriter, r *http.Request) {
	h.decideStore(w, r, h.moderation.ApproveStore)
}

func (h *ModerationHandlers) rejectStore(w http.ResponseWriter, r *http.Request) {
	h.decideStore(w, r, h.moderation.RejectStore)
}

func (h *ModerationHandlers) decideStore(w http.ResponseWriter, r *http.Request, decide func(context.Context, services.ReviewStoreCommand) (services.StoreReviewOutcome, error)) {
	ctx := r.Context()
	reviewerID := actorID(r)
	if reviewerID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "reviewer identity required", http.StatusUnauthorized))
		return
	}

	var req reviewDecisionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	outcome, err := decide(ctx, services.ReviewStoreCommand{
		StoreID:    urlParam(r, "storeID"),
		ReviewerID: reviewerID,
		Comment:    req.Comment,
	})
	if err != nil {
		writeModerationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, storeReviewResponse{
		Store:     newStorePayload(outcome.Store),
		Products:  newProductPayloads(outcome.Products),
		Escalated: outcome.Escalated,
	})
}

func (h *ModerationHandlers) approveProduct(w http.ResponseWriter, r *http.Request) {
	h.decideProduct(w, r, h.moderation.ApproveProduct)
}

func (h *ModerationHandlers) rejectProduct(w http.ResponseWriter, r *http.Request) {
	h.decideProduct(w, r, h.moderation.RejectProduct)
}

func (h *ModerationHandlers) decideProduct(w http.ResponseWriter, r *http.Request, decide func(context.Context, services.ReviewProductCommand) (services.ProductReviewOutcome, error)) {
	ctx := r.Context()
	reviewerID := actorID(r)
	if reviewerID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "reviewer identity required", http.StatusUnauthorized))
		return
	}

	var req reviewDecisionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	outcome, err := decide(ctx, services.ReviewProductCommand{
		ProductID:  urlParam(r, "productID"),
		ReviewerID: reviewerID,
		Comment:    req.Comment,
	})
	if err != nil {
		writeModerationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productReviewResponse{
		Product:   newProductPayload(outcome.Product),
		Store:     newStorePayload(outcome.Store),
		Escalated: outcome.Escalated,
	})
}

func (h *ModerationHandlers) listRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.moderation.ListReviewRecords(ctx, urlParam(r, "storeID"))
	if err != nil {
		writeModerationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"records": newReviewRecordPayloads(records)})
}

func (h *ModerationHandlers) listProductRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.moderation.ListProductReviewRecords(ctx, urlParam(r, "productID"))
	if err != nil {
		writeModerationError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"records": newReviewRecordPayloads(records)})
}

// urlParam unescapes chi parameters so colon-suffixed routes keep clean ids.
func urlParam(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(value); err == nil {
		value = unescaped
	}
	return strings.TrimSpace(value)
}

func writeModerationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrModerationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrModerationStoreNotFound), errors.Is(err, services.ErrModerationProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrModerationStoreSuspended):
		httpx.WriteError(ctx, w, httpx.NewError("store_suspended", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrModerationInvalidState), errors.Is(err, services.ErrModerationNotAllowed):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
