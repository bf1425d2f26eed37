package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketfront/api/internal/platform/httpx"
	"github.com/marketfront/api/internal/platform/observability"
	"github.com/marketfront/api/internal/services"
)

const (
	// actorHeader aliases the middleware constant so handlers and the request
	// log always agree on where the caller identity lives.
	actorHeader          = observability.ActorHeader
	maxStoreBodySize     = 64 * 1024
	maxImageUploadSize   = 8 * 1024 * 1024
	defaultImageMimeType = "application/octet-stream"
)

type createStoreRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Location    string `json:"location"`
	ImagePath   string `json:"image_path"`
	EndDate     string `json:"end_date"`
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Quantity    *int    `json:"quantity"`
	Location    *string `json:"location"`
	ImagePath   *string `json:"image_path"`
	EndDate     *string `json:"end_date"`
}

type productVisibilityRequest struct {
	Active bool `json:"active"`
}

// StoreHandlers exposes the seller-facing storefront endpoints.
type StoreHandlers struct {
	stores services.StoreService
}

// NewStoreHandlers constructs a new StoreHandlers instance.
func NewStoreHandlers(stores services.StoreService) *StoreHandlers {
	return &StoreHandlers{stores: stores}
}

// Routes registers the /stores endpoints.
func (h *StoreHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createStore)
	r.Get("/", h.listStores)
	r.Get("/{storeID}", h.getStore)
	r.Post("/{storeID}:submit", h.submitStore)
	r.Post("/{storeID}/products", h.addProduct)
	r.Patch("/{storeID}/products/{productID}", h.updateProduct)
	r.Post("/{storeID}/products/{productID}:visibility", h.setProductVisibility)
	r.Post("/{storeID}/products/{productID}:withdraw", h.withdrawProduct)
	r.Post("/{storeID}/images", h.uploadImage)
}

func (h *StoreHandlers) createStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := actorID(r)
	if sellerID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "seller identity required", http.StatusUnauthorized))
		return
	}

	var req createStoreRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	store, err := h.stores.CreateStore(ctx, services.CreateStoreCommand{
		SellerID:    sellerID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newStorePayload(store))
}

func (h *StoreHandlers) listStores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := actorID(r)
	if sellerID == "" {
		sellerID = strings.TrimSpace(r.URL.Query().Get("seller_id"))
	}
	if sellerID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "seller id is required", http.StatusBadRequest))
		return
	}

	stores, err := h.stores.ListStores(ctx, sellerID)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	payload := make([]storePayload, len(stores))
	for i, store := range stores {
		payload[i] = newStorePayload(store)
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"stores": payload})
}

func (h *StoreHandlers) getStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agg, err := h.stores.GetStore(ctx, chi.URLParam(r, "storeID"))
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newStoreAggregatePayload(agg))
}

func (h *StoreHandlers) submitStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agg, err := h.stores.SubmitStore(ctx, services.SubmitStoreCommand{
		StoreID:  chi.URLParam(r, "storeID"),
		SellerID: actorID(r),
	})
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newStoreAggregatePayload(agg))
}

func (h *StoreHandlers) addProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addProductRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	endDate, ok := parseOptionalTime(ctx, w, req.EndDate)
	if !ok {
		return
	}

	product, err := h.stores.AddProduct(ctx, services.AddProductCommand{
		StoreID:     chi.URLParam(r, "storeID"),
		SellerID:    actorID(r),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Location:    req.Location,
		ImagePath:   req.ImagePath,
		EndDate:     endDate,
	})
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newProductPayload(product))
}

func (h *StoreHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProductRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	cmd := services.UpdateProductCommand{
		ProductID:   chi.URLParam(r, "productID"),
		StoreID:     chi.URLParam(r, "storeID"),
		SellerID:    actorID(r),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Location:    req.Location,
		ImagePath:   req.ImagePath,
	}
	if req.EndDate != nil {
		endDate, ok := parseOptionalTime(ctx, w, *req.EndDate)
		if !ok {
			return
		}
		cmd.EndDate = endDate
	}

	product, err := h.stores.UpdateProduct(ctx, cmd)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProductPayload(product))
}

func (h *StoreHandlers) setProductVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req productVisibilityRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	product, err := h.stores.SetProductVisibility(ctx, services.ProductVisibilityCommand{
		ProductID: chi.URLParam(r, "productID"),
		StoreID:   chi.URLParam(r, "storeID"),
		SellerID:  actorID(r),
		Active:    req.Active,
	})
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProductPayload(product))
}

func (h *StoreHandlers) withdrawProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, err := h.stores.WithdrawProduct(ctx, services.WithdrawProductCommand{
		ProductID: chi.URLParam(r, "productID"),
		StoreID:   chi.URLParam(r, "storeID"),
		SellerID:  actorID(r),
	})
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProductPayload(product))
}

func (h *StoreHandlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImageUploadSize+1))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "failed to read image body", http.StatusBadRequest))
		return
	}
	if len(data) > maxImageUploadSize {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "image exceeds the size limit", http.StatusRequestEntityTooLarge))
		return
	}

	contentType := strings.TrimSpace(r.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = defaultImageMimeType
	}

	path, err := h.stores.UploadProductImage(ctx, services.UploadProductImageCommand{
		StoreID:     chi.URLParam(r, "storeID"),
		Filename:    strings.TrimSpace(r.URL.Query().Get("filename")),
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"image_path": path})
}

func actorID(r *http.Request) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Header.Get(actorHeader))
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, target any) bool {
	ctx := r.Context()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxStoreBodySize))
	decoder.DisallowUnknownFields()
	// An absent body decodes to the zero value of the target.
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func parseOptionalTime(ctx context.Context, w http.ResponseWriter, raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "end_date must be a valid RFC3339 timestamp", http.StatusBadRequest))
		return nil, false
	}
	ts = ts.UTC()
	return &ts, true
}

func writeStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrStoreInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrStoreNotFound), errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrStoreForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", err.Error(), http.StatusForbidden))
	case errors.Is(err, services.ErrStoreSuspendedAction):
		httpx.WriteError(ctx, w, httpx.NewError("store_suspended", err.Error(), http.StatusForbidden))
	case errors.Is(err, services.ErrStoreInvalidState), errors.Is(err, services.ErrStoreEmptyCatalog), errors.Is(err, services.ErrProductActionNotAllowed):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
