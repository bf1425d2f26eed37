package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marketfront/api/internal/platform/httpx"
	"github.com/marketfront/api/internal/services"
)

type storefrontResponse struct {
	Store    storePayload     `json:"store"`
	Products []productPayload `json:"products"`
}

// CatalogHandlers exposes buyer-facing read endpoints. Only published stores
// and active published products are visible here.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the /catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/stores/{storeID}", h.storefront)
	r.Get("/products/{productID}", h.getProduct)
}

func (h *CatalogHandlers) storefront(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	front, err := h.catalog.Storefront(ctx, urlParam(r, "storeID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, storefrontResponse{
		Store:    newStorePayload(front.Store),
		Products: newProductPayloads(front.Products),
	})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	product, err := h.catalog.GetProduct(ctx, urlParam(r, "productID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProductPayload(product))
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
