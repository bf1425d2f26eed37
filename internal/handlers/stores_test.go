package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/marketfront/api/internal/domain"
	"github.com/marketfront/api/internal/services"
)

func newStoreRouter(svc services.StoreService) chi.Router {
	h := NewStoreHandlers(svc)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestCreateStoreRequiresActor(t *testing.T) {
	router := newStoreRouter(&stubStoreService{})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Fresh Goods"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestCreateStoreSuccess(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := &stubStoreService{
		createFn: func(_ context.Context, cmd services.CreateStoreCommand) (domain.Store, error) {
			if cmd.SellerID != "seller-1" {
				t.Fatalf("unexpected seller id %s", cmd.SellerID)
			}
			return domain.Store{
				ID:        "str_1",
				SellerID:  cmd.SellerID,
				Name:      cmd.Name,
				Status:    domain.StoreStatusDraft,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		},
	}
	router := newStoreRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Fresh Goods","description":"produce"}`))
	req.Header.Set(actorHeader, "seller-1")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["id"] != "str_1" || body["status"] != "draft" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCreateStoreRejectsMalformedBody(t *testing.T) {
	router := newStoreRouter(&stubStoreService{})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	req.Header.Set(actorHeader, "seller-1")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestSubmitStoreActionRoute(t *testing.T) {
	svc := &stubStoreService{
		submitFn: func(_ context.Context, cmd services.SubmitStoreCommand) (domain.StoreAggregate, error) {
			if cmd.StoreID != "str_1" || cmd.SellerID != "seller-1" {
				t.Fatalf("unexpected command %+v", cmd)
			}
			return domain.StoreAggregate{
				Store: domain.Store{ID: "str_1", Status: domain.StoreStatusPendingReview},
			}, nil
		},
	}
	router := newStoreRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/str_1:submit", nil)
	req.Header.Set(actorHeader, "seller-1")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	store, ok := body["store"].(map[string]any)
	if !ok || store["status"] != "pending_review" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestSubmitStoreErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"empty catalog", services.ErrStoreEmptyCatalog, http.StatusConflict},
		{"suspended", services.ErrStoreSuspendedAction, http.StatusForbidden},
		{"forbidden", services.ErrStoreForbidden, http.StatusForbidden},
		{"not found", services.ErrStoreNotFound, http.StatusNotFound},
		{"invalid state", services.ErrStoreInvalidState, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubStoreService{
				submitFn: func(_ context.Context, _ services.SubmitStoreCommand) (domain.StoreAggregate, error) {
					return domain.StoreAggregate{}, fmt.Errorf("%w: str_1", tc.err)
				},
			}
			router := newStoreRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/str_1:submit", nil)
			req.Header.Set(actorHeader, "seller-1")
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestAddProductParsesEndDate(t *testing.T) {
	svc := &stubStoreService{
		addProductFn: func(_ context.Context, cmd services.AddProductCommand) (domain.Product, error) {
			if cmd.EndDate == nil || !cmd.EndDate.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected end date %+v", cmd.EndDate)
			}
			return domain.Product{ID: "prd_1", StoreID: cmd.StoreID, Name: cmd.Name, Price: cmd.Price, Status: domain.ProductStatusDraft}, nil
		},
	}
	router := newStoreRouter(svc)

	payload := `{"name":"Apples","price":30000,"quantity":10,"end_date":"2026-09-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/str_1/products", strings.NewReader(payload))
	req.Header.Set(actorHeader, "seller-1")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["price_display"] != "300.00" {
		t.Fatalf("unexpected price display %v", body["price_display"])
	}
}

func TestAddProductRejectsBadEndDate(t *testing.T) {
	router := newStoreRouter(&stubStoreService{})

	payload := `{"name":"Apples","end_date":"next tuesday"}`
	req := httptest.NewRequest(http.MethodPost, "/str_1/products", strings.NewReader(payload))
	req.Header.Set(actorHeader, "seller-1")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestProductVisibilityRoute(t *testing.T) {
	svc := &stubStoreService{
		visibilityFn: func(_ context.Context, cmd services.ProductVisibilityCommand) (domain.Product, error) {
			if !cmd.Active || cmd.ProductID != "prd_1" || cmd.StoreID != "str_1" {
				t.Fatalf("unexpected command %+v", cmd)
			}
			return domain.Product{ID: cmd.ProductID, StoreID: cmd.StoreID, Status: domain.ProductStatusPublished, IsActive: true}, nil
		},
	}
	router := newStoreRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/str_1/products/prd_1:visibility", strings.NewReader(`{"active":true}`))
	req.Header.Set(actorHeader, "seller-1")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUploadImageTooLarge(t *testing.T) {
	router := newStoreRouter(&stubStoreService{})

	body := strings.NewReader(strings.Repeat("x", maxImageUploadSize+1))
	req := httptest.NewRequest(http.MethodPost, "/str_1/images?filename=apple.png", body)
	req.Header.Set(actorHeader, "seller-1")
	req.Header.Set("Content-Type", "image/png")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}
