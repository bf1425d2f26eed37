package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/marketfront/api/internal/domain"
	"github.com/marketfront/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput signals the caller provided invalid arguments.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the requested storefront or product is not public.
	ErrCatalogNotFound = errors.New("catalog: not found")
)

// CatalogServiceDeps bundles the collaborators required to construct a catalog service.
type CatalogServiceDeps struct {
	Stores   repositories.StoreRepository
	Products repositories.ProductRepository
	Clock    func() time.Time
}

type catalogService struct {
	stores   repositories.StoreRepository
	products repositories.ProductRepository
	clock    func() time.Time
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Stores == nil {
		return nil, errors.New("catalog service: store repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &catalogService{
		stores:   deps.Stores,
		products: deps.Products,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

// Storefront returns the public projection of a published store: only active
// published products whose listing has not ended are included. Stores in any
// other lifecycle state are invisible to buyers.
func (s *catalogService) Storefront(ctx context.Context, storeID string) (Storefront, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return Storefront{}, fmt.Errorf("%w: store id is required", ErrCatalogInvalidInput)
	}

	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return Storefront{}, s.mapRepositoryError(err)
	}
	if store.Status != domain.StoreStatusPublished {
		return Storefront{}, fmt.Errorf("%w: store %s", ErrCatalogNotFound, storeID)
	}

	products, err := s.products.ListByStore(ctx, storeID)
	if err != nil {
		return Storefront{}, s.mapRepositoryError(err)
	}

	now := s.clock()
	visible := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Status != domain.ProductStatusPublished || !p.IsActive {
			continue
		}
		if p.EndDate != nil && !p.EndDate.After(now) {
			continue
		}
		visible = append(visible, p)
	}

	return Storefront{Store: store, Products: visible}, nil
}

// GetProduct returns a product for buyer display. Products that are not
// published and active, or whose store is not published, are not found.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	if product.Status != domain.ProductStatusPublished || !product.IsActive {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrCatalogNotFound, productID)
	}

	store, err := s.stores.FindByID(ctx, product.StoreID)
	if err != nil {
		return domain.Product{}, s.mapRepositoryError(err)
	}
	if store.Status != domain.StoreStatusPublished {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrCatalogNotFound, productID)
	}
	return product, nil
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %s", ErrCatalogNotFound, err.Error())
	}
	return err
}

var _ CatalogService = (*catalogService)(nil)
