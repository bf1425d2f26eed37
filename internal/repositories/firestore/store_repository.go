package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/marketfront/api/internal/domain"
	pfirestore "github.com/marketfront/api/internal/platform/firestore"
	"github.com/marketfront/api/internal/repositories"
)

const (
	storesCollection   = "stores"
	productsCollection = "products"
)

// StoreRepository persists store documents in Firestore.
type StoreRepository struct {
	provider *pfirestore.Provider
	stores   *pfirestore.BaseRepository[storeDocument]
	products *pfirestore.BaseRepository[productDocument]
}

// NewStoreRepository constructs a Firestore backed store repository.
func NewStoreRepository(provider *pfirestore.Provider) (*StoreRepository, error) {
	if provider == nil {
		return nil, errors.New("store repository requires firestore provider")
	}
	return &StoreRepository{
		provider: provider,
		stores:   pfirestore.NewBaseRepository[storeDocument](provider, storesCollection, nil, nil),
		products: pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil),
	}, nil
}

func (r *StoreRepository) Insert(ctx context.Context, store domain.Store) error {
	if r == nil || r.stores == nil {
		return errors.New("store repository not initialised")
	}
	if strings.TrimSpace(store.ID) == "" {
		return errors.New("store insert: id is required")
	}
	ref, err := r.stores.DocumentRef(ctx, store.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, newStoreDocument(store)); err != nil {
		return pfirestore.WrapError("stores.insert", err)
	}
	return nil
}

func (r *StoreRepository) FindByID(ctx context.Context, storeID string) (domain.Store, error) {
	if r == nil || r.stores == nil {
		return domain.Store{}, errors.New("store repository not initialised")
	}
	doc, err := r.stores.Get(ctx, storeID)
	if err != nil {
		return domain.Store{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *StoreRepository) FindAggregate(ctx context.Context, storeID string) (domain.StoreAggregate, error) {
	store, err := r.FindByID(ctx, storeID)
	if err != nil {
		return domain.StoreAggregate{}, err
	}
	products, err := r.listProducts(ctx, storeID)
	if err != nil {
		return domain.StoreAggregate{}, err
	}
	return domain.StoreAggregate{Store: store, Products: products}, nil
}

func (r *StoreRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Store, error) {
	if r == nil || r.stores == nil {
		return nil, errors.New("store repository not initialised")
	}
	sellerID = strings.TrimSpace(sellerID)
	if sellerID == "" {
		return nil, errors.New("store list: seller id is required")
	}
	docs, err := r.stores.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("sellerId", "==", sellerID).OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	stores := make([]domain.Store, len(docs))
	for i, doc := range docs {
		stores[i] = doc.Data.toDomain(doc.ID)
	}
	return stores, nil
}

func (r *StoreRepository) ListPendingReview(ctx context.Context) ([]domain.StoreAggregate, error) {
	if r == nil || r.stores == nil {
		return nil, errors.New("store repository not initialised")
	}
	docs, err := r.stores.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("status", "==", string(domain.StoreStatusPendingReview)).OrderBy("submittedAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	aggregates := make([]domain.StoreAggregate, 0, len(docs))
	for _, doc := range docs {
		products, err := r.listProducts(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, domain.StoreAggregate{
			Store:    doc.Data.toDomain(doc.ID),
			Products: products,
		})
	}
	return aggregates, nil
}

func (r *StoreRepository) listProducts(ctx context.Context, storeID string) ([]domain.Product, error) {
	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("storeId", "==", storeID).OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, len(docs))
	for i, doc := range docs {
		products[i] = doc.Data.toDomain(doc.ID)
	}
	return products, nil
}

// Document structures -------------------------------------------------------

type storeDocument struct {
	SellerID        string     `firestore:"sellerId"`
	Name            string     `firestore:"name"`
	Description     string     `firestore:"description,omitempty"`
	Status          string     `firestore:"status"`
	ReviewFailCount int        `firestore:"reviewFailCount"`
	SubmittedAt     *time.Time `firestore:"submittedAt,omitempty"`
	RecoverAt       *time.Time `firestore:"recoverAt,omitempty"`
	CreatedAt       time.Time  `firestore:"createdAt"`
	UpdatedAt       time.Time  `firestore:"updatedAt"`
}

func newStoreDocument(store domain.Store) storeDocument {
	return storeDocument{
		SellerID:        strings.TrimSpace(store.SellerID),
		Name:            strings.TrimSpace(store.Name),
		Description:     strings.TrimSpace(store.Description),
		Status:          string(store.Status),
		ReviewFailCount: store.ReviewFailCount,
		SubmittedAt:     store.SubmittedAt,
		RecoverAt:       store.RecoverAt,
		CreatedAt:       store.CreatedAt.UTC(),
		UpdatedAt:       store.UpdatedAt.UTC(),
	}
}

func (d storeDocument) toDomain(id string) domain.Store {
	return domain.Store{
		ID:              id,
		SellerID:        d.SellerID,
		Name:            d.Name,
		Description:     d.Description,
		Status:          domain.StoreStatus(d.Status),
		ReviewFailCount: d.ReviewFailCount,
		SubmittedAt:     d.SubmittedAt,
		RecoverAt:       d.RecoverAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func decodeStore(snap *firestore.DocumentSnapshot) (storeDocument, error) {
	var doc storeDocument
	if err := snap.DataTo(&doc); err != nil {
		return storeDocument{}, fmt.Errorf("decode store %s: %w", snap.Ref.ID, err)
	}
	return doc, nil
}

var _ repositories.StoreRepository = (*StoreRepository)(nil)
