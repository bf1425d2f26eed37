package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/marketfront/api/internal/domain"
	pfirestore "github.com/marketfront/api/internal/platform/firestore"
	"github.com/marketfront/api/internal/repositories"
)

// ProductRepository persists product documents in Firestore. Seller edits are
// applied inside transactions so the owning store's state is re-read under
// isolation before any rule is evaluated.
type ProductRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.BaseRepository[productDocument]
	stores   *pfirestore.BaseRepository[storeDocument]
}

// NewProductRepository constructs a Firestore backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		provider: provider,
		products: pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil),
		stores:   pfirestore.NewBaseRepository[storeDocument](provider, storesCollection, nil, nil),
	}, nil
}

func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.products == nil {
		return errors.New("product repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("product insert: id is required")
	}
	ref, err := r.products.DocumentRef(ctx, product.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, newProductDocument(product)); err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *ProductRepository) ListByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	if r == nil || r.products == nil {
		return nil, errors.New("product repository not initialised")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, errors.New("product list: store id is required")
	}
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

func (r *ProductRepository) ListPendingSecondWave(ctx context.Context) ([]domain.Product, error) {
	if r == nil || r.products == nil {
		return nil, errors.New("product repository not initialised")
	}
	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("status", "==", string(domain.ProductStatusPendingReview)).OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	// Firestore cannot join on the store status, so filter after loading the
	// owning stores once each.
	publishedStores := make(map[string]bool)
	var pending []domain.Product
	for _, doc := range docs {
		product := doc.Data.toDomain(doc.ID)
		published, seen := publishedStores[product.StoreID]
		if !seen {
			storeDoc, err := r.stores.Get(ctx, product.StoreID)
			if err != nil {
				var repoErr *pfirestore.Error
				if errors.As(err, &repoErr) && repoErr.IsNotFound() {
					publishedStores[product.StoreID] = false
					continue
				}
				return nil, err
			}
			published = storeDoc.Data.Status == string(domain.StoreStatusPublished)
			publishedStores[product.StoreID] = published
		}
		if published {
			pending = append(pending, product)
		}
	}
	return pending, nil
}

func (r *ProductRepository) ApplyUpdate(ctx context.Context, req repositories.ProductUpdateRequest) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		return domain.Product{}, errors.New("product update: id is required")
	}

	now := req.Now.UTC()
	var updated domain.Product
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		product, store, err := r.productWithStore(ctx, tx, productID, req.StoreID)
		if err != nil {
			return err
		}
		if store.Status == domain.StoreStatusSuspended {
			return repositories.NewModerationError(repositories.ModerationErrorSuspended, fmt.Sprintf("store %s is suspended", store.ID), nil)
		}

		domain.ApplyProductUpdate(&product, req.Update, now)

		ref, err := r.products.DocumentRef(ctx, productID)
		if err != nil {
			return err
		}
		if err := tx.Set(ref, newProductDocument(product)); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return domain.Product{}, wrapModerationError("products.applyUpdate", err)
	}
	return updated, nil
}

func (r *ProductRepository) SetVisibility(ctx context.Context, req repositories.ProductVisibilityRequest) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		return domain.Product{}, errors.New("product visibility: id is required")
	}

	now := req.Now.UTC()
	var updated domain.Product
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		product, store, err := r.productWithStore(ctx, tx, productID, req.StoreID)
		if err != nil {
			return err
		}
		if err := domain.SetProductVisibility(&store, &product, req.Active, now); err != nil {
			return repositories.NewModerationError(repositories.ModerationErrorNotAllowed, err.Error(), err)
		}

		ref, err := r.products.DocumentRef(ctx, productID)
		if err != nil {
			return err
		}
		if err := tx.Set(ref, newProductDocument(product)); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return domain.Product{}, wrapModerationError("products.setVisibility", err)
	}
	return updated, nil
}

func (r *ProductRepository) Withdraw(ctx context.Context, productID string, now time.Time) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, errors.New("product withdraw: id is required")
	}

	now = now.UTC()
	var updated domain.Product
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.products.DocumentRef(ctx, productID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewModerationError(repositories.ModerationErrorProductNotFound, fmt.Sprintf("product %s not found", productID), err)
			}
			return err
		}
		doc, err := decodeProduct(snap)
		if err != nil {
			return err
		}

		product := doc.toDomain(productID)
		product.Status = domain.ProductStatusDraft
		product.IsActive = false
		product.UpdatedAt = now

		if err := tx.Set(ref, newProductDocument(product)); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return domain.Product{}, wrapModerationError("products.withdraw", err)
	}
	return updated, nil
}

// productWithStore reads a product and its owning store inside tx, verifying
// store ownership when expectedStoreID is provided.
func (r *ProductRepository) productWithStore(ctx context.Context, tx *firestore.Transaction, productID, expectedStoreID string) (domain.Product, domain.Store, error) {
	productRef, err := r.products.DocumentRef(ctx, productID)
	if err != nil {
		return domain.Product{}, domain.Store{}, err
	}
	snap, err := tx.Get(productRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Product{}, domain.Store{}, repositories.NewModerationError(repositories.ModerationErrorProductNotFound, fmt.Sprintf("product %s not found", productID), err)
		}
		return domain.Product{}, domain.Store{}, err
	}
	productDoc, err := decodeProduct(snap)
	if err != nil {
		return domain.Product{}, domain.Store{}, err
	}
	product := productDoc.toDomain(productID)

	if expectedStoreID != "" && product.StoreID != expectedStoreID {
		return domain.Product{}, domain.Store{}, repositories.NewModerationError(repositories.ModerationErrorProductNotFound, fmt.Sprintf("product %s does not belong to store %s", productID, expectedStoreID), nil)
	}

	storeRef, err := r.stores.DocumentRef(ctx, product.StoreID)
	if err != nil {
		return domain.Product{}, domain.Store{}, err
	}
	storeSnap, err := tx.Get(storeRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Product{}, domain.Store{}, repositories.NewModerationError(repositories.ModerationErrorStoreNotFound, fmt.Sprintf("store %s not found", product.StoreID), err)
		}
		return domain.Product{}, domain.Store{}, err
	}
	storeDoc, err := decodeStore(storeSnap)
	if err != nil {
		return domain.Product{}, domain.Store{}, err
	}
	return product, storeDoc.toDomain(product.StoreID), nil
}

// Document structures -------------------------------------------------------

type productDocument struct {
	StoreID      string     `firestore:"storeId"`
	Name         string     `firestore:"name"`
	Description  string     `firestore:"description,omitempty"`
	Price        int64      `firestore:"price"`
	Quantity     int        `firestore:"quantity"`
	Location     string     `firestore:"location,omitempty"`
	ImagePath    string     `firestore:"imagePath,omitempty"`
	EndDate      *time.Time `firestore:"endDate,omitempty"`
	Status       string     `firestore:"status"`
	IsActive     bool       `firestore:"isActive"`
	RejectReason string     `firestore:"rejectReason,omitempty"`
	CreatedAt    time.Time  `firestore:"createdAt"`
	UpdatedAt    time.Time  `firestore:"updatedAt"`
}

func newProductDocument(product domain.Product) productDocument {
	return productDocument{
		StoreID:      strings.TrimSpace(product.StoreID),
		Name:         strings.TrimSpace(product.Name),
		Description:  product.Description,
		Price:        product.Price,
		Quantity:     product.Quantity,
		Location:     strings.TrimSpace(product.Location),
		ImagePath:    strings.TrimSpace(product.ImagePath),
		EndDate:      product.EndDate,
		Status:       string(product.Status),
		IsActive:     product.IsActive,
		RejectReason: product.RejectReason,
		CreatedAt:    product.CreatedAt.UTC(),
		UpdatedAt:    product.UpdatedAt.UTC(),
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:           id,
		StoreID:      d.StoreID,
		Name:         d.Name,
		Description:  d.Description,
		Price:        d.Price,
		Quantity:     d.Quantity,
		Location:     d.Location,
		ImagePath:    d.ImagePath,
		EndDate:      d.EndDate,
		Status:       domain.ProductStatus(d.Status),
		IsActive:     d.IsActive,
		RejectReason: d.RejectReason,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func decodeProduct(snap *firestore.DocumentSnapshot) (productDocument, error) {
	var doc productDocument
	if err := snap.DataTo(&doc); err != nil {
		return productDocument{}, fmt.Errorf("decode product %s: %w", snap.Ref.ID, err)
	}
	return doc, nil
}

func wrapModerationError(op string, err error) error {
	if err == nil {
		return nil
	}
	var modErr *repositories.ModerationError
	if errors.As(err, &modErr) {
		if modErr.Op == "" {
			modErr.Op = op
		}
		return modErr
	}
	return pfirestore.WrapError(op, err)
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)
