package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/marketfront/api/internal/domain"
	pfirestore "github.com/marketfront/api/internal/platform/firestore"
	"github.com/marketfront/api/internal/repositories"
)

const reviewRecordsCollection = "reviewRecords"

// ModerationRepository applies moderation decisions transactionally. Each
// operation re-reads the store aggregate inside the transaction, runs the
// lifecycle rules, and commits the status change, the product cascade, the
// failure counter and the audit record as one unit.
type ModerationRepository struct {
	provider *pfirestore.Provider
	stores   *pfirestore.BaseRepository[storeDocument]
	products *pfirestore.BaseRepository[productDocument]
	records  *pfirestore.BaseRepository[reviewRecordDocument]
}

// NewModerationRepository constructs a Firestore backed moderation repository.
func NewModerationRepository(provider *pfirestore.Provider) (*ModerationRepository, error) {
	if provider == nil {
		return nil, errors.New("moderation repository requires firestore provider")
	}
	return &ModerationRepository{
		provider: provider,
		stores:   pfirestore.NewBaseRepository[storeDocument](provider, storesCollection, nil, nil),
		products: pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil),
		records:  pfirestore.NewBaseRepository[reviewRecordDocument](provider, reviewRecordsCollection, nil, nil),
	}, nil
}

func (r *ModerationRepository) SubmitStore(ctx context.Context, req repositories.SubmitStoreRequest) (repositories.StoreModerationResult, error) {
	return r.runStoreTransition(ctx, "moderation.submitStore", req.StoreID, func(agg *domain.StoreAggregate) (bool, domain.ReviewRecord, error) {
		if err := agg.Submit(req.Now.UTC()); err != nil {
			return false, domain.ReviewRecord{}, err
		}
		return false, domain.ReviewRecord{}, nil
	})
}

func (r *ModerationRepository) ApproveStore(ctx context.Context, req repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error) {
	return r.runStoreTransition(ctx, "moderation.approveStore", req.StoreID, func(agg *domain.StoreAggregate) (bool, domain.ReviewRecord, error) {
		if err := agg.Approve(req.Now.UTC()); err != nil {
			return false, domain.ReviewRecord{}, err
		}
		return false, req.Record, nil
	})
}

func (r *ModerationRepository) RejectStore(ctx context.Context, req repositories.ReviewStoreRequest) (repositories.StoreModerationResult, error) {
	return r.runStoreTransition(ctx, "moderation.rejectStore", req.StoreID, func(agg *domain.StoreAggregate) (bool, domain.ReviewRecord, error) {
		escalated, err := agg.Reject(req.Now.UTC(), req.Recovery)
		if err != nil {
			return false, domain.ReviewRecord{}, err
		}
		return escalated, req.Record, nil
	})
}

func (r *ModerationRepository) ApproveProduct(ctx context.Context, req repositories.ReviewProductRequest) (repositories.ProductModerationResult, error) {
	return r.runProductTransition(ctx, "moderation.approveProduct", req.ProductID, func(store *domain.Store, product *domain.Product) (bool, domain.ReviewRecord, error) {
		if err := domain.ApproveProduct(store, product, req.Now.UTC()); err != nil {
			return false, domain.ReviewRecord{}, err
		}
		return false, req.Record, nil
	})
}

func (r *ModerationRepository) RejectProduct(ctx context.Context, req repositories.ReviewProductRequest) (repositories.ProductModerationResult, error) {
	return r.runProductTransition(ctx, "moderation.rejectProduct", req.ProductID, func(store *domain.Store, product *domain.Product) (bool, domain.ReviewRecord, error) {
		escalated, err := domain.RejectProduct(store, product, req.Record.Comment, req.Now.UTC(), req.Recovery)
		if err != nil {
			return false, domain.ReviewRecord{}, err
		}
		return escalated, req.Record, nil
	})
}

type storeTransition func(agg *domain.StoreAggregate) (escalated bool, record domain.ReviewRecord, err error)

func (r *ModerationRepository) runStoreTransition(ctx context.Context, op, storeID string, apply storeTransition) (repositories.StoreModerationResult, error) {
	if r == nil || r.provider == nil {
		return repositories.StoreModerationResult{}, errors.New("moderation repository not initialised")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return repositories.StoreModerationResult{}, errors.New("moderation: store id is required")
	}

	var result repositories.StoreModerationResult
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		storeRef, err := r.stores.DocumentRef(ctx, storeID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(storeRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewModerationError(repositories.ModerationErrorStoreNotFound, fmt.Sprintf("store %s not found", storeID), err)
			}
			return err
		}
		storeDoc, err := decodeStore(snap)
		if err != nil {
			return err
		}

		products, productRefs, err := r.readStoreProducts(ctx, tx, storeID)
		if err != nil {
			return err
		}

		agg := domain.StoreAggregate{Store: storeDoc.toDomain(storeID), Products: products}
		escalated, record, err := apply(&agg)
		if err != nil {
			return moderationErrorFor(err)
		}

		if err := tx.Set(storeRef, newStoreDocument(agg.Store)); err != nil {
			return err
		}
		for i, ref := range productRefs {
			if err := tx.Set(ref, newProductDocument(agg.Products[i])); err != nil {
				return err
			}
		}
		if record.ID != "" {
			if err := r.writeRecord(ctx, tx, record); err != nil {
				return err
			}
		}

		result = repositories.StoreModerationResult{
			Store:     agg.Store,
			Products:  agg.Products,
			Escalated: escalated,
		}
		return nil
	})
	if err != nil {
		return repositories.StoreModerationResult{}, wrapModerationError(op, err)
	}
	return result, nil
}

type productTransition func(store *domain.Store, product *domain.Product) (escalated bool, record domain.ReviewRecord, err error)

func (r *ModerationRepository) runProductTransition(ctx context.Context, op, productID string, apply productTransition) (repositories.ProductModerationResult, error) {
	if r == nil || r.provider == nil {
		return repositories.ProductModerationResult{}, errors.New("moderation repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return repositories.ProductModerationResult{}, errors.New("moderation: product id is required")
	}

	var result repositories.ProductModerationResult
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		productRef, err := r.products.DocumentRef(ctx, productID)
		if err != nil {
			return err
		}
		productSnap, err := tx.Get(productRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewModerationError(repositories.ModerationErrorProductNotFound, fmt.Sprintf("product %s not found", productID), err)
			}
			return err
		}
		productDoc, err := decodeProduct(productSnap)
		if err != nil {
			return err
		}
		product := productDoc.toDomain(productID)

		storeRef, err := r.stores.DocumentRef(ctx, product.StoreID)
		if err != nil {
			return err
		}
		storeSnap, err := tx.Get(storeRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewModerationError(repositories.ModerationErrorStoreNotFound, fmt.Sprintf("store %s not found", product.StoreID), err)
			}
			return err
		}
		storeDoc, err := decodeStore(storeSnap)
		if err != nil {
			return err
		}
		store := storeDoc.toDomain(product.StoreID)

		escalated, record, err := apply(&store, &product)
		if err != nil {
			return moderationErrorFor(err)
		}

		if err := tx.Set(productRef, newProductDocument(product)); err != nil {
			return err
		}
		if err := tx.Set(storeRef, newStoreDocument(store)); err != nil {
			return err
		}
		if record.ID != "" {
			if record.StoreID == "" {
				record.StoreID = store.ID
			}
			if err := r.writeRecord(ctx, tx, record); err != nil {
				return err
			}
		}

		result = repositories.ProductModerationResult{
			Product:   product,
			Store:     store,
			Escalated: escalated,
		}
		return nil
	})
	if err != nil {
		return repositories.ProductModerationResult{}, wrapModerationError(op, err)
	}
	return result, nil
}

// readStoreProducts loads every product of the store inside tx, keeping the
// document refs aligned with the returned slice for later writes.
func (r *ModerationRepository) readStoreProducts(ctx context.Context, tx *firestore.Transaction, storeID string) ([]domain.Product, []*firestore.DocumentRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, nil, err
	}
	query := client.Collection(productsCollection).Where("storeId", "==", storeID)

	iter := tx.Documents(query)
	defer iter.Stop()

	var (
		products []domain.Product
		refs     []*firestore.DocumentRef
	)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		doc, err := decodeProduct(snap)
		if err != nil {
			return nil, nil, err
		}
		products = append(products, doc.toDomain(snap.Ref.ID))
		refs = append(refs, snap.Ref)
	}
	return products, refs, nil
}

func (r *ModerationRepository) writeRecord(ctx context.Context, tx *firestore.Transaction, record domain.ReviewRecord) error {
	ref, err := r.records.DocumentRef(ctx, record.ID)
	if err != nil {
		return err
	}
	return tx.Create(ref, newReviewRecordDocument(record))
}

// moderationErrorFor maps lifecycle rule violations to typed repository errors
// so services can translate them without string matching.
func moderationErrorFor(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyCatalog):
		return repositories.NewModerationError(repositories.ModerationErrorEmptyCatalog, err.Error(), err)
	case errors.Is(err, domain.ErrStoreSuspended):
		return repositories.NewModerationError(repositories.ModerationErrorSuspended, err.Error(), err)
	case errors.Is(err, domain.ErrStoreNotPublished):
		return repositories.NewModerationError(repositories.ModerationErrorNotAllowed, err.Error(), err)
	case errors.Is(err, domain.ErrInvalidTransition):
		return repositories.NewModerationError(repositories.ModerationErrorInvalidState, err.Error(), err)
	default:
		return err
	}
}

var _ repositories.ModerationRepository = (*ModerationRepository)(nil)
