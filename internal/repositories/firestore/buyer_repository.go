package firestore

import (
	"context"
	"errors"
	"strings"

	domain "github.com/marketfront/api/internal/domain"
	pfirestore "github.com/marketfront/api/internal/platform/firestore"
	"github.com/marketfront/api/internal/repositories"
)

// BuyerRepository persists buyer balance documents. Balance mutations happen
// only inside the checkout transaction; this repository covers registration
// and lookups.
type BuyerRepository struct {
	buyers *pfirestore.BaseRepository[buyerDocument]
}

// NewBuyerRepository constructs a Firestore backed buyer repository.
func NewBuyerRepository(provider *pfirestore.Provider) (*BuyerRepository, error) {
	if provider == nil {
		return nil, errors.New("buyer repository requires firestore provider")
	}
	return &BuyerRepository{
		buyers: pfirestore.NewBaseRepository[buyerDocument](provider, buyersCollection, nil, nil),
	}, nil
}

func (r *BuyerRepository) Insert(ctx context.Context, buyer domain.Buyer) error {
	if r == nil || r.buyers == nil {
		return errors.New("buyer repository not initialised")
	}
	if strings.TrimSpace(buyer.ID) == "" {
		return errors.New("buyer insert: id is required")
	}
	ref, err := r.buyers.DocumentRef(ctx, buyer.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, newBuyerDocument(buyer)); err != nil {
		return pfirestore.WrapError("buyers.insert", err)
	}
	return nil
}

func (r *BuyerRepository) FindByID(ctx context.Context, buyerID string) (domain.Buyer, error) {
	if r == nil || r.buyers == nil {
		return domain.Buyer{}, errors.New("buyer repository not initialised")
	}
	doc, err := r.buyers.Get(ctx, buyerID)
	if err != nil {
		return domain.Buyer{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

var _ repositories.BuyerRepository = (*BuyerRepository)(nil)
