package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/marketfront/api/internal/domain"
	pfirestore "github.com/marketfront/api/internal/platform/firestore"
	"github.com/marketfront/api/internal/repositories"
)

// OrderRepository reads order documents and applies status changes. Status
// updates go through a transaction so the terminal check always runs against
// the committed state.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		orders:   pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil),
	}, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return r.list(ctx, "buyerId", buyerID)
}

func (r *OrderRepository) ListByStore(ctx context.Context, storeID string) ([]domain.Order, error) {
	return r.list(ctx, "storeId", storeID)
}

func (r *OrderRepository) list(ctx context.Context, field, value string) ([]domain.Order, error) {
	if r == nil || r.orders == nil {
		return nil, errors.New("order repository not initialised")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("order list: %s is required", field)
	}
	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, len(docs))
	for i, doc := range docs {
		orders[i] = doc.Data.toDomain(doc.ID)
	}
	return orders, nil
}

// UpdateStatus transitions the order within the closed status set. Terminal
// orders reject any further change.
func (r *OrderRepository) UpdateStatus(ctx context.Context, req repositories.OrderStatusUpdateRequest) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return domain.Order{}, errors.New("order update: id is required")
	}

	now := req.Now.UTC()
	var updated domain.Order
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.orders.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return pfirestore.WrapError("orders.get", err)
			}
			return err
		}
		doc, err := decodeOrder(snap)
		if err != nil {
			return err
		}

		order := doc.toDomain(orderID)
		if err := domain.ApplyOrderStatus(&order, req.Status, now); err != nil {
			return err
		}
		if err := tx.Set(ref, newOrderDocument(order)); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderClosed) || errors.Is(err, domain.ErrInvalidTransition) {
			return domain.Order{}, err
		}
		return domain.Order{}, pfirestore.WrapError("orders.updateStatus", err)
	}
	return updated, nil
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
