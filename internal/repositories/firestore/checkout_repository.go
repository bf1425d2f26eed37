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

const (
	ordersCollection = "orders"
	buyersCollection = "buyers"
)

// CheckoutRepository executes order placement as a single Firestore
// transaction. Every read informing the decision happens before any write, so
// concurrent placements against the same product or balance serialize: one
// commits, the other retries against fresh state and revalidates.
type CheckoutRepository struct {
	provider *pfirestore.Provider
	stores   *pfirestore.BaseRepository[storeDocument]
	products *pfirestore.BaseRepository[productDocument]
	buyers   *pfirestore.BaseRepository[buyerDocument]
	orders   *pfirestore.BaseRepository[orderDocument]
}

// NewCheckoutRepository constructs a Firestore backed checkout repository.
func NewCheckoutRepository(provider *pfirestore.Provider) (*CheckoutRepository, error) {
	if provider == nil {
		return nil, errors.New("checkout repository requires firestore provider")
	}
	return &CheckoutRepository{
		provider: provider,
		stores:   pfirestore.NewBaseRepository[storeDocument](provider, storesCollection, nil, nil),
		products: pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil),
		buyers:   pfirestore.NewBaseRepository[buyerDocument](provider, buyersCollection, nil, nil),
		orders:   pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil),
	}, nil
}

// PlaceOrder validates and persists the order atomically. Validation inside
// the transaction follows a fixed precedence: store availability, product
// availability, stock, buyer existence, funds. The first violation aborts the
// transaction with nothing written.
func (r *CheckoutRepository) PlaceOrder(ctx context.Context, req repositories.PlaceOrderRequest) (repositories.PlaceOrderResult, error) {
	if r == nil || r.provider == nil {
		return repositories.PlaceOrderResult{}, errors.New("checkout repository not initialised")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return repositories.PlaceOrderResult{}, errors.New("checkout: order id is required")
	}
	if req.DetailID == nil {
		return repositories.PlaceOrderResult{}, errors.New("checkout: detail id generator is required")
	}

	now := req.Now.UTC()
	var result repositories.PlaceOrderResult
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Reads first. Firestore forbids reads after the first write, which
		// conveniently matches the validation precedence.
		store, err := r.readStore(ctx, tx, req.StoreID)
		if err != nil {
			return err
		}
		if store.Status != domain.StoreStatusPublished {
			return repositories.NewCheckoutError(repositories.CheckoutErrorStoreUnavailable, fmt.Sprintf("store %s is not open for orders", req.StoreID), nil)
		}

		type pickedProduct struct {
			ref     *firestore.DocumentRef
			product domain.Product
			line    domain.OrderLine
		}
		picked := make([]pickedProduct, 0, len(req.Lines))
		for _, line := range req.Lines {
			ref, err := r.products.DocumentRef(ctx, line.ProductID)
			if err != nil {
				return err
			}
			snap, err := tx.Get(ref)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return repositories.NewCheckoutError(repositories.CheckoutErrorProductUnavailable, fmt.Sprintf("product %s is not available", line.ProductID), err)
				}
				return err
			}
			doc, err := decodeProduct(snap)
			if err != nil {
				return err
			}
			product := doc.toDomain(line.ProductID)
			if err := validateLineProduct(product, line, store.ID, now); err != nil {
				return err
			}
			picked = append(picked, pickedProduct{ref: ref, product: product, line: line})
		}

		buyerRef, err := r.buyers.DocumentRef(ctx, req.BuyerID)
		if err != nil {
			return err
		}
		buyerSnap, err := tx.Get(buyerRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewCheckoutError(repositories.CheckoutErrorBuyerNotFound, fmt.Sprintf("buyer %s not found", req.BuyerID), err)
			}
			return err
		}
		buyerDoc, err := decodeBuyer(buyerSnap)
		if err != nil {
			return err
		}
		buyer := buyerDoc.toDomain(req.BuyerID)

		details := make([]domain.OrderDetail, len(picked))
		var total int64
		for i, p := range picked {
			subtotal := p.product.Price * int64(p.line.Quantity)
			details[i] = domain.OrderDetail{
				ID:          req.DetailID(),
				OrderID:     req.OrderID,
				ProductID:   p.line.ProductID,
				ProductName: p.product.Name,
				UnitPrice:   p.product.Price,
				Quantity:    p.line.Quantity,
				Subtotal:    subtotal,
			}
			total += subtotal
		}
		if buyer.Balance < total {
			return repositories.NewCheckoutError(repositories.CheckoutErrorInsufficientFunds, fmt.Sprintf("balance %s below order total %s", domain.FormatAmount(buyer.Balance), domain.FormatAmount(total)), nil)
		}

		// All validations passed; writes commit together or not at all.
		for _, p := range picked {
			p.product.Quantity -= p.line.Quantity
			p.product.UpdatedAt = now
			if err := tx.Set(p.ref, newProductDocument(p.product)); err != nil {
				return err
			}
		}

		buyer.Balance -= total
		buyer.UpdatedAt = now
		if err := tx.Set(buyerRef, newBuyerDocument(buyer)); err != nil {
			return err
		}

		order := domain.Order{
			ID:          req.OrderID,
			BuyerID:     req.BuyerID,
			StoreID:     req.StoreID,
			TotalAmount: total,
			Shipping:    req.Shipping,
			Status:      domain.OrderStatusCreated,
			Items:       details,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		orderRef, err := r.orders.DocumentRef(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if err := tx.Create(orderRef, newOrderDocument(order)); err != nil {
			return err
		}

		result = repositories.PlaceOrderResult{Order: order, Balance: buyer.Balance}
		return nil
	})
	if err != nil {
		return repositories.PlaceOrderResult{}, wrapCheckoutError("checkout.placeOrder", err)
	}
	return result, nil
}

func (r *CheckoutRepository) readStore(ctx context.Context, tx *firestore.Transaction, storeID string) (domain.Store, error) {
	ref, err := r.stores.DocumentRef(ctx, storeID)
	if err != nil {
		return domain.Store{}, err
	}
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Store{}, repositories.NewCheckoutError(repositories.CheckoutErrorStoreUnavailable, fmt.Sprintf("store %s not found", storeID), err)
		}
		return domain.Store{}, err
	}
	doc, err := decodeStore(snap)
	if err != nil {
		return domain.Store{}, err
	}
	return doc.toDomain(storeID), nil
}

// validateLineProduct applies the per-product checks in placement precedence.
// Zero stock counts as unavailable rather than short: InsufficientStock is
// reserved for listings that still carry stock, just less than requested.
func validateLineProduct(product domain.Product, line domain.OrderLine, storeID string, now time.Time) error {
	if product.StoreID != storeID {
		return repositories.NewCheckoutError(repositories.CheckoutErrorProductUnavailable, fmt.Sprintf("product %s does not belong to store %s", line.ProductID, storeID), nil)
	}
	if product.Status != domain.ProductStatusPublished || !product.IsActive {
		return repositories.NewCheckoutError(repositories.CheckoutErrorProductUnavailable, fmt.Sprintf("product %s is not available", line.ProductID), nil)
	}
	if product.EndDate != nil && !product.EndDate.After(now) {
		return repositories.NewCheckoutError(repositories.CheckoutErrorProductUnavailable, fmt.Sprintf("product %s listing has ended", line.ProductID), nil)
	}
	if product.Quantity <= 0 {
		return repositories.NewCheckoutError(repositories.CheckoutErrorProductUnavailable, fmt.Sprintf("product %s is out of stock", line.ProductID), nil)
	}
	if product.Quantity < line.Quantity {
		return repositories.NewCheckoutError(repositories.CheckoutErrorInsufficientStock, fmt.Sprintf("product %s has %d left, %d requested", line.ProductID, product.Quantity, line.Quantity), nil)
	}
	return nil
}

func wrapCheckoutError(op string, err error) error {
	if err == nil {
		return nil
	}
	var checkoutErr *repositories.CheckoutError
	if errors.As(err, &checkoutErr) {
		if checkoutErr.Op == "" {
			checkoutErr.Op = op
		}
		return checkoutErr
	}
	wrapped := pfirestore.WrapError(op, err)
	// Retry exhaustion on a contended transaction surfaces as a conflict from
	// the platform layer. Recode it so callers can tell "lost the race" apart
	// from an infrastructure failure.
	var repoErr repositories.RepositoryError
	if errors.As(wrapped, &repoErr) && repoErr.IsConflict() {
		return &repositories.CheckoutError{
			Op:      op,
			Code:    repositories.CheckoutErrorConflict,
			Message: "placement lost a concurrent update race",
			Err:     wrapped,
		}
	}
	return wrapped
}

// Document structures -------------------------------------------------------

type buyerDocument struct {
	Balance   int64     `firestore:"balance"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newBuyerDocument(buyer domain.Buyer) buyerDocument {
	return buyerDocument{
		Balance:   buyer.Balance,
		CreatedAt: buyer.CreatedAt.UTC(),
		UpdatedAt: buyer.UpdatedAt.UTC(),
	}
}

func (d buyerDocument) toDomain(id string) domain.Buyer {
	return domain.Buyer{
		ID:        id,
		Balance:   d.Balance,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func decodeBuyer(snap *firestore.DocumentSnapshot) (buyerDocument, error) {
	var doc buyerDocument
	if err := snap.DataTo(&doc); err != nil {
		return buyerDocument{}, fmt.Errorf("decode buyer %s: %w", snap.Ref.ID, err)
	}
	return doc, nil
}

type orderDocument struct {
	BuyerID       string              `firestore:"buyerId"`
	StoreID       string              `firestore:"storeId"`
	TotalAmount   int64               `firestore:"totalAmount"`
	ReceiverName  string              `firestore:"receiverName"`
	ReceiverPhone string              `firestore:"receiverPhone"`
	Address       string              `firestore:"address"`
	Status        string              `firestore:"status"`
	Items         []orderItemDocument `firestore:"items"`
	CreatedAt     time.Time           `firestore:"createdAt"`
	UpdatedAt     time.Time           `firestore:"updatedAt"`
	CompletedAt   *time.Time          `firestore:"completedAt,omitempty"`
}

type orderItemDocument struct {
	ID          string `firestore:"id"`
	ProductID   string `firestore:"productId"`
	ProductName string `firestore:"productName"`
	UnitPrice   int64  `firestore:"unitPrice"`
	Quantity    int    `firestore:"quantity"`
	Subtotal    int64  `firestore:"subtotal"`
}

func newOrderDocument(order domain.Order) orderDocument {
	items := make([]orderItemDocument, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderItemDocument{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		}
	}
	return orderDocument{
		BuyerID:       strings.TrimSpace(order.BuyerID),
		StoreID:       strings.TrimSpace(order.StoreID),
		TotalAmount:   order.TotalAmount,
		ReceiverName:  strings.TrimSpace(order.Shipping.ReceiverName),
		ReceiverPhone: strings.TrimSpace(order.Shipping.ReceiverPhone),
		Address:       strings.TrimSpace(order.Shipping.Address),
		Status:        string(order.Status),
		Items:         items,
		CreatedAt:     order.CreatedAt.UTC(),
		UpdatedAt:     order.UpdatedAt.UTC(),
		CompletedAt:   order.CompletedAt,
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	items := make([]domain.OrderDetail, len(d.Items))
	for i, item := range d.Items {
		items[i] = domain.OrderDetail{
			ID:          item.ID,
			OrderID:     id,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		}
	}
	return domain.Order{
		ID:          id,
		BuyerID:     d.BuyerID,
		StoreID:     d.StoreID,
		TotalAmount: d.TotalAmount,
		Shipping: domain.ShippingInfo{
			ReceiverName:  d.ReceiverName,
			ReceiverPhone: d.ReceiverPhone,
			Address:       d.Address,
		},
		Status:      domain.OrderStatus(d.Status),
		Items:       items,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		CompletedAt: d.CompletedAt,
	}
}

func decodeOrder(snap *firestore.DocumentSnapshot) (orderDocument, error) {
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return orderDocument{}, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
	}
	return doc, nil
}

var _ repositories.CheckoutRepository = (*CheckoutRepository)(nil)
