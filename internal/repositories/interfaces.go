package repositories

import (
	"context"
	"time"

	domain "github.com/marketfront/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StoreRepository persists store documents and seller-facing projections.
type StoreRepository interface {
	Insert(ctx context.Context, store domain.Store) error
	FindByID(ctx context.Context, storeID string) (domain.Store, error)
	FindAggregate(ctx context.Context, storeID string) (domain.StoreAggregate, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Store, error)
	ListPendingReview(ctx context.Context) ([]domain.StoreAggregate, error)
}

// ProductRepository persists product documents and applies seller edits
// atomically against the owning store's current state.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Product, error)
	// ListPendingSecondWave returns products awaiting individual review whose
	// store is already published.
	ListPendingSecondWave(ctx context.Context) ([]domain.Product, error)
	// ApplyUpdate re-reads the product and its store inside one transaction,
	// applies the update via the domain rules, and persists the result.
	ApplyUpdate(ctx context.Context, req ProductUpdateRequest) (domain.Product, error)
	// SetVisibility toggles IsActive under the cross-entity visibility rules.
	SetVisibility(ctx context.Context, req ProductVisibilityRequest) (domain.Product, error)
	// Withdraw soft-removes the product by returning it to draft state.
	Withdraw(ctx context.Context, productID string, now time.Time) (domain.Product, error)
}

// ProductUpdateRequest carries a seller edit to be applied transactionally.
type ProductUpdateRequest struct {
	ProductID string
	StoreID   string
	Update    domain.ProductUpdate
	Now       time.Time
}

// ProductVisibilityRequest toggles storefront visibility for a product.
type ProductVisibilityRequest struct {
	ProductID string
	StoreID   string
	Active    bool
	Now       time.Time
}

// ModerationRepository applies moderation decisions as atomic units: the
// status transition, any cascade to child products, the failure counter and
// the audit record all commit together or not at all.
type ModerationRepository interface {
	SubmitStore(ctx context.Context, req SubmitStoreRequest) (StoreModerationResult, error)
	ApproveStore(ctx context.Context, req ReviewStoreRequest) (StoreModerationResult, error)
	RejectStore(ctx context.Context, req ReviewStoreRequest) (StoreModerationResult, error)
	ApproveProduct(ctx context.Context, req ReviewProductRequest) (ProductModerationResult, error)
	RejectProduct(ctx context.Context, req ReviewProductRequest) (ProductModerationResult, error)
}

// SubmitStoreRequest asks for a store (re)submission with its cascade.
type SubmitStoreRequest struct {
	StoreID string
	Now     time.Time
}

// ReviewStoreRequest carries a store-level moderation decision. Record is the
// prepared audit entry persisted in the same transaction.
type ReviewStoreRequest struct {
	StoreID  string
	Record   domain.ReviewRecord
	Recovery time.Duration
	Now      time.Time
}

// ReviewProductRequest carries a product-level moderation decision.
type ReviewProductRequest struct {
	ProductID string
	Record    domain.ReviewRecord
	Recovery  time.Duration
	Now       time.Time
}

// StoreModerationResult returns the post-transition aggregate state.
type StoreModerationResult struct {
	Store     domain.Store
	Products  []domain.Product
	Escalated bool
}

// ProductModerationResult returns the post-transition product and store.
type ProductModerationResult struct {
	Product   domain.Product
	Store     domain.Store
	Escalated bool
}

// CheckoutRepository executes the order placement transaction: every read
// that informs the decision and every resulting write happens inside a single
// isolated transaction, so concurrent placements can never jointly oversell
// stock or double-spend a balance.
type CheckoutRepository interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error)
}

// PlaceOrderRequest carries a validated, merged order request. Lines must
// already be merged by product id; DetailID generates ids for order details.
type PlaceOrderRequest struct {
	OrderID  string
	BuyerID  string
	StoreID  string
	Lines    []domain.OrderLine
	Shipping domain.ShippingInfo
	DetailID func() string
	Now      time.Time
}

// PlaceOrderResult returns the persisted order and the buyer's new balance.
type PlaceOrderResult struct {
	Order   domain.Order
	Balance int64
}

// OrderRepository reads order documents and applies restricted status updates.
type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Order, error)
	// UpdateStatus applies the closed-set status transition atomically.
	UpdateStatus(ctx context.Context, req OrderStatusUpdateRequest) (domain.Order, error)
}

// OrderStatusUpdateRequest carries a restricted order status change.
type OrderStatusUpdateRequest struct {
	OrderID string
	Status  domain.OrderStatus
	Now     time.Time
}

// BuyerRepository persists buyer balance documents.
type BuyerRepository interface {
	Insert(ctx context.Context, buyer domain.Buyer) error
	FindByID(ctx context.Context, buyerID string) (domain.Buyer, error)
}

// ReviewRecordRepository reads the append-only moderation audit trail. Writes
// happen inside moderation transactions; records are never mutated.
type ReviewRecordRepository interface {
	ListByTarget(ctx context.Context, target domain.ReviewTarget, targetID string) ([]domain.ReviewRecord, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.ReviewRecord, error)
}
