package services

import (
	"context"
	"time"

	domain "github.com/marketfront/api/internal/domain"
)

// StoreService covers the seller-facing storefront lifecycle: store creation,
// catalog management and submission for review.
type StoreService interface {
	CreateStore(ctx context.Context, cmd CreateStoreCommand) (domain.Store, error)
	GetStore(ctx context.Context, storeID string) (domain.StoreAggregate, error)
	ListStores(ctx context.Context, sellerID string) ([]domain.Store, error)
	SubmitStore(ctx context.Context, cmd SubmitStoreCommand) (domain.StoreAggregate, error)
	AddProduct(ctx context.Context, cmd AddProductCommand) (domain.Product, error)
	UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error)
	SetProductVisibility(ctx context.Context, cmd ProductVisibilityCommand) (domain.Product, error)
	WithdrawProduct(ctx context.Context, cmd WithdrawProductCommand) (domain.Product, error)
	UploadProductImage(ctx context.Context, cmd UploadProductImageCommand) (string, error)
}

// UploadProductImageCommand stores image bytes and returns the object path.
type UploadProductImageCommand struct {
	StoreID     string
	Filename    string
	ContentType string
	Data        []byte
}

// CreateStoreCommand captures a new store registration.
type CreateStoreCommand struct {
	SellerID    string
	Name        string
	Description string
}

// SubmitStoreCommand asks for a store (re)submission.
type SubmitStoreCommand struct {
	StoreID  string
	SellerID string
}

// AddProductCommand captures a new catalog entry. Price is in minor units.
type AddProductCommand struct {
	StoreID     string
	SellerID    string
	Name        string
	Description string
	Price       int64
	Quantity    int
	Location    string
	ImagePath   string
	EndDate     *time.Time
}

// UpdateProductCommand carries an edit; nil fields are left unchanged.
type UpdateProductCommand struct {
	ProductID   string
	StoreID     string
	SellerID    string
	Name        *string
	Description *string
	Price       *int64
	Quantity    *int
	Location    *string
	ImagePath   *string
	EndDate     *time.Time
}

// ProductVisibilityCommand toggles whether a published product is listed.
type ProductVisibilityCommand struct {
	ProductID string
	StoreID   string
	SellerID  string
	Active    bool
}

// WithdrawProductCommand soft-removes a product from sale.
type WithdrawProductCommand struct {
	ProductID string
	StoreID   string
	SellerID  string
}

// ModerationService exposes the reviewer workflow: queues of pending targets
// and the approve/reject decisions with their cascades.
type ModerationService interface {
	ListPendingStores(ctx context.Context) ([]domain.StoreAggregate, error)
	ListPendingProducts(ctx context.Context) ([]domain.Product, error)
	ApproveStore(ctx context.Context, cmd ReviewStoreCommand) (StoreReviewOutcome, error)
	RejectStore(ctx context.Context, cmd ReviewStoreCommand) (StoreReviewOutcome, error)
	ApproveProduct(ctx context.Context, cmd ReviewProductCommand) (ProductReviewOutcome, error)
	RejectProduct(ctx context.Context, cmd ReviewProductCommand) (ProductReviewOutcome, error)
	ListReviewRecords(ctx context.Context, storeID string) ([]domain.ReviewRecord, error)
	ListProductReviewRecords(ctx context.Context, productID string) ([]domain.ReviewRecord, error)
}

// ReviewStoreCommand carries a store-level moderation decision.
type ReviewStoreCommand struct {
	StoreID    string
	ReviewerID string
	Comment    string
}

// ReviewProductCommand carries a product-level moderation decision.
type ReviewProductCommand struct {
	ProductID  string
	ReviewerID string
	Comment    string
}

// StoreReviewOutcome reports the store state after a decision, including
// whether repeated failures escalated the store to suspension.
type StoreReviewOutcome struct {
	Store     domain.Store
	Products  []domain.Product
	Escalated bool
}

// ProductReviewOutcome reports the product and owning store after a decision.
type ProductReviewOutcome struct {
	Product   domain.Product
	Store     domain.Store
	Escalated bool
}

// CheckoutService validates and places buyer orders.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (OrderReceipt, error)
	RegisterBuyer(ctx context.Context, cmd RegisterBuyerCommand) (domain.Buyer, error)
	GetBuyer(ctx context.Context, buyerID string) (domain.Buyer, error)
}

// PlaceOrderCommand captures an order request before merging and validation.
type PlaceOrderCommand struct {
	BuyerID  string
	StoreID  string
	Lines    []OrderLineInput
	Shipping domain.ShippingInfo
}

// OrderLineInput is a raw requested line; duplicates are merged by product id.
type OrderLineInput struct {
	ProductID string
	Quantity  int
}

// RegisterBuyerCommand seeds a buyer balance record for an external identity.
type RegisterBuyerCommand struct {
	BuyerID string
	Balance int64
}

// OrderReceipt returns the placed order and the remaining buyer balance.
type OrderReceipt struct {
	Order   domain.Order
	Balance int64
}

// OrderService reads orders and applies the restricted status transitions.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, error)
	ListStoreOrders(ctx context.Context, storeID string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error)
}

// UpdateOrderStatusCommand carries a requested status change.
type UpdateOrderStatusCommand struct {
	OrderID string
	Status  string
}

// CatalogService serves the buyer-facing storefront projection: published
// stores and their active products only.
type CatalogService interface {
	Storefront(ctx context.Context, storeID string) (Storefront, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

// Storefront is the public projection of a published store.
type Storefront struct {
	Store    domain.Store
	Products []domain.Product
}

// ModerationEvent notifies downstream consumers of a moderation decision.
type ModerationEvent struct {
	Event      string
	Target     string
	TargetID   string
	StoreID    string
	ReviewerID string
	Result     string
	Escalated  bool
	OccurredAt time.Time
}

// ModerationEventPublisher accepts moderation notifications for downstream processing.
type ModerationEventPublisher interface {
	PublishModerationEvent(ctx context.Context, event ModerationEvent) error
}

// OrderEvent notifies downstream consumers of an order lifecycle change.
type OrderEvent struct {
	Event       string
	OrderID     string
	BuyerID     string
	StoreID     string
	TotalAmount int64
	Status      string
	OccurredAt  time.Time
}

// OrderEventPublisher accepts order notifications for downstream processing.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// ImageStore persists product imagery outside the document database.
type ImageStore interface {
	Save(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}
