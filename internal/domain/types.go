package domain

import (
	"fmt"
	"time"
)

// StoreStatus enumerates the moderation lifecycle states of a store.
type StoreStatus string

const (
	// StoreStatusDraft indicates the store has been created but not submitted for review.
	StoreStatusDraft StoreStatus = "draft"
	// StoreStatusPendingReview indicates the store awaits a moderation decision.
	StoreStatusPendingReview StoreStatus = "pending_review"
	// StoreStatusRejected indicates the store failed review and may be resubmitted.
	StoreStatusRejected StoreStatus = "rejected"
	// StoreStatusPublished indicates the store passed review and is live.
	StoreStatusPublished StoreStatus = "published"
	// StoreStatusSuspended indicates the store is blocked pending administrative recovery.
	StoreStatusSuspended StoreStatus = "suspended"
)

// Store is the seller-owned storefront aggregate root.
type Store struct {
	ID              string
	SellerID        string
	Name            string
	Description     string
	Status          StoreStatus
	ReviewFailCount int
	SubmittedAt     *time.Time
	RecoverAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProductStatus enumerates the moderation lifecycle states of a product.
type ProductStatus string

const (
	// ProductStatusDraft indicates the product has not been submitted for review.
	ProductStatusDraft ProductStatus = "draft"
	// ProductStatusPendingReview indicates the product awaits a moderation decision.
	ProductStatusPendingReview ProductStatus = "pending_review"
	// ProductStatusRejected indicates the product failed review.
	ProductStatusRejected ProductStatus = "rejected"
	// ProductStatusPublished indicates the product passed review.
	ProductStatusPublished ProductStatus = "published"
)

// Product is a sellable catalog entry owned by a store. Price is expressed in
// minor currency units (two fraction digits); no floating point is used for
// monetary values anywhere in the system.
type Product struct {
	ID           string
	StoreID      string
	Name         string
	Description  string
	Price        int64
	Quantity     int
	Location     string
	ImagePath    string
	EndDate      *time.Time
	Status       ProductStatus
	IsActive     bool
	RejectReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Purchasable reports whether the product may appear in a buyer order.
func (p Product) Purchasable() bool {
	return p.Status == ProductStatusPublished && p.IsActive && p.Quantity > 0
}

// OrderStatus enumerates valid lifecycle states for buyer orders.
type OrderStatus string

const (
	// OrderStatusCreated indicates the order has been placed and funds moved to pending settlement.
	OrderStatusCreated OrderStatus = "created"
	// OrderStatusPaid indicates payment has been acknowledged.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusCancelled indicates the order was cancelled. Terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusCompleted indicates the order reached fulfilment. Terminal.
	OrderStatusCompleted OrderStatus = "completed"
)

// Terminal reports whether no further status transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusCompleted
}

// ShippingInfo carries the receiver fields captured at order time.
type ShippingInfo struct {
	ReceiverName  string
	ReceiverPhone string
	Address       string
}

// Order is the buyer order header. TotalAmount equals the sum of the detail
// subtotals at creation time and is never recomputed afterwards.
type Order struct {
	ID          string
	BuyerID     string
	StoreID     string
	TotalAmount int64
	Shipping    ShippingInfo
	Status      OrderStatus
	Items       []OrderDetail
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// OrderDetail is a single order line. ProductName and UnitPrice are snapshots
// taken at purchase time so later product edits do not alter historical orders.
type OrderDetail struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	UnitPrice   int64
	Quantity    int
	Subtotal    int64
}

// OrderLine is a requested (productID, quantity) pair prior to validation.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// ReviewTarget identifies which entity kind a review record refers to.
type ReviewTarget string

const (
	// ReviewTargetStore marks a review record against a store.
	ReviewTargetStore ReviewTarget = "store"
	// ReviewTargetProduct marks a review record against a product.
	ReviewTargetProduct ReviewTarget = "product"
)

// ReviewResult captures the outcome of a moderation decision.
type ReviewResult string

const (
	// ReviewResultPass indicates the target was approved.
	ReviewResultPass ReviewResult = "pass"
	// ReviewResultFail indicates the target was rejected.
	ReviewResultFail ReviewResult = "fail"
)

// ReviewRecord is the append-only audit trail entry written for every
// moderation decision. Records are never mutated or deleted.
type ReviewRecord struct {
	ID         string
	Target     ReviewTarget
	TargetID   string
	StoreID    string
	ReviewerID string
	Result     ReviewResult
	Comment    string
	CreatedAt  time.Time
}

// Buyer carries the spendable balance for an externally supplied buyer id.
// Identity is opaque; the record exists to hold the balance in minor units.
type Buyer struct {
	ID        string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoreAggregate couples a store with its loaded products so moderation
// cascades can be applied and persisted as one unit.
type StoreAggregate struct {
	Store    Store
	Products []Product
}

// FormatAmount renders a minor-unit amount as a decimal string with two
// fraction digits, e.g. 30000 -> "300.00".
func FormatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
