package domain

import (
	"errors"
	"time"
)

// StoreFailThreshold is the cumulative review-failure count at which a store
// is suspended instead of merely rejected.
const StoreFailThreshold = 5

var (
	// ErrInvalidTransition indicates the requested change is illegal from the current state.
	ErrInvalidTransition = errors.New("moderation: invalid transition")
	// ErrEmptyCatalog indicates a store submission with no products.
	ErrEmptyCatalog = errors.New("moderation: store has no products")
	// ErrStoreSuspended indicates the owning store is suspended and blocks the action.
	ErrStoreSuspended = errors.New("moderation: store suspended")
	// ErrStoreNotPublished indicates a product action that requires a published store.
	ErrStoreNotPublished = errors.New("moderation: store not published")
	// ErrNotAllowed indicates a cross-entity rule forbids the action.
	ErrNotAllowed = errors.New("moderation: not allowed")
	// ErrOrderClosed indicates a status change on a terminal order.
	ErrOrderClosed = errors.New("order: closed")
)

// Submit moves a draft or rejected store into pending review and cascades the
// transition to every first-wave product still in draft or rejected state.
// Products already published or already pending are left untouched.
func (agg *StoreAggregate) Submit(now time.Time) error {
	store := &agg.Store
	if store.Status == StoreStatusSuspended {
		return ErrStoreSuspended
	}
	if store.Status != StoreStatusDraft && store.Status != StoreStatusRejected {
		return ErrInvalidTransition
	}
	if len(agg.Products) == 0 {
		return ErrEmptyCatalog
	}

	store.Status = StoreStatusPendingReview
	store.SubmittedAt = &now
	store.UpdatedAt = now

	for i := range agg.Products {
		p := &agg.Products[i]
		if p.Status == ProductStatusDraft || p.Status == ProductStatusRejected {
			p.Status = ProductStatusPendingReview
			p.IsActive = false
			p.UpdatedAt = now
		}
	}
	return nil
}

// Approve publishes a pending store, resets its failure counter, and cascades
// approval to every product still pending review. First-wave products are
// approved together with their store as a single editorial decision.
func (agg *StoreAggregate) Approve(now time.Time) error {
	store := &agg.Store
	if store.Status != StoreStatusPendingReview {
		return ErrInvalidTransition
	}

	store.Status = StoreStatusPublished
	store.ReviewFailCount = 0
	store.UpdatedAt = now

	for i := range agg.Products {
		p := &agg.Products[i]
		if p.Status == ProductStatusPendingReview {
			p.Status = ProductStatusPublished
			p.IsActive = true
			p.RejectReason = ""
			p.UpdatedAt = now
		}
	}
	return nil
}

// Reject fails a pending store review and registers the failure against the
// store counter. It reports whether the failure escalated to suspension.
func (agg *StoreAggregate) Reject(now time.Time, recovery time.Duration) (bool, error) {
	store := &agg.Store
	if store.Status == StoreStatusSuspended {
		return false, ErrStoreSuspended
	}
	if store.Status != StoreStatusPendingReview {
		return false, ErrInvalidTransition
	}

	store.Status = StoreStatusRejected
	store.UpdatedAt = now
	return RegisterReviewFailure(store, now, recovery), nil
}

// RegisterReviewFailure increments the store failure counter and escalates to
// suspension once the threshold is reached. Both store-level and product-level
// rejections funnel through this single function so the escalation rule cannot
// drift between call sites.
func RegisterReviewFailure(store *Store, now time.Time, recovery time.Duration) bool {
	store.ReviewFailCount++
	store.UpdatedAt = now
	if store.ReviewFailCount < StoreFailThreshold {
		return false
	}
	store.Status = StoreStatusSuspended
	if recovery > 0 {
		recoverAt := now.Add(recovery)
		store.RecoverAt = &recoverAt
	}
	return true
}

// ApproveProduct publishes an individually reviewed product. The product must
// be pending review and its store must already be published; a product cannot
// be reviewed while its store is itself under review or suspended.
func ApproveProduct(store *Store, product *Product, now time.Time) error {
	if store.Status == StoreStatusSuspended {
		return ErrStoreSuspended
	}
	if store.Status != StoreStatusPublished {
		return ErrStoreNotPublished
	}
	if product.Status != ProductStatusPendingReview {
		return ErrInvalidTransition
	}

	product.Status = ProductStatusPublished
	product.IsActive = true
	product.RejectReason = ""
	product.UpdatedAt = now
	return nil
}

// RejectProduct fails an individually reviewed product and counts the failure
// against the owning store, applying the same escalation rule as store-level
// rejection. It reports whether the store was suspended as a result.
func RejectProduct(store *Store, product *Product, reason string, now time.Time, recovery time.Duration) (bool, error) {
	if store.Status == StoreStatusSuspended {
		return false, ErrStoreSuspended
	}
	if store.Status != StoreStatusPublished {
		return false, ErrStoreNotPublished
	}
	if product.Status != ProductStatusPendingReview {
		return false, ErrInvalidTransition
	}

	product.Status = ProductStatusRejected
	product.IsActive = false
	product.RejectReason = reason
	product.UpdatedAt = now
	return RegisterReviewFailure(store, now, recovery), nil
}

// SetProductVisibility toggles the storefront visibility flag. Only published
// products of a non-suspended store may be toggled.
func SetProductVisibility(store *Store, product *Product, active bool, now time.Time) error {
	if store.Status == StoreStatusSuspended {
		return ErrNotAllowed
	}
	if product.Status != ProductStatusPublished {
		return ErrNotAllowed
	}
	product.IsActive = active
	product.UpdatedAt = now
	return nil
}

// ProductUpdate carries the optional field changes for a product edit. Nil
// pointers leave the corresponding field untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *int64
	Quantity    *int
	Location    *string
	ImagePath   *string
	EndDate     *time.Time
}

// ApplyProductUpdate mutates the product with the requested changes and
// reports whether a material field changed. Name and primary image are
// material and force the product back into review; price, quantity,
// description, location and end date may change freely. The classification is
// fixed and applies identically on every entry point.
func ApplyProductUpdate(product *Product, upd ProductUpdate, now time.Time) bool {
	material := false

	if upd.Name != nil && *upd.Name != product.Name {
		product.Name = *upd.Name
		material = true
	}
	if upd.ImagePath != nil && *upd.ImagePath != product.ImagePath {
		product.ImagePath = *upd.ImagePath
		material = true
	}

	if upd.Price != nil {
		product.Price = *upd.Price
	}
	if upd.Quantity != nil {
		product.Quantity = *upd.Quantity
	}
	if upd.Description != nil {
		product.Description = *upd.Description
	}
	if upd.Location != nil {
		product.Location = *upd.Location
	}
	if upd.EndDate != nil {
		product.EndDate = upd.EndDate
	}

	if material {
		product.Status = ProductStatusPendingReview
		product.IsActive = false
		product.RejectReason = ""
	}
	product.UpdatedAt = now
	return material
}

// ApplyOrderStatus transitions an order within the closed status set. Once an
// order is cancelled or completed it is terminal; completion stamps
// CompletedAt.
func ApplyOrderStatus(order *Order, target OrderStatus, now time.Time) error {
	switch target {
	case OrderStatusCreated, OrderStatusPaid, OrderStatusCancelled, OrderStatusCompleted:
	default:
		return ErrInvalidTransition
	}
	if order.Status.Terminal() {
		return ErrOrderClosed
	}
	order.Status = target
	order.UpdatedAt = now
	if target == OrderStatusCompleted {
		order.CompletedAt = &now
	}
	return nil
}
