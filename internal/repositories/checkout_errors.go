package repositories

import "fmt"

// CheckoutErrorCode enumerates repository error causes for order placement.
type CheckoutErrorCode string

const (
	// CheckoutErrorUnknown represents an unspecified failure.
	CheckoutErrorUnknown CheckoutErrorCode = "checkout_unknown"
	// CheckoutErrorStoreUnavailable indicates the store is missing or not published.
	CheckoutErrorStoreUnavailable CheckoutErrorCode = "checkout_store_unavailable"
	// CheckoutErrorProductUnavailable indicates a product is missing, not
	// published, inactive, out of stock, or belongs to another store.
	CheckoutErrorProductUnavailable CheckoutErrorCode = "checkout_product_unavailable"
	// CheckoutErrorInsufficientStock indicates the requested quantity exceeds stock.
	CheckoutErrorInsufficientStock CheckoutErrorCode = "checkout_insufficient_stock"
	// CheckoutErrorBuyerNotFound indicates the buyer document is missing.
	CheckoutErrorBuyerNotFound CheckoutErrorCode = "checkout_buyer_not_found"
	// CheckoutErrorInsufficientFunds indicates the buyer balance is below the total.
	CheckoutErrorInsufficientFunds CheckoutErrorCode = "checkout_insufficient_funds"
	// CheckoutErrorConflict indicates the transaction lost an optimistic race
	// and may be retried from scratch.
	CheckoutErrorConflict CheckoutErrorCode = "checkout_conflict"
)

// CheckoutError wraps order placement failures with machine readable codes.
type CheckoutError struct {
	Op      string
	Code    CheckoutErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CheckoutError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *CheckoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewCheckoutError constructs a typed checkout error.
func NewCheckoutError(code CheckoutErrorCode, message string, err error) *CheckoutError {
	if message == "" {
		message = string(code)
	}
	return &CheckoutError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
