package repositories

import "fmt"

// ModerationErrorCode enumerates repository error causes for moderation operations.
type ModerationErrorCode string

const (
	// ModerationErrorUnknown represents an unspecified failure.
	ModerationErrorUnknown ModerationErrorCode = "moderation_unknown"
	// ModerationErrorStoreNotFound indicates the store document is missing.
	ModerationErrorStoreNotFound ModerationErrorCode = "moderation_store_not_found"
	// ModerationErrorProductNotFound indicates the product document is missing.
	ModerationErrorProductNotFound ModerationErrorCode = "moderation_product_not_found"
	// ModerationErrorInvalidState indicates the lifecycle state forbids the transition.
	ModerationErrorInvalidState ModerationErrorCode = "moderation_invalid_state"
	// ModerationErrorEmptyCatalog indicates a submission with no products.
	ModerationErrorEmptyCatalog ModerationErrorCode = "moderation_empty_catalog"
	// ModerationErrorSuspended indicates the store is suspended and blocks the action.
	ModerationErrorSuspended ModerationErrorCode = "moderation_suspended"
	// ModerationErrorNotAllowed indicates a cross-entity rule forbids the action.
	ModerationErrorNotAllowed ModerationErrorCode = "moderation_not_allowed"
)

// ModerationError wraps moderation-specific failures with machine readable codes.
type ModerationError struct {
	Op      string
	Code    ModerationErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ModerationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *ModerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewModerationError constructs a typed moderation error.
func NewModerationError(code ModerationErrorCode, message string, err error) *ModerationError {
	if message == "" {
		message = string(code)
	}
	return &ModerationError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
