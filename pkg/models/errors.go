package models

import "errors"

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindUnauthenticated
	KindNotFound
	KindForbidden
	KindConflict
	KindPersistence
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence_failure"
	case KindDependency:
		return "dependency_failure"
	default:
		return "unknown"
	}
}

// Error is a classified sentinel. Compare with errors.Is.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Kind() Kind { return e.kind }

var (
	ErrInvalidRequest    = newError(KindInvalidRequest, "invalid request")
	ErrUnauthenticated   = newError(KindUnauthenticated, "authentication required")
	ErrItemUnavailable   = newError(KindInvalidRequest, "menu item is not available")
	ErrInvalidStatus     = newError(KindInvalidRequest, "invalid order status")
	ErrItemNotFound      = newError(KindNotFound, "menu item not found")
	ErrOrderNotFound     = newError(KindNotFound, "order not found")
	ErrVendorNotFound    = newError(KindNotFound, "vendor not found")
	ErrCustomerNotFound  = newError(KindNotFound, "customer not found")
	ErrForbidden         = newError(KindForbidden, "access denied")
	ErrInsufficientStock = newError(KindConflict, "insufficient stock")
	ErrInvalidTransition = newError(KindConflict, "status transition not allowed")
	ErrDuplicateRequest  = newError(KindConflict, "request with this idempotency key is in progress")
	ErrOrderNumberTaken  = newError(KindConflict, "order number already exists")
	ErrPersistence       = newError(KindPersistence, "persistence failure")
	ErrDependency        = newError(KindDependency, "dependency failure")
)

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}
