package checkout

import (
	"errors"
	"fmt"
)

// ErrSignatureMismatch means the payment callback failed HMAC verification.
// Nothing downstream of the check may run when this is returned.
var ErrSignatureMismatch = errors.New("payment signature mismatch")

// ValidationError rejects a checkout request before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError means the caller is not the owner of the order they are
// trying to act on.
type AuthorizationError struct {
	OrderID string
	UserID  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s is not authorized for order %s", e.UserID, e.OrderID)
}

// ConsistencyError is returned when the payment signature verified but the
// local confirmation transaction could not commit: money has moved remotely
// while the order is still unpaid here. The identifiers are what an operator
// needs for manual reconciliation.
type ConsistencyError struct {
	OrderID         string
	UserID          string
	RemotePaymentID string
	Err             error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("payment %s captured but order %s (user %s) not confirmed: %v",
		e.RemotePaymentID, e.OrderID, e.UserID, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }
