package errors

import "fmt"

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	if ve, ok := err.(*ValidationError); ok {
		return ve, true
	}
	return nil, false
}

// InsufficientStockError rejects a debit that would drive a component's stock
// negative. The enclosing transaction rolls back; no partial mutation survives.
type InsufficientStockError struct {
	ComponentID int
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for component %d: requested %d, available %d", e.ComponentID, e.Requested, e.Available)
}

func NewInsufficientStockError(componentID, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		ComponentID: componentID,
		Requested:   requested,
		Available:   available,
	}
}

func IsInsufficientStockError(err error) (*InsufficientStockError, bool) {
	if se, ok := err.(*InsufficientStockError); ok {
		return se, true
	}
	return nil, false
}

// InvalidAllocationStateError rejects a transition attempted from a terminal
// allocation state, or a deallocation of a never-allocated item.
type InvalidAllocationStateError struct {
	Message string
}

func (e *InvalidAllocationStateError) Error() string {
	return e.Message
}

func NewInvalidAllocationStateError(message string) *InvalidAllocationStateError {
	return &InvalidAllocationStateError{Message: message}
}

func IsInvalidAllocationStateError(err error) (*InvalidAllocationStateError, bool) {
	if se, ok := err.(*InvalidAllocationStateError); ok {
		return se, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	if ne, ok := err.(*NotFoundError); ok {
		return ne, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	if ce, ok := err.(*ConflictError); ok {
		return ce, true
	}
	return nil, false
}

type DeadlockError struct {
	Message string
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func NewDeadlockError(message string) *DeadlockError {
	return &DeadlockError{Message: message}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	if de, ok := err.(*DeadlockError); ok {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
