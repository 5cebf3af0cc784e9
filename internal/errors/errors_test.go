package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_Creation(t *testing.T) {
	message := "component not found"
	err := NewNotFoundError(message)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
}

func TestNotFoundError_IsNotFoundError(t *testing.T) {
	err := NewNotFoundError("test not found")

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.NotNil(t, notFoundErr)
	assert.Equal(t, "test not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_WithOtherError(t *testing.T) {
	err := errors.New("some other error")

	notFoundErr, ok := IsNotFoundError(err)
	assert.False(t, ok)
	assert.Nil(t, notFoundErr)
}

func TestValidationError_Creation(t *testing.T) {
	message := "validation failed"
	details := []ValidationDetail{
		{Field: "quantity", Message: "must be positive"},
		{Field: "type", Message: "unknown movement type"},
	}

	err := NewValidationError(message, details...)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
	assert.Len(t, err.Details, 2)
}

func TestInsufficientStockError_Creation(t *testing.T) {
	err := NewInsufficientStockError(12, 10, 4)

	assert.Equal(t, 12, err.ComponentID)
	assert.Equal(t, 10, err.Requested)
	assert.Equal(t, 4, err.Available)
	assert.Contains(t, err.Error(), "component 12")
	assert.Contains(t, err.Error(), "requested 10")
	assert.Contains(t, err.Error(), "available 4")
}

func TestInsufficientStockError_IsInsufficientStockError(t *testing.T) {
	err := NewInsufficientStockError(1, 2, 0)

	stockErr, ok := IsInsufficientStockError(err)
	assert.True(t, ok)
	assert.NotNil(t, stockErr)

	_, ok = IsInsufficientStockError(errors.New("other"))
	assert.False(t, ok)
}

func TestInvalidAllocationStateError(t *testing.T) {
	err := NewInvalidAllocationStateError("allocation 5 is completed")

	stateErr, ok := IsInvalidAllocationStateError(err)
	assert.True(t, ok)
	assert.Equal(t, "allocation 5 is completed", stateErr.Error())

	_, ok = IsInvalidAllocationStateError(errors.New("other"))
	assert.False(t, ok)
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("bom item already allocated")

	conflictErr, ok := IsConflictError(err)
	assert.True(t, ok)
	assert.Equal(t, "bom item already allocated", conflictErr.Error())
}

func TestDeadlockError(t *testing.T) {
	err := NewDeadlockError("max retries exceeded")

	deadlockErr, ok := IsDeadlockError(err)
	assert.True(t, ok)
	assert.Equal(t, "max retries exceeded", deadlockErr.Error())

	_, ok = IsDeadlockError(errors.New("other"))
	assert.False(t, ok)
}

func TestInternalError_Creation(t *testing.T) {
	cause := errors.New("database error")
	err := NewInternalError("failed to query database", cause)

	assert.NotNil(t, err)
	assert.Equal(t, "failed to query database", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "failed to query database")
	assert.Contains(t, err.Error(), "database error")
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}
