package httputil

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "mithril/internal/errors"
)

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Status    int                          `json:"status"`
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// WriteError maps the error taxonomy onto HTTP statuses. Unknown errors are
// reported as opaque 500s.
func WriteError(w http.ResponseWriter, logger *zap.Logger, traceID string, err error) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		writeError(w, logger, traceID, http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, ve.Details)
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		writeError(w, logger, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		writeError(w, logger, traceID, http.StatusConflict, "CONFLICT", err.Error(), nil)
		return
	}
	if _, ok := apperrors.IsInsufficientStockError(err); ok {
		writeError(w, logger, traceID, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", err.Error(), nil)
		return
	}
	if _, ok := apperrors.IsInvalidAllocationStateError(err); ok {
		writeError(w, logger, traceID, http.StatusConflict, "INVALID_ALLOCATION_STATE", err.Error(), nil)
		return
	}
	if _, ok := apperrors.IsDeadlockError(err); ok {
		writeError(w, logger, traceID, http.StatusConflict, "DEADLOCK", err.Error(), nil)
		return
	}

	logger.Error("unexpected error", zap.String("traceId", traceID), zap.Error(err))
	writeError(w, logger, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}

func writeError(w http.ResponseWriter, logger *zap.Logger, traceID string, status int, code, message string, details []apperrors.ValidationDetail) {
	WriteJSON(w, logger, status, ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}
