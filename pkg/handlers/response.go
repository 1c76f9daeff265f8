// Package handlers exposes the engine's HTTP API. One handler struct per
// resource, each registering its own routes on the mux.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response, logging encoding failures.
func writeError(logger *zap.Logger, w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeJSON writes a success response, logging encoding failures.
func writeJSON(logger *zap.Logger, w http.ResponseWriter, statusCode int, data interface{}) {
	if err := WriteJSON(w, statusCode, data); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeServiceError maps service-layer errors onto HTTP responses. Guidance
// errors carry their own status and remediation hints; sentinels map to 404
// and 400; anything else is logged and answered with a generic 500.
func writeServiceError(logger *zap.Logger, w http.ResponseWriter, err error) {
	if guidance, ok := apperrors.AsGuidance(err); ok {
		body := map[string]string{"error": guidance.Message}
		if guidance.Details != "" {
			body["details"] = guidance.Details
		}
		if guidance.Fix != "" {
			body["fix"] = guidance.Fix
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(guidance.Status)
		if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
			logger.Error("Failed to write error response", zap.Error(encErr))
		}
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(logger, w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, apperrors.ErrValidation):
		writeError(logger, w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		logger.Error("Request failed", zap.Error(err))
		writeError(logger, w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// decodeJSON decodes a request body into target, answering 400 itself on
// failure. Returns false when the handler should stop.
func decodeJSON(logger *zap.Logger, w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(logger, w, http.StatusBadRequest, "invalid_body", "Invalid JSON request body")
		return false
	}
	return true
}
