package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// StatusFor maps a domain error kind to its HTTP status.
func StatusFor(kind models.Kind) int {
	switch kind {
	case models.KindValidation, models.KindInsufficientFunds, models.KindInsufficientShares, models.KindNoPosition:
		return http.StatusBadRequest
	case models.KindAuth:
		return http.StatusUnauthorized
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return http.StatusConflict
	case models.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError writes err with the status for its kind. Errors that are
// not domain errors are logged and reported as a generic 500.
func WriteDomainError(w http.ResponseWriter, logger *common.Logger, err error) {
	var de *models.Error
	if !errors.As(err, &de) {
		if logger != nil {
			logger.Error().Err(err).Msg("Request failed")
		}
		WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	WriteJSON(w, StatusFor(de.Kind), map[string]string{
		"status": "error",
		"kind":   string(de.Kind),
		"error":  de.Message,
	})
}

// DecodeJSON reads a JSON request body into v. Malformed bodies are
// validation errors.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return models.Errorf(models.KindValidation, "request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return models.Errorf(models.KindValidation, "request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.Errorf(models.KindValidation, "request body too large")
		}
		return models.Errorf(models.KindValidation, "invalid JSON body: %v", err)
	}
	return nil
}
