// Package respond centralizes JSON response writing and error mapping.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/krishisahai/sahai/internal/model"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

// WriteServiceError maps domain sentinel errors onto HTTP status codes.
// Unrecognized errors become 500 with a generic message so internals never
// leak to clients.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrForbidden):
		WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrConflict):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}
