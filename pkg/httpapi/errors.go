// Package httpapi exposes the catalog mutation protocol, the media upload
// gateway and the storefront read side over JSON/HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/media"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	WriteJSON(w, status, jsonError{Message: message, Error: details})
}

// Outcome is the caller-facing classification of an error.
type Outcome struct {
	Status  int
	Message string
	// Detail carries the underlying cause for server-side failures.
	Detail string
}

// Classify maps protocol and gateway errors to HTTP outcomes.
func Classify(err error) Outcome {
	switch {
	case errors.Is(err, core.ErrInvalidPayload):
		return Outcome{Status: http.StatusBadRequest, Message: "Invalid JSON payload"}
	case errors.Is(err, core.ErrUnauthorized):
		return Outcome{Status: http.StatusUnauthorized, Message: "Unauthorized - invalid API key"}
	case errors.Is(err, core.ErrValidation):
		return Outcome{Status: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, core.ErrProductNotFound):
		return Outcome{Status: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, core.ErrDuplicateID):
		return Outcome{Status: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, core.ErrConflict):
		return Outcome{Status: http.StatusConflict, Message: "Conflict: products.json was modified by someone else. Please refresh and try again."}
	case errors.Is(err, core.ErrServerMisconfigured):
		return Outcome{Status: http.StatusInternalServerError, Message: "Server misconfigured: catalog store rejected its credentials", Detail: err.Error()}
	case errors.Is(err, core.ErrStoreUnavailable):
		return Outcome{Status: http.StatusInternalServerError, Message: "Catalog store unavailable", Detail: err.Error()}

	case errors.Is(err, media.ErrUnsupportedFormat),
		errors.Is(err, media.ErrPayloadTooLarge),
		errors.Is(err, media.ErrUpstreamRejected):
		return Outcome{Status: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, media.ErrNotConfigured), errors.Is(err, media.ErrUpstreamAuth):
		return Outcome{Status: http.StatusInternalServerError, Message: "Server misconfigured: media service credentials", Detail: err.Error()}
	case errors.Is(err, media.ErrTransientIO):
		return Outcome{Status: http.StatusInternalServerError, Message: "Failed to upload image", Detail: err.Error()}
	}
	return Outcome{Status: http.StatusInternalServerError, Message: "Internal server error", Detail: err.Error()}
}

// writeError classifies err and writes it.
func writeError(w http.ResponseWriter, err error) {
	o := Classify(err)
	WriteJSONError(w, o.Status, o.Message, o.Detail)
}
