package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventline/internal/domain"
)

// Reasons used in API error responses, one per status class.
const (
	ReasonNotFound      = "The required object was not found"
	ReasonConflict      = "Integrity constraint has been violated"
	ReasonBadRequest    = "Incorrectly made request"
	ReasonUnavailable   = "Required service is not available"
	ReasonInternalError = "Internal server error"
)

const timestampLayout = "2006-01-02 15:04:05"

// APIError is the error body returned by every endpoint.
// swagger:model APIError
type APIError struct {
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// WriteJSON sets Content-Type to application/json, writes statusCode, and
// encodes payload as the response body.
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes an APIError body with the given status code, reason, and
// message. The status field carries the HTTP status text, the timestamp the
// server time.
func WriteError(w http.ResponseWriter, statusCode int, reason, message string) {
	WriteJSON(w, statusCode, APIError{
		Status:    http.StatusText(statusCode),
		Reason:    reason,
		Message:   message,
		Timestamp: time.Now().Format(timestampLayout),
	})
}

// WriteDomainError translates a domain error into the API error body:
// ErrNotFound to 404, ConflictError to 409, ErrInvalidInput to 400,
// ServiceUnavailableError to 503, anything else to 500. Internals of
// unexpected errors are logged, not leaked.
func WriteDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflict *domain.ConflictError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, ReasonNotFound, "The required object was not found")
	case errors.As(err, &conflict):
		WriteError(w, http.StatusConflict, ReasonConflict, conflict.Message)
	case errors.Is(err, domain.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, ReasonBadRequest, err.Error())
	case domain.IsUnavailable(err):
		WriteError(w, http.StatusServiceUnavailable, ReasonUnavailable, err.Error())
	default:
		logger.Error("unhandled error", "err", err)
		WriteError(w, http.StatusInternalServerError, ReasonInternalError, "An unexpected error occurred")
	}
}

// Validator is implemented by request DTOs that support validation.
// Validate returns a slice of error messages; nil or empty means valid.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate decodes the request body into dest (with
// DisallowUnknownFields) and, if dest implements Validator, runs Validate().
// On decode or validation failure it writes a 400 error body and returns
// false. Callers should return immediately when it returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		WriteError(w, http.StatusBadRequest, ReasonBadRequest, err.Error())
		return false
	}
	if v, ok := dest.(Validator); ok {
		if errs := v.Validate(); len(errs) > 0 {
			WriteError(w, http.StatusBadRequest, ReasonBadRequest, strings.Join(errs, "; "))
			return false
		}
	}
	return true
}
