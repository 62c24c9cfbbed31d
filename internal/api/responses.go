package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the standard error envelope for the initiator-facing
// API (spec §7: "initiator APIs return {success, error}"). Webhook
// endpoints never use this — they always answer the carrier with markup
// or a bare 200, even on failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError writes a JSON error response in the {success:false, error}
// envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Error: msg})
}

// WriteErrorDetail writes a JSON error response with additional detail.
func WriteErrorDetail(w http.ResponseWriter, status int, msg, detail string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Error: msg, Detail: detail})
}

// ErrorCode names a stable machine-readable error category, distinct
// from the human-readable message, for API clients that branch on
// failure kind rather than parsing prose.
type ErrorCode string

const (
	ErrInvalidParameter ErrorCode = "invalid_parameter"
	ErrInvalidBody      ErrorCode = "invalid_body"
	ErrNotFound         ErrorCode = "not_found"
	ErrForbidden        ErrorCode = "forbidden"
	ErrRateLimited      ErrorCode = "rate_limited"
	ErrInternal         ErrorCode = "internal_error"
)

// CodedErrorResponse is ErrorResponse plus a stable error code.
type CodedErrorResponse struct {
	Success bool      `json:"success"`
	Code    ErrorCode `json:"code"`
	Error   string    `json:"error"`
}

// WriteErrorWithCode writes a JSON error response tagged with a stable
// ErrorCode, for middleware and handlers that want callers to branch on
// failure kind rather than parsing the message.
func WriteErrorWithCode(w http.ResponseWriter, status int, code ErrorCode, msg string) {
	WriteJSON(w, status, CodedErrorResponse{Success: false, Code: code, Error: msg})
}

// PathString extracts a string chi URL parameter, erroring if absent —
// used for callId/clientId path segments, which are opaque identifiers
// (UUIDs), not integers.
func PathString(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if v == "" {
		return "", fmt.Errorf("missing path parameter: %s", name)
	}
	return v, nil
}

// DecodeJSON reads and decodes a JSON request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}
