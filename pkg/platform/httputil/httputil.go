// Package httputil centralizes JSON response writing and domain error
// translation so handlers stay thin and error envelopes stay consistent.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "resmatch/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to an HTTP error envelope. Internal errors
// omit the description so implementation detail never leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	if status != http.StatusInternalServerError {
		body["error_description"] = dErrors.MessageOf(err)
	}
	WriteJSON(w, status, body)
}

// ToHTTPStatus maps a domain error code to an HTTP status. Pipeline-side
// codes deliberately fall through to 500: they are never client faults.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
