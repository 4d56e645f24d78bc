// internal/handler/respond.go
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string         `json:"error"`
	Code  appErrors.Code `json:"code"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as an ErrorResponse with the status its code maps to.
func WriteError(w http.ResponseWriter, err error) {
	code := appErrors.CodeOf(err)
	WriteJSON(w, StatusFor(code), ErrorResponse{Error: appErrors.MessageOf(err), Code: code})
}

// StatusFor maps a rejection code to an HTTP status.
func StatusFor(code appErrors.Code) int {
	switch code {
	case appErrors.CodeSchedulingConflict:
		return http.StatusConflict
	case appErrors.CodeMissingName, appErrors.CodeInvalidDateFormat, appErrors.CodeInvalidRange,
		appErrors.CodeModelUnavailable, appErrors.CodeExtractionFailure:
		return http.StatusUnprocessableEntity
	case appErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case appErrors.CodeCampaignNotFound:
		return http.StatusNotFound
	case appErrors.CodeGenerationTimeout:
		return http.StatusGatewayTimeout
	case appErrors.CodeGenerationError:
		return http.StatusBadGateway
	case appErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case appErrors.CodeCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsJSON reports whether the request body is JSON rather than a form.
func IsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
