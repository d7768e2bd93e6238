package web

// errors.go turns service errors into JSON error responses.
//
// The error flow:
//  1. Handler receives an error from core.Service
//  2. Calls s.respondError(w, r, err)
//  3. statusFor picks the HTTP status from the error kind
//  4. The technical error is logged with the request id
//  5. The client gets {"error": ..., "code": ...}; domain errors keep their
//     own message, anything else is replaced by the mapped user message

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/csvviz/internal/core"
	"github.com/JonMunkholm/csvviz/internal/logging"
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps the core error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped JSON error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error: core.PublicMessage(err),
		Code:  userMsg.Code,
	})
}

// respondMessage writes an error that did not come from the service.
func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, http.StatusNotFound, "Endpoint not found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}
