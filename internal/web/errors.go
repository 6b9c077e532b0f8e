package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure goes through respondError, which:
//  1. maps the error with core.MapError to a user message and support code
//  2. picks the status code from the same mapping (statusFor)
//  3. logs the technical error with the request id
//  4. renders the message as JSON, or as an HTML fragment for HTMX

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/scanmaster/internal/core"
	"github.com/JonMunkholm/scanmaster/internal/logging"
	"github.com/JonMunkholm/scanmaster/internal/web/templates"
)

var (
	errNoFile         = errors.New("no file provided")
	errInvalidRequest = errors.New("invalid request")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

func newErrorResponse(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:     msg.Message,
		Message:   msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		Retryable: msg.Retryable,
	}
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, errInvalidRequest) || errors.Is(err, errNoFile) {
		return http.StatusBadRequest
	}

	msg := core.MapError(err)
	switch {
	case msg.Code == "IMP006":
		return http.StatusRequestEntityTooLarge
	case msg.Code == "SCN002":
		return http.StatusNotFound
	case msg.Retryable:
		return http.StatusServiceUnavailable
	case strings.HasPrefix(msg.Code, "SCN"), strings.HasPrefix(msg.Code, "IMP"), msg.Code == "EXP002":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	logArgs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", logArgs...)
	} else {
		logger.Warn("request error", logArgs...)
	}

	if userMsg.Retryable {
		w.Header().Set("Retry-After", "5")
	}

	if isHTMX(r) {
		renderErrorPartial(w, r, userMsg, status)
		return
	}
	writeJSON(w, r, status, newErrorResponse(userMsg))
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error alert", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
