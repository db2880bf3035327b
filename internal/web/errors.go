package web

// errors.go turns handler and pipeline errors into responses.
//
// Every error is logged with its technical detail and request ID, then mapped
// through core.MapError to a message, an action and a support code. HTMX
// requests get an alert fragment, API requests get JSON and anything else a
// plain text body.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/catalog-import/internal/core"
	"github.com/JonMunkholm/catalog-import/internal/logging"
	"github.com/JonMunkholm/catalog-import/internal/web/templates"
)

// Request errors raised before the pipeline runs. Their texts match the
// patterns core.MapError knows.
var (
	errFileTooLarge   = errors.New("file too large")
	errNoFile         = errors.New("no file provided")
	errInvalidMapping = errors.New("invalid mapping")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an import error.
func statusFor(err error) int {
	var parseErr *core.ParseError
	var commitErr *core.CommitError
	switch {
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &commitErr):
		return http.StatusBadGateway
	case errors.As(err, &parseErr),
		errors.Is(err, errNoFile),
		errors.Is(err, errInvalidMapping),
		errors.Is(err, core.ErrUnknownHeader),
		errors.Is(err, core.ErrInvalidTarget):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyImports),
		errors.Is(err, core.ErrLockTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped message with statusFor(err).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	logFn := log.Warn
	if status >= http.StatusInternalServerError {
		logFn = log.Error
	}
	logFn("request error",
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "10")
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		respondErrorJSON(w, msg, status)
	default:
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client asked for JSON. API routes default to it.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
