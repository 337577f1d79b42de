package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/console/internal/core"
	"github.com/JonMunkholm/console/internal/logging"
	"github.com/JonMunkholm/console/internal/web/components"
)

// errorBody is the JSON error shape. Code is stable for clients; Message and
// Action are for people.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type responseFormat int

const (
	formatPage responseFormat = iota
	formatFragment
	formatJSON
)

// negotiate picks how an error is rendered. HTMX swaps get a fragment,
// except history restores which need the whole page.
func negotiate(r *http.Request) responseFormat {
	switch {
	case isHTMX(r):
		return formatFragment
	case strings.Contains(r.Header.Get("Accept"), "application/json"),
		strings.Contains(r.Header.Get("Content-Type"), "application/json"),
		strings.HasPrefix(r.URL.Path, "/healthz"),
		strings.HasPrefix(r.URL.Path, "/audit"):
		return formatJSON
	}
	return formatPage
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-History-Restore-Request") != "true"
}

// respondError logs err with the request context and answers with its
// user-facing message. Client errors log at warn.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err,
	)

	writeUserMessage(w, r, msg, status)
}

// respondStatus answers with status and message without logging, for
// rejections that happen before any handler work.
func respondStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeUserMessage(w, r, core.MapError(errors.New(message)), status)
}

func writeUserMessage(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	switch negotiate(r) {
	case formatJSON:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(errorBody{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
	case formatFragment:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		components.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		components.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	}
}
