// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/console/internal/logging"
)

// Logger is the access log. Every request is logged once it completes,
// through the request-scoped logger so entries carry the request ID.
//
// Log fields:
//   - method, path, status, bytes, duration_ms
//   - ip: client address (already rewritten by TrustedRealIP)
//   - htmx: whether the request came from HTMX, with hx_target and
//     hx_trigger when set
//
// Static assets and health checks log at debug, client errors at warn and
// server errors at error.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		}
		if r.Header.Get("HX-Request") == "true" {
			attrs = append(attrs, "htmx", true)
			if target := r.Header.Get("HX-Target"); target != "" {
				attrs = append(attrs, "hx_target", target)
			}
			if trigger := r.Header.Get("HX-Trigger"); trigger != "" {
				attrs = append(attrs, "hx_trigger", trigger)
			}
		} else {
			attrs = append(attrs, "user_agent", r.UserAgent())
		}

		logging.FromContext(r.Context()).Log(r.Context(), accessLevel(r.URL.Path, ww.status), "request", attrs...)
	})
}

// accessLevel picks the log level of a finished request.
func accessLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case strings.HasPrefix(path, "/static/"), path == "/healthz":
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// responseWriter wraps http.ResponseWriter to capture the status code and
// body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap gives http.ResponseController access to the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
