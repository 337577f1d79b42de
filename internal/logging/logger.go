// Package logging configures log/slog and carries request-scoped fields.
//
// FromContext picks up chi's request ID plus any fields attached with
// ContextWith, so every line logged while serving a request can be
// correlated by request and by console session.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the default logger, writing to stdout.
//
// level is one of debug, info, warn or error (default info). format is
// "json" for production log shipping; anything else selects text.
func Setup(level, format string) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, level, format)))
}

// NewHandler builds the handler Setup installs, writing to w.
func NewHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type fieldsKey struct{}

// ContextWith returns a context whose FromContext loggers include args.
// Fields accumulate across calls.
func ContextWith(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	prev, _ := ctx.Value(fieldsKey{}).([]any)
	fields := make([]any, 0, len(prev)+len(args))
	fields = append(fields, prev...)
	fields = append(fields, args...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// FromContext returns the default logger with the request ID and any
// ContextWith fields attached.
//
//	logging.FromContext(r.Context()).Info("rendering grid", "feature", f.Key)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if fields, ok := ctx.Value(fieldsKey{}).([]any); ok {
		logger = logger.With(fields...)
	}
	return logger
}

// WithFields is FromContext(ctx).With(args...), for loggers that follow one
// operation through several steps.
//
//	log := logging.WithFields(ctx, "feature", f.Key, "action", actionID)
//	log.Info("bulk action requested", "selected", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
