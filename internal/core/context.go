package core

import "context"

type contextKey string

const (
	ctxKeySession     contextKey = "session_id"
	ctxKeyReviseValue contextKey = "revise_value"
	ctxKeyClientIP    contextKey = "client_ip"
)

// ContextWithSession adds the console session id to ctx.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySession, id)
}

// SessionFromContext extracts the console session id.
func SessionFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySession).(string); ok {
		return v
	}
	return ""
}

// ContextWithReviseValue carries the value picked in the bulk-revise menu
// to the revise action.
func ContextWithReviseValue(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, ctxKeyReviseValue, value)
}

// ReviseValueFromContext extracts the bulk-revise value.
func ReviseValueFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyReviseValue).(string)
	return v, ok
}

// ContextWithClientIP adds the requesting client's address to ctx.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// ClientIPFromContext extracts the client address.
func ClientIPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClientIP).(string); ok {
		return v
	}
	return ""
}
