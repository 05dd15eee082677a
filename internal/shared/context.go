package shared

import (
	"context"
	"net/http"
)

type sessionContextKey struct{}

// ContextWithSession attaches the request session to ctx.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the session attached by the session middleware,
// or nil outside of it.
func SessionFromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// SessionFromRequest is SessionFromContext for the request context.
func SessionFromRequest(r *http.Request) *Session {
	return SessionFromContext(r.Context())
}
