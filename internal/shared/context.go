package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the loaded session to the request context.
// The session middleware does this once per request; handlers read it
// back with SessionFromContext.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the request session, or nil outside the
// session middleware.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
