package auth

import "context"

// ContextKey is the context key for the authenticator.
var ContextKey = &struct{ string }{"auth"}

// FromContext returns the authenticator from the context.
func FromContext(ctx context.Context) *Authenticator {
	if a, ok := ctx.Value(ContextKey).(*Authenticator); ok {
		return a
	}
	return nil
}

// WithContext returns a new context with the authenticator.
func WithContext(ctx context.Context, a *Authenticator) context.Context {
	return context.WithValue(ctx, ContextKey, a)
}
