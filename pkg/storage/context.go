package storage

import "context"

// ContextKey is the context key for the object store.
var ContextKey = &struct{ string }{"storage"}

// FromContext returns the object store from the context.
func FromContext(ctx context.Context) ObjectStore {
	if s, ok := ctx.Value(ContextKey).(ObjectStore); ok {
		return s
	}
	return nil
}

// WithContext returns a new context with the object store.
func WithContext(ctx context.Context, s ObjectStore) context.Context {
	return context.WithValue(ctx, ContextKey, s)
}
