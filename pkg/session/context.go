package session

import "context"

type (
	stateContextKey struct{}
	skipContextKey  struct{}
)

// WithState adds the request's session state to the context
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateContextKey{}, st)
}

// FromContext retrieves the session state from the context
func FromContext(ctx context.Context) (*State, bool) {
	st, ok := ctx.Value(stateContextKey{}).(*State)
	return st, ok && st != nil
}

// MustFromContext retrieves the session state from the context or panics
func MustFromContext(ctx context.Context) *State {
	st, ok := FromContext(ctx)
	if !ok {
		panic("session: state not found in context")
	}
	return st
}

// WithSkip marks the request so Manager.Load does not touch the store.
func WithSkip(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipContextKey{}, true)
}

// IsSkipped reports whether WithSkip was applied to ctx.
func IsSkipped(ctx context.Context) bool {
	skip, _ := ctx.Value(skipContextKey{}).(bool)
	return skip
}
