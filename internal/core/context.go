package core

import "context"

type sessionKey struct{}

// WithSessionID tags ctx with the conversation session it serves.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the session tag of ctx, or "" when untagged.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
