package agent

import "context"

// Event is one item of a turn's streamed output.
type Event struct {
	Agent string // producing agent, when the backend reports a hand-off
	Text  string // content fragment; empty for pure notices
}

// Invocation carries one turn's input to the agent backend.
type Invocation struct {
	AppName   string
	UserID    string
	SessionID string
	Text      string
}

// Runner drives one turn against the agent backend, calling emit for each
// event in production order. A non-nil return aborts the turn; whatever was
// emitted before the failure has already reached the client.
type Runner interface {
	Run(ctx context.Context, inv Invocation, emit func(Event)) error
}

type ctxKey int

const userIDKey ctxKey = iota

// WithUserID attaches the calling user's id to the context so tool middleware
// can resolve credentials without the tool knowing about auth.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFrom returns the user id attached by WithUserID, or "".
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
