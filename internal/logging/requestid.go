// Package logging carries a per-turn request ID through the context so log
// lines from the handler, the runner, and the tool layer can be correlated.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

type contextKey string

const requestIDKey contextKey = "requestId"

// GenerateRequestID creates an 8-character hex request ID.
func GenerateRequestID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFrom retrieves the request ID from the context.
// Returns empty string if not found.
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Prefix renders the context's request ID as a "[id] " log prefix, or an
// empty string when the context carries none.
func Prefix(ctx context.Context) string {
	id := RequestIDFrom(ctx)
	if id == "" {
		return ""
	}
	return fmt.Sprintf("[%s] ", id)
}
