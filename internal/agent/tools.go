package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

// AccessTokenArg is the reserved argument key the auth middleware fills in
// before a credential-bound tool runs.
const AccessTokenArg = "access_token"

// Tool is an external capability the agent may invoke mid-turn.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON schema for the tool's arguments.
	Parameters() map[string]any
	// RequiresAuth reports whether calls need calendar credentials injected.
	RequiresAuth() bool
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// FunctionDeclaration is the wire form of a tool advertised to the backend.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolRegistry holds the tools available to the agent, in registration order.
type ToolRegistry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry(tools ...Tool) *ToolRegistry {
	r := &ToolRegistry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; !exists {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Declarations returns every registered tool as a function declaration.
func (r *ToolRegistry) Declarations() []FunctionDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decls := make([]FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		decls = append(decls, FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return decls
}

// Invoker executes one tool call.
type Invoker func(ctx context.Context, tool Tool, args map[string]any) (map[string]any, error)

// Middleware wraps an Invoker with cross-cutting behavior.
type Middleware func(Invoker) Invoker

// BaseInvoker calls the tool directly.
func BaseInvoker(ctx context.Context, tool Tool, args map[string]any) (map[string]any, error) {
	return tool.Call(ctx, args)
}

// Chain composes middleware around base so the first middleware listed runs
// outermost.
func Chain(base Invoker, mws ...Middleware) Invoker {
	inv := base
	for i := len(mws) - 1; i >= 0; i-- {
		inv = mws[i](inv)
	}
	return inv
}

// TokenSource yields a valid access token for a (user, provider) pair, or ""
// when the user has no usable credentials.
type TokenSource interface {
	GetValidToken(ctx context.Context, userID, provider string) (string, error)
}

// CalendarAuth injects a valid access token into credential-bound tool calls
// and converts their failures into structured results the model can narrate.
// Tools that don't require auth pass through untouched.
//
// A failed token lookup injects an empty string instead of aborting: the tool
// call fails cleanly downstream and the failure path produces an actionable
// "connect your calendar" result rather than a swallowed turn.
func CalendarAuth(tokens TokenSource, provider string, authURL func(userID string) string) Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, tool Tool, args map[string]any) (map[string]any, error) {
			if !tool.RequiresAuth() {
				return next(ctx, tool, args)
			}

			userID := UserIDFrom(ctx)
			access, err := tokens.GetValidToken(ctx, userID, provider)
			if err != nil {
				log.Printf("⚠️ Token lookup failed for user %s: %v", userID, err)
				access = ""
			}
			if args == nil {
				args = map[string]any{}
			}
			args[AccessTokenArg] = access

			result, err := next(ctx, tool, args)
			if err != nil {
				return authFailureResult(args, userID, authURL, err), nil
			}
			return result, nil
		}
	}
}

// authFailureResult classifies a tool error. Credential failures (or calls
// that ran with an empty injected token) become a need_auth result carrying a
// reauthorization URL; everything else becomes a generic failure result.
func authFailureResult(args map[string]any, userID string, authURL func(string) string, err error) map[string]any {
	injected, _ := args[AccessTokenArg].(string)
	msg := strings.ToLower(err.Error())
	if injected == "" || strings.Contains(msg, "credential") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "unauthenticated") {
		log.Printf("🔐 Calendar call needs authorization for user %s: %v", userID, err)
		return map[string]any{
			"success":   false,
			"error":     "Google Calendar access has not been authorized",
			"need_auth": true,
			"user_id":   userID,
			"auth_url":  authURL(userID),
		}
	}
	log.Printf("⚠️ Calendar tool failed for user %s: %v", userID, err)
	return map[string]any{
		"success": false,
		"error":   fmt.Sprintf("calendar operation failed: %v", err),
	}
}
