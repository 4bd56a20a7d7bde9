package agent

import "sync"

// Content is one entry of a session's turn history, in the wire shape the
// agent backend consumes.
type Content struct {
	Role  string `json:"role"` // "user" or "model"
	Parts []Part `json:"parts"`
}

// Part is one fragment of a Content entry.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Key identifies one session in the registry.
type Key struct {
	App       string
	UserID    string
	SessionID string
}

// Session holds the agent's working context for one conversation. It lives in
// process memory for the life of the process; durable history stays in the
// messages table and is used to reseed after a restart.
type Session struct {
	mu      sync.Mutex
	history []Content
}

// History returns a copy of the accumulated turn history.
func (s *Session) History() []Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Content, len(s.history))
	copy(out, s.history)
	return out
}

// Append adds finished turn content to the history.
func (s *Session) Append(items ...Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, items...)
}

// Registry is the process-wide session store, keyed by (app, user, session).
type Registry struct {
	mu       sync.Mutex
	sessions map[Key]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[Key]*Session)}
}

// Get returns the session for key if it exists.
func (r *Registry) Get(key Key) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// GetOrCreate returns the session for key, creating it atomically when absent
// so two concurrent first turns cannot race into separate sessions. seed runs
// only on creation and supplies rehydrated history from persisted messages.
// The bool reports whether a new session was created.
func (r *Registry) GetOrCreate(key Key, seed func() []Content) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		return s, false
	}
	s := &Session{}
	if seed != nil {
		s.history = seed()
	}
	r.sessions[key] = s
	return s, true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
