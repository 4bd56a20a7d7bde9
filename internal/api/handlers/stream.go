package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// streamWriter encodes turn records as SSE data frames. Each record is
// flushed as soon as it is written so partial content reaches the client
// immediately, in production order.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newStreamWriter(w http.ResponseWriter) (*streamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	return &streamWriter{w: w, flusher: flusher}, nil
}

func (s *streamWriter) send(record map[string]any) {
	payload, _ := json.Marshal(record)
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flusher.Flush()
}

// Start opens a turn. Emitted exactly once per turn.
func (s *streamWriter) Start(messageID string) {
	s.send(map[string]any{"type": "start", "messageId": messageID})
}

func (s *streamWriter) TextStart(id string) {
	s.send(map[string]any{"type": "text-start", "id": id})
}

func (s *streamWriter) TextDelta(id, delta string) {
	s.send(map[string]any{"type": "text-delta", "id": id, "delta": delta})
}

func (s *streamWriter) TextEnd(id string) {
	s.send(map[string]any{"type": "text-end", "id": id})
}

func (s *streamWriter) Finish() {
	s.send(map[string]any{"type": "finish", "finishReason": "stop"})
}

// Error is terminal: it replaces whatever records the turn still owed.
func (s *streamWriter) Error(message string) {
	s.send(map[string]any{"type": "error", "error": message})
}
