package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yutinghan/calendar-assistant/internal/agent"
	"github.com/yutinghan/calendar-assistant/internal/logging"
)

// DefaultBaseURL is the Gemini API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Runner streams turns through the Gemini generateContent API. Model text
// deltas are emitted as events; functionCall parts are executed through the
// tool invoker (which carries the auth interceptor) and their results fed
// back until the model produces a plain-text reply.
type Runner struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cfg        agent.Config
	tools      *agent.ToolRegistry
	invoke     agent.Invoker
	sessions   *agent.Registry
}

// Options configures a Runner.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Config     agent.Config
	Tools      *agent.ToolRegistry
	Invoker    agent.Invoker
	Sessions   *agent.Registry
}

// NewRunner creates a Gemini-backed runner.
func NewRunner(o Options) *Runner {
	baseURL := o.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := o.HTTPClient
	if httpClient == nil {
		// Long timeout: streaming responses can stay open for a while.
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	invoke := o.Invoker
	if invoke == nil {
		invoke = agent.BaseInvoker
	}
	return &Runner{
		baseURL:    baseURL,
		apiKey:     o.APIKey,
		httpClient: httpClient,
		cfg:        o.Config,
		tools:      o.Tools,
		invoke:     invoke,
		sessions:   o.Sessions,
	}
}

type generateRequest struct {
	Contents          []agent.Content `json:"contents"`
	SystemInstruction *agent.Content  `json:"systemInstruction,omitempty"`
	Tools             []toolDecls     `json:"tools,omitempty"`
}

type toolDecls struct {
	FunctionDeclarations []agent.FunctionDeclaration `json:"functionDeclarations"`
}

type generateResponse struct {
	Candidates []struct {
		Content agent.Content `json:"content"`
	} `json:"candidates"`
}

// Run executes one turn. The session must already exist in the registry; the
// finished turn (user input, model replies, tool traffic) is appended to it.
func (r *Runner) Run(ctx context.Context, inv agent.Invocation, emit func(agent.Event)) error {
	sess, ok := r.sessions.Get(agent.Key{App: inv.AppName, UserID: inv.UserID, SessionID: inv.SessionID})
	if !ok {
		return fmt.Errorf("session %s not found", inv.SessionID)
	}

	history := sess.History()
	contents := append(history, agent.Content{
		Role:  "user",
		Parts: []agent.Part{{Text: inv.Text}},
	})

	for round := 0; ; round++ {
		reply, err := r.streamGenerate(ctx, contents, emit)
		if err != nil {
			return err
		}
		contents = append(contents, reply)

		calls := functionCalls(reply)
		if len(calls) == 0 {
			break
		}
		if round >= r.cfg.MaxToolTurns {
			return fmt.Errorf("tool loop exceeded %d rounds", r.cfg.MaxToolTurns)
		}

		responses := make([]agent.Part, 0, len(calls))
		for _, call := range calls {
			responses = append(responses, agent.Part{
				FunctionResponse: &agent.FunctionResponse{
					Name:     call.Name,
					Response: r.executeCall(ctx, call),
				},
			})
		}
		contents = append(contents, agent.Content{Role: "user", Parts: responses})
	}

	sess.Append(contents[len(history):]...)
	return nil
}

// executeCall runs one tool call, converting any surviving error into a
// failure result the model can narrate.
func (r *Runner) executeCall(ctx context.Context, call agent.FunctionCall) map[string]any {
	tool, ok := r.tools.Get(call.Name)
	if !ok {
		log.Printf("⚠️ %sModel requested unknown tool %q", logging.Prefix(ctx), call.Name)
		return map[string]any{"success": false, "error": "unknown tool: " + call.Name}
	}

	log.Printf("🔧 %sTool call: %s", logging.Prefix(ctx), call.Name)
	result, err := r.invoke(ctx, tool, call.Args)
	if err != nil {
		log.Printf("⚠️ %sTool %s failed: %v", logging.Prefix(ctx), call.Name, err)
		return map[string]any{"success": false, "error": err.Error()}
	}
	return result
}

// streamGenerate performs one streaming model call, emitting text deltas as
// they arrive and returning the assembled model reply.
func (r *Runner) streamGenerate(ctx context.Context, contents []agent.Content, emit func(agent.Event)) (agent.Content, error) {
	reqBody := generateRequest{Contents: contents}
	if r.cfg.Instruction != "" {
		reqBody.SystemInstruction = &agent.Content{
			Parts: []agent.Part{{Text: r.cfg.Instruction}},
		}
	}
	if r.tools != nil {
		if decls := r.tools.Declarations(); len(decls) > 0 {
			reqBody.Tools = []toolDecls{{FunctionDeclarations: decls}}
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return agent.Content{}, err
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", r.baseURL, r.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return agent.Content{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return agent.Content{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return agent.Content{}, fmt.Errorf("model API error (status %d): %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}

	reply := agent.Content{Role: "model"}
	var text strings.Builder

	// Large buffer: single SSE frames can carry sizeable candidates.
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log.Printf("⚠️ Skipping unparseable stream chunk: %v", err)
			continue
		}
		if len(chunk.Candidates) == 0 {
			continue
		}

		for _, part := range chunk.Candidates[0].Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
				emit(agent.Event{Text: part.Text})
			}
			if part.FunctionCall != nil {
				reply.Parts = append(reply.Parts, agent.Part{FunctionCall: part.FunctionCall})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return agent.Content{}, fmt.Errorf("stream read failed: %w", err)
	}

	if text.Len() > 0 {
		// Collapse the streamed fragments into one text part for the history.
		reply.Parts = append([]agent.Part{{Text: text.String()}}, reply.Parts...)
	}
	return reply, nil
}

func functionCalls(content agent.Content) []agent.FunctionCall {
	var calls []agent.FunctionCall
	for _, part := range content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, *part.FunctionCall)
		}
	}
	return calls
}
