package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Role identifies the author of a prompt message.
type Role string

const (
	// RoleSystem carries instructions for chat-structured prompts.
	RoleSystem Role = "system"
	// RoleUser carries the question and the transcript.
	RoleUser Role = "user"
	// RoleAssistant carries prior model output.
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged prompt segment.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Messages []Message `json:"messages"`
	Stop     []string  `json:"stop,omitempty"` // Generation halts before any of these sequences
}

// NewTextRequest creates a single user message request.
func NewTextRequest(prompt string, stop ...string) Request {
	return Request{Messages: []Message{{Role: RoleUser, Text: prompt}}, Stop: stop}
}

// Prompt flattens the request messages into plain prompt text. Providers
// without role support and deterministic mocks key on this value.
func (r Request) Prompt() string {
	parts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n\n")
}

// System returns the concatenated system messages.
func (r Request) System() string {
	var parts []string
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			parts = append(parts, m.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "bedrock", "gemini", "mock"
}

// Model is the minimal interface required by agents to drive generation.
// Failures are fatal for the call that issued them.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// Func adapts an ordinary function to the Model interface.
type Func func(ctx context.Context, req Request) (string, error)

// Generate implements Model.
func (f Func) Generate(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// Info implements Model.
func (f Func) Info() Info { return Info{Name: "func", Provider: "func"} }

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are a fixed function of the prompt text, so repeated calls with
// identical prompts are deterministic.
type MockModel struct {
	info      Info
	mu        sync.RWMutex
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Generate implements Model; unknown prompts yield a "Mock response to" echo
// of the last message.
func (m *MockModel) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}

	m.mu.RLock()
	full, ok := m.responses[req.Prompt()]
	m.mu.RUnlock()
	if ok {
		return full, nil
	}

	return fmt.Sprintf("Mock response to: %s", req.Messages[len(req.Messages)-1].Text), nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
