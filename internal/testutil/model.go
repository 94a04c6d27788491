package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentloop/model"
)

// ScriptedModel replays a fixed list of completions in order and records
// every request it receives. Generating past the end of the script is an
// error so tests notice unexpected model calls.
//
// Example:
//
//	m := NewScriptedModel("Action: Search\nAction Input: x", "Final Answer: y")
type ScriptedModel struct {
	mu        sync.Mutex
	responses []string
	requests  []model.Request
}

// NewScriptedModel creates a model answering with responses in order.
func NewScriptedModel(responses ...string) *ScriptedModel {
	return &ScriptedModel{responses: responses}
}

// Generate implements model.Model.
func (m *ScriptedModel) Generate(_ context.Context, req model.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.requests)
	m.requests = append(m.requests, req)

	if idx >= len(m.responses) {
		return "", fmt.Errorf("scripted model exhausted after %d calls", len(m.responses))
	}

	return m.responses[idx], nil
}

// Info implements model.Model.
func (m *ScriptedModel) Info() model.Info { return model.Info{Name: "scripted", Provider: "mock"} }

// Calls returns the number of Generate invocations.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of all recorded requests.
func (m *ScriptedModel) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Request(nil), m.requests...)
}

// LastPrompt returns the flattened prompt of the most recent request.
func (m *ScriptedModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ""
	}
	return m.requests[len(m.requests)-1].Prompt()
}
