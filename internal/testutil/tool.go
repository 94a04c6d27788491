package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agentloop/tool"
)

// StubTool is a configurable tool that records its inputs.
type StubTool struct {
	ToolName        string
	ToolDescription string
	Direct          bool
	Result          string
	Err             error
	Panic           any

	mu     sync.Mutex
	inputs []string
}

var _ tool.Tool = (*StubTool)(nil)

// NewStubTool creates a tool that always returns result.
func NewStubTool(name, result string) *StubTool {
	return &StubTool{ToolName: name, ToolDescription: "useful for " + name, Result: result}
}

// NewFailingTool creates a tool whose every call fails with err.
func NewFailingTool(name string, err error) *StubTool {
	return &StubTool{ToolName: name, ToolDescription: "always fails", Err: err}
}

// Name implements tool.Tool.
func (t *StubTool) Name() string { return t.ToolName }

// Description implements tool.Tool.
func (t *StubTool) Description() string { return t.ToolDescription }

// ReturnDirect implements tool.Tool.
func (t *StubTool) ReturnDirect() bool { return t.Direct }

// Call implements tool.Tool.
func (t *StubTool) Call(_ context.Context, input string) (string, error) {
	t.mu.Lock()
	t.inputs = append(t.inputs, input)
	t.mu.Unlock()

	if t.Panic != nil {
		panic(t.Panic)
	}
	if t.Err != nil {
		return "", t.Err
	}
	return t.Result, nil
}

// Inputs returns the inputs received so far.
func (t *StubTool) Inputs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.inputs...)
}
