package tool

import (
	"context"
	"time"

	"github.com/hupe1980/agentloop/logging"
)

// FunctionToolOptions configures a FunctionTool.
type FunctionToolOptions struct {
	// ReturnDirect makes the tool output the final answer of the call.
	ReturnDirect bool
	// Logger receives tool.call.* entries (defaults to NoOpLogger).
	Logger logging.Logger
}

// FunctionTool is a generic adapter that exposes a plain Go function as a Tool.
//
// Responsibilities:
//   - Holds the name / description rendered into the agent prompt
//   - Invokes the wrapped function with the raw model supplied input
//   - Logs start, success and failure with the elapsed duration
//
// Errors returned by the function are passed through unchanged; the executor
// wraps them into *core.ToolExecutionError.
//
// Concurrency:
//
//	A FunctionTool has no internal mutable state after construction and is safe for
//	concurrent use as long as the wrapped function is.
type FunctionTool struct {
	name         string
	description  string
	returnDirect bool
	logger       logging.Logger
	fn           func(ctx context.Context, input string) (string, error)
}

// NewFunctionTool constructs a FunctionTool.
//
// Example:
//
//	echo := tool.NewFunctionTool(
//	  "Echo",
//	  "Repeats the input back. Useful for testing.",
//	  func(_ context.Context, input string) (string, error) { return input, nil },
//	)
func NewFunctionTool(
	name, description string,
	fn func(ctx context.Context, input string) (string, error),
	optFns ...func(o *FunctionToolOptions),
) *FunctionTool {
	opts := FunctionToolOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, f := range optFns {
		f(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &FunctionTool{
		name:         name,
		description:  description,
		returnDirect: opts.ReturnDirect,
		logger:       opts.Logger,
		fn:           fn,
	}
}

// Name returns the tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the prompt description.
func (t *FunctionTool) Description() string { return t.description }

// ReturnDirect reports whether the output short-circuits the loop.
func (t *FunctionTool) ReturnDirect() bool { return t.returnDirect }

// Call invokes the wrapped function.
//
// Logging Fields:
//
//	tool: tool name
//	duration_ms: execution time in milliseconds
func (t *FunctionTool) Call(ctx context.Context, input string) (string, error) {
	start := time.Now()

	t.logger.Debug("tool.call.start", "tool", t.name)

	out, err := t.fn(ctx, input)
	if err != nil {
		t.logger.Error("tool.call.error", "tool", t.name, "error", err.Error())
		return "", err
	}

	t.logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return out, nil
}
