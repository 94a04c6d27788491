package core

import (
	"context"

	"github.com/google/uuid"

	"github.com/hupe1980/agentloop/logging"
)

// RunContext carries the execution scope of a single executor call:
//   - The ambient cancellation Context
//   - The RunID correlating logs, traces and observer notifications
//   - The caller supplied Inputs (read-only)
//
// A RunContext is created per call and never shared between concurrent
// calls. Log helpers attach the run_id attribute automatically; Logger
// returns the run-scoped logger for optional interfaces such as
// logging.CallRecorder.
type RunContext struct {
	Context context.Context
	RunID   string
	Inputs  Values

	*loggerAdapter
}

// NewRunContext constructs a RunContext with a fresh run ID.
func NewRunContext(ctx context.Context, inputs Values, logger logging.Logger) *RunContext {
	runID := NewRunID()

	// A structured logger carries the run id itself.
	var adapter *loggerAdapter
	if sl, ok := logger.(*logging.StructuredLogger); ok && sl != nil {
		adapter = newLoggerAdapter(sl.WithRun(runID))
	} else {
		adapter = newLoggerAdapter(logger, "run_id", runID)
	}

	return &RunContext{
		Context:       ctx,
		RunID:         runID,
		Inputs:        inputs,
		loggerAdapter: adapter,
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// NewRunID generates a new unique identifier for a call.
func NewRunID() string { return uuid.NewString() }
