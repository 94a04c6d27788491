package executor

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/observer"
	"github.com/hupe1980/agentloop/tool"
)

const (
	// IntermediateStepsKey holds the []core.Step transcript in call outputs.
	IntermediateStepsKey = "intermediateSteps"

	// DefaultMaxIterations is the default iteration budget.
	DefaultMaxIterations = 15

	// Unbounded disables the iteration budget.
	Unbounded = core.Unbounded

	tracerName = "github.com/hupe1980/agentloop/executor"
)

// Options configures an Executor.
type Options struct {
	// ReturnIntermediateSteps adds the transcript under IntermediateStepsKey
	// and suppresses Observer.OnFinish.
	ReturnIntermediateSteps bool
	// MaxIterations bounds the number of tool dispatches; Unbounded disables it.
	MaxIterations int
	// EarlyStoppingMethod selects how the stopped response is produced.
	EarlyStoppingMethod core.StoppingMethod
	// Observer receives OnAction / OnFinish notifications.
	Observer core.Observer
	// Logger receives executor.* events tagged with run_id.
	Logger logging.Logger
	// Tracer starts one span per call.
	Tracer trace.Tracer
}

// Executor runs an agent against a fixed set of tools.
type Executor struct {
	agent    agent.Agent
	registry *tool.Registry
	opts     Options
}

// New creates an Executor. It fails with *core.ConfigError when tool names
// collide, when a tool is not among the agent's allowed tools, when the
// agent declares no output keys or when MaxIterations is invalid.
func New(a agent.Agent, tools []tool.Tool, optFns ...func(o *Options)) (*Executor, error) {
	opts := Options{
		MaxIterations:       DefaultMaxIterations,
		EarlyStoppingMethod: core.StoppingMethodForce,
		Observer:            observer.NoOp{},
		Logger:              logging.NoOpLogger{},
		Tracer:              otel.Tracer(tracerName),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if a == nil {
		return nil, core.NewConfigError("agent", "an agent is required")
	}

	if len(a.OutputKeys()) == 0 {
		return nil, core.NewConfigError("agent", "the agent must declare at least one output key")
	}

	if opts.MaxIterations < Unbounded {
		return nil, core.NewConfigError("max_iterations", fmt.Sprintf("invalid value %d", opts.MaxIterations))
	}

	if opts.Observer == nil {
		opts.Observer = observer.NoOp{}
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	registry, err := tool.NewRegistry(tools...)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool)
	for _, name := range a.AllowedTools() {
		allowed[strings.ToLower(name)] = true
	}

	for _, name := range registry.Names() {
		if !allowed[strings.ToLower(name)] {
			return nil, core.NewConfigError("tools", fmt.Sprintf(
				"tool %q is not allowed by the agent (allowed: %s)", name, strings.Join(a.AllowedTools(), ", ")))
		}
	}

	return &Executor{agent: a, registry: registry, opts: opts}, nil
}

// Agent returns the executor's agent.
func (e *Executor) Agent() agent.Agent { return e.agent }

// Tools returns the registered tools.
func (e *Executor) Tools() []tool.Tool { return e.registry.Tools() }

// Call runs the loop to completion for one set of inputs.
//
// The output holds the agent's return values, plus the transcript under
// IntermediateStepsKey when ReturnIntermediateSteps is set. Inputs lacking
// an agent input key fail with core.ErrMissingInput.
func (e *Executor) Call(ctx context.Context, inputs core.Values) (core.Values, error) {
	for _, key := range e.agent.InputKeys() {
		if _, ok := inputs[key]; !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrMissingInput, key)
		}
	}

	ctx, span := e.opts.Tracer.Start(ctx, "executor.call", trace.WithAttributes(
		attribute.String("agent.type", string(e.agent.Type())),
		attribute.Int("executor.max_iterations", e.opts.MaxIterations),
	))
	defer span.End()

	rc := core.NewRunContext(ctx, maps.Clone(inputs), e.opts.Logger)
	span.SetAttributes(attribute.String("run.id", rc.RunID))

	rc.LogInfo("executor.call.start",
		"agent_type", string(e.agent.Type()),
		"max_iterations", e.opts.MaxIterations,
		"tools", e.registry.Len(),
	)

	start := time.Now()

	out, steps, err := e.run(rc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		rc.LogError("executor.call.error", "error", err, "steps", steps, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	span.SetAttributes(attribute.Int("executor.steps", steps))
	rc.LogInfo("executor.call.complete", "steps", steps, "duration_ms", time.Since(start).Milliseconds())

	return out, nil
}

func (e *Executor) run(rc *core.RunContext) (core.Values, int, error) {
	ctx := rc.Context
	transcript := core.Transcript{}
	budget := core.NewIterationBudget(e.opts.MaxIterations)

	for budget.Continue() {
		if err := rc.Err(); err != nil {
			return nil, transcript.Len(), err
		}

		rc.LogDebug("executor.iteration", "iteration", budget.Count())

		decision, err := e.agent.Plan(ctx, transcript, rc.Inputs)
		if err != nil {
			return nil, transcript.Len(), err
		}

		switch d := decision.(type) {
		case core.Finish:
			return e.assemble(rc, d, transcript), transcript.Len(), nil
		case core.Action:
			e.opts.Observer.OnAction(ctx, d)

			t, observation, err := e.dispatch(rc, d)
			if err != nil {
				return nil, transcript.Len(), err
			}

			transcript = transcript.Append(core.Step{Action: d, Observation: observation})

			if t != nil && t.ReturnDirect() {
				rc.LogInfo("executor.return_direct", "tool", t.Name())
				finish := core.Finish{ReturnValues: core.Values{e.agent.OutputKeys()[0]: observation}}
				return e.assemble(rc, finish, transcript), transcript.Len(), nil
			}
		default:
			return nil, transcript.Len(), fmt.Errorf("unexpected decision type %T", decision)
		}

		budget.Increment()
	}

	rc.LogWarn("executor.stopped", "iterations", budget.Count(), "method", e.opts.EarlyStoppingMethod.String())

	finish, err := e.agent.ReturnStoppedResponse(ctx, e.opts.EarlyStoppingMethod, transcript, rc.Inputs)
	if err != nil {
		return nil, transcript.Len(), err
	}

	return e.assemble(rc, finish, transcript), transcript.Len(), nil
}

// dispatch resolves and invokes the action's tool. An unknown tool yields a
// diagnostic observation and a nil tool.
func (e *Executor) dispatch(rc *core.RunContext, action core.Action) (tool.Tool, string, error) {
	t, ok := e.registry.Lookup(action.Tool)
	if !ok {
		rc.LogWarn("executor.tool.unknown", "tool", action.Tool)
		return nil, fmt.Sprintf("%s is not a valid tool, try another one.", action.Tool), nil
	}

	var (
		observation string
		err         error
	)

	logger := rc.Logger()
	start := time.Now()

	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				if sl, ok := logger.(logging.StackLogger); ok {
					sl.ErrorWithStack(err, "executor.tool.panic", "tool", t.Name())
				} else {
					rc.LogError("executor.tool.panic", "tool", t.Name(), "recover", r)
				}
			}
		}()
		observation, err = t.Call(rc.Context, action.ToolInput)
	}()

	if cr, ok := logger.(logging.CallRecorder); ok {
		cr.LogToolCall(t.Name(), time.Since(start), err == nil, err)
	}

	if err != nil {
		rc.LogError("executor.tool.error", "tool", t.Name(), "error", err)
		return nil, "", &core.ToolExecutionError{Tool: t.Name(), Input: action.ToolInput, Err: err}
	}

	return t, observation, nil
}

func (e *Executor) assemble(rc *core.RunContext, finish core.Finish, transcript core.Transcript) core.Values {
	out := maps.Clone(finish.ReturnValues)
	if out == nil {
		out = core.Values{}
	}

	if e.opts.ReturnIntermediateSteps {
		out[IntermediateStepsKey] = transcript.Steps()
		return out
	}

	e.opts.Observer.OnFinish(rc.Context, finish)

	return out
}

// panicError converts a recovered panic value to an error.
func panicError(r any) error { return &panicErr{val: r} }

type panicErr struct {
	val any
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }
