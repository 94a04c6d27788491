// Package agentloop provides a high-level façade for building ReAct agents:
// a language model that answers a question by repeatedly choosing a tool,
// observing its result and deciding when it knows the final answer.
//
// Most applications interact with this package by:
//  1. Wrapping their capabilities as tool.Tool values
//  2. Choosing a model adapter (model/openai, model/anthropic, model/bedrock, model/gemini)
//  3. Calling Initialize and then Run (or Executor.Call for multi-key inputs)
//
// Lower level building blocks live in the agent, executor, tool, model and
// observer packages.
package agentloop

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/executor"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/observer"
	"github.com/hupe1980/agentloop/tool"
)

// Options configures Initialize.
type Options struct {
	// Verbose prints the agent's reasoning to stdout when no Observer is set.
	Verbose bool

	// Observer receives lifecycle notifications (defaults to observer.NoOp).
	Observer core.Observer

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// ReturnIntermediateSteps defaults to true.
	ReturnIntermediateSteps bool

	// MaxIterations defaults to executor.DefaultMaxIterations.
	MaxIterations int

	// EarlyStoppingMethod defaults to core.StoppingMethodForce.
	EarlyStoppingMethod core.StoppingMethod

	// AgentOptions customize the agent prompt.
	AgentOptions []func(o *agent.Options)
}

// Initialize builds an agent of the given type over tools and llm and wraps
// it in an executor. An empty agentType selects agent.TypeZeroShot.
func Initialize(tools []tool.Tool, llm model.Model, agentType agent.Type, optFns ...func(o *Options)) (*executor.Executor, error) {
	opts := Options{
		Observer:                observer.NoOp{},
		Logger:                  logging.NoOpLogger{},
		ReturnIntermediateSteps: true,
		MaxIterations:           executor.DefaultMaxIterations,
		EarlyStoppingMethod:     core.StoppingMethodForce,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Verbose {
		if _, isNoOp := opts.Observer.(observer.NoOp); isNoOp || opts.Observer == nil {
			opts.Observer = observer.NewConsole(nil)
		}
	}

	typ, err := agent.ParseType(string(agentType))
	if err != nil {
		return nil, err
	}

	agentOpts := append([]func(o *agent.Options){func(o *agent.Options) { o.Logger = opts.Logger }}, opts.AgentOptions...)

	a, err := agent.New(typ, llm, tools, agentOpts...)
	if err != nil {
		return nil, err
	}

	return executor.New(a, tools, func(o *executor.Options) {
		o.Observer = opts.Observer
		o.Logger = opts.Logger
		o.ReturnIntermediateSteps = opts.ReturnIntermediateSteps
		o.MaxIterations = opts.MaxIterations
		o.EarlyStoppingMethod = opts.EarlyStoppingMethod
	})
}

// Run calls e with a single input and returns the value of the agent's
// first output key.
func Run(ctx context.Context, e *executor.Executor, input string) (string, error) {
	a := e.Agent()

	keys := a.InputKeys()
	if len(keys) != 1 {
		return "", fmt.Errorf("run requires exactly one input key, agent has %d", len(keys))
	}

	out, err := e.Call(ctx, core.Values{keys[0]: input})
	if err != nil {
		return "", err
	}

	return fmt.Sprint(out[a.OutputKeys()[0]]), nil
}
