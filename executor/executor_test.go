package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/internal/testutil"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/observer"
	"github.com/hupe1980/agentloop/tool"
)

func newExecutor(t *testing.T, m model.Model, tools []tool.Tool, optFns ...func(o *Options)) *Executor {
	t.Helper()

	a, err := agent.NewZeroShot(m, tools)
	require.NoError(t, err)

	e, err := New(a, tools, optFns...)
	require.NoError(t, err)

	return e
}

func question(q string) core.Values { return core.Values{"input": q} }

func withSteps(o *Options) { o.ReturnIntermediateSteps = true }

func TestCall_FinishOnFirstStep(t *testing.T) {
	m := testutil.NewScriptedModel("Thought: easy\nFinal Answer: 42")
	rec := &testutil.RecordingObserver{}
	e := newExecutor(t, m, nil, func(o *Options) { o.Observer = rec })

	out, err := e.Call(context.Background(), question("answer?"))
	require.NoError(t, err)

	assert.Equal(t, core.Values{"output": "42"}, out)
	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, []string{"finish"}, rec.Snapshot())
}

func TestCall_UnknownToolIsRecoverable(t *testing.T) {
	search := testutil.NewStubTool("Search", "Paris")
	calc := testutil.NewStubTool("Calculator", "4")
	m := testutil.NewScriptedModel(
		"Action: Foo\nAction Input: x",
		"Action: search\nAction Input: capital of France",
		"Final Answer: Paris",
	)
	e := newExecutor(t, m, []tool.Tool{search, calc}, withSteps)

	out, err := e.Call(context.Background(), question("capital of France?"))
	require.NoError(t, err)

	steps, ok := out[IntermediateStepsKey].([]core.Step)
	require.True(t, ok)
	require.Len(t, steps, 2)
	assert.Equal(t, "Foo is not a valid tool, try another one.", steps[0].Observation)
	assert.Equal(t, "Paris", steps[1].Observation)
	assert.Equal(t, []string{"capital of France"}, search.Inputs())
	assert.Empty(t, calc.Inputs())
	assert.Equal(t, 3, m.Calls())
	assert.Contains(t, m.Requests()[1].Prompt(), "Observation: Foo is not a valid tool, try another one.\nThought:")
}

func TestCall_BudgetForce(t *testing.T) {
	search := testutil.NewStubTool("Search", "x")
	m := testutil.NewScriptedModel()
	rec := &testutil.RecordingObserver{}
	e := newExecutor(t, m, []tool.Tool{search}, func(o *Options) {
		o.MaxIterations = 0
		o.EarlyStoppingMethod = core.StoppingMethodForce
		o.Observer = rec
	})

	out, err := e.Call(context.Background(), question("q"))
	require.NoError(t, err)

	assert.Equal(t, core.Values{"output": agent.StoppedResponse}, out)
	assert.Equal(t, 0, m.Calls())
	assert.Empty(t, search.Inputs())
	assert.Equal(t, []string{"finish"}, rec.Snapshot())
}

func TestCall_BudgetExhaustedAfterActions(t *testing.T) {
	search := testutil.NewStubTool("Search", "nothing")
	m := testutil.NewScriptedModel(
		"Action: Search\nAction Input: a",
		"Action: Search\nAction Input: b",
		"Action: Search\nAction Input: c",
	)
	e := newExecutor(t, m, []tool.Tool{search}, withSteps, func(o *Options) { o.MaxIterations = 2 })

	out, err := e.Call(context.Background(), question("q"))
	require.NoError(t, err)

	assert.Equal(t, agent.StoppedResponse, out["output"])
	assert.Len(t, out[IntermediateStepsKey], 2)
	assert.Equal(t, 2, m.Calls())
	assert.Equal(t, []string{"a", "b"}, search.Inputs())
}

func TestCall_BudgetGenerate(t *testing.T) {
	search := testutil.NewStubTool("Search", "nothing")
	m := testutil.NewScriptedModel(
		"Action: Search\nAction Input: a",
		" I will give up\nFinal Answer: unknown",
	)
	e := newExecutor(t, m, []tool.Tool{search}, func(o *Options) {
		o.MaxIterations = 1
		o.EarlyStoppingMethod = core.StoppingMethodGenerate
	})

	out, err := e.Call(context.Background(), question("q"))
	require.NoError(t, err)

	assert.Equal(t, core.Values{"output": "unknown"}, out)
	assert.Equal(t, 2, m.Calls())
	assert.True(t, strings.HasSuffix(m.LastPrompt(),
		"Observation: nothing\nThought:\n\nI now need to return a final answer based on the previous steps:"))
}

func TestCall_BudgetGenerateRejectsAction(t *testing.T) {
	search := testutil.NewStubTool("Search", "nothing")
	m := testutil.NewScriptedModel(
		"Action: Search\nAction Input: a",
		"Action: Search\nAction Input: b",
	)
	e := newExecutor(t, m, []tool.Tool{search}, func(o *Options) {
		o.MaxIterations = 1
		o.EarlyStoppingMethod = core.StoppingMethodGenerate
	})

	_, err := e.Call(context.Background(), question("q"))

	var perr *core.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, m.Calls())
	assert.Equal(t, []string{"a"}, search.Inputs())
}

func TestCall_ReturnDirect(t *testing.T) {
	lookup := testutil.NewStubTool("Lookup", "direct result")
	lookup.Direct = true
	m := testutil.NewScriptedModel("Action: LOOKUP\nAction Input: \"key\"", "Final Answer: never")
	rec := &testutil.RecordingObserver{}
	e := newExecutor(t, m, []tool.Tool{lookup}, func(o *Options) { o.Observer = rec })

	out, err := e.Call(context.Background(), question("q"))
	require.NoError(t, err)

	assert.Equal(t, core.Values{"output": "direct result"}, out)
	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, []string{"key"}, lookup.Inputs())
	assert.Equal(t, []string{"action:LOOKUP", "finish"}, rec.Snapshot())
}

func TestCall_PlanningCallsMatchFinishStep(t *testing.T) {
	for k := 1; k <= 4; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			responses := make([]string, 0, k)
			for i := 1; i < k; i++ {
				responses = append(responses, fmt.Sprintf("Action: Search\nAction Input: %d", i))
			}
			responses = append(responses, "Final Answer: done")

			m := testutil.NewScriptedModel(responses...)
			e := newExecutor(t, m, []tool.Tool{testutil.NewStubTool("Search", "r")}, func(o *Options) { o.MaxIterations = 4 })

			out, err := e.Call(context.Background(), question("q"))
			require.NoError(t, err)
			assert.Equal(t, "done", out["output"])
			assert.Equal(t, k, m.Calls())
		})
	}
}

var lastQuestion = regexp.MustCompile(`Question: (.*)\n`)

// deterministicModel answers with a fixed function of the prompt text.
func deterministicModel() model.Model {
	return model.Func(func(_ context.Context, req model.Request) (string, error) {
		prompt := req.Prompt()
		if strings.Contains(prompt, "Observation: hello\n") {
			matches := lastQuestion.FindAllStringSubmatch(prompt, -1)
			return " I now know the final answer\nFinal Answer: " + matches[len(matches)-1][1], nil
		}
		return " I should echo\nAction: Echo\nAction Input: hello", nil
	})
}

func echoTool() tool.Tool {
	return tool.NewFunctionTool("Echo", "repeats the input", func(_ context.Context, in string) (string, error) {
		return in, nil
	})
}

func TestCall_Deterministic(t *testing.T) {
	e := newExecutor(t, deterministicModel(), []tool.Tool{echoTool()}, withSteps)

	first, err := e.Call(context.Background(), question("same"))
	require.NoError(t, err)

	second, err := e.Call(context.Background(), question("same"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "same", first["output"])
	assert.Len(t, first[IntermediateStepsKey], 1)
}

func TestCall_UnboundedIterations(t *testing.T) {
	responses := make([]string, 0, 21)
	for i := 0; i < 20; i++ {
		responses = append(responses, "Action: Search\nAction Input: again")
	}
	responses = append(responses, "Final Answer: finally")

	m := testutil.NewScriptedModel(responses...)
	e := newExecutor(t, m, []tool.Tool{testutil.NewStubTool("Search", "r")}, func(o *Options) { o.MaxIterations = Unbounded })

	out, err := e.Call(context.Background(), question("q"))
	require.NoError(t, err)
	assert.Equal(t, "finally", out["output"])
	assert.Equal(t, 21, m.Calls())
}

func TestCall_ToolFailureIsFatal(t *testing.T) {
	boom := errors.New("boom")
	failing := testutil.NewFailingTool("Search", boom)
	m := testutil.NewScriptedModel("Action: Search\nAction Input: x", "Final Answer: unreachable")
	rec := &testutil.RecordingObserver{}
	e := newExecutor(t, m, []tool.Tool{failing}, func(o *Options) { o.Observer = rec })

	out, err := e.Call(context.Background(), question("q"))
	require.Error(t, err)
	assert.Nil(t, out)

	var terr *core.ToolExecutionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "Search", terr.Tool)
	assert.Equal(t, "x", terr.Input)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, []string{"action:Search"}, rec.Snapshot())
}

func TestCall_ToolPanicIsFatal(t *testing.T) {
	panicking := testutil.NewStubTool("Search", "")
	panicking.Panic = "kaboom"
	m := testutil.NewScriptedModel("Action: Search\nAction Input: x")
	e := newExecutor(t, m, []tool.Tool{panicking})

	_, err := e.Call(context.Background(), question("q"))

	var terr *core.ToolExecutionError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, err.Error(), "kaboom")
}

func TestCall_ParseErrorIsFatal(t *testing.T) {
	m := testutil.NewScriptedModel("I am confused")
	e := newExecutor(t, m, nil)

	_, err := e.Call(context.Background(), question("q"))

	var perr *core.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "I am confused", perr.Text)
}

func TestCall_ModelErrorIsFatal(t *testing.T) {
	m := model.Func(func(context.Context, model.Request) (string, error) { return "", errors.New("503") })
	e := newExecutor(t, m, nil)

	_, err := e.Call(context.Background(), question("q"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestCall_ObserverAsymmetry(t *testing.T) {
	t.Run("intermediate steps suppress OnFinish", func(t *testing.T) {
		rec := &testutil.RecordingObserver{}
		m := testutil.NewScriptedModel("Action: Search\nAction Input: x", "Final Answer: y")
		e := newExecutor(t, m, []tool.Tool{testutil.NewStubTool("Search", "r")}, withSteps, func(o *Options) { o.Observer = rec })

		out, err := e.Call(context.Background(), question("q"))
		require.NoError(t, err)

		assert.Equal(t, []string{"action:Search"}, rec.Snapshot())
		assert.Equal(t, "y", out["output"])
		assert.Equal(t, []core.Step{{
			Action:      core.Action{Tool: "Search", ToolInput: "x", Log: "Action: Search\nAction Input: x"},
			Observation: "r",
		}}, out[IntermediateStepsKey])
	})

	t.Run("plain output notifies OnFinish", func(t *testing.T) {
		rec := &testutil.RecordingObserver{}
		m := testutil.NewScriptedModel("Action: Search\nAction Input: x", "Final Answer: y")
		e := newExecutor(t, m, []tool.Tool{testutil.NewStubTool("Search", "r")}, func(o *Options) { o.Observer = rec })

		out, err := e.Call(context.Background(), question("q"))
		require.NoError(t, err)

		assert.Equal(t, []string{"action:Search", "finish"}, rec.Snapshot())
		assert.Equal(t, core.Values{"output": "y"}, out)
		require.Len(t, rec.Finishes, 1)
		assert.Equal(t, "Final Answer: y", rec.Finishes[0].Log)
	})
}

func TestCall_ObserverNotifiedBeforeDispatch(t *testing.T) {
	rec := &testutil.RecordingObserver{}
	var seen []string
	probe := tool.NewFunctionTool("Probe", "records observer state", func(context.Context, string) (string, error) {
		seen = rec.Snapshot()
		return "ok", nil
	})

	m := testutil.NewScriptedModel("Action: Probe\nAction Input: x", "Final Answer: y")
	e := newExecutor(t, m, []tool.Tool{probe}, func(o *Options) { o.Observer = rec })

	_, err := e.Call(context.Background(), question("q"))
	require.NoError(t, err)
	assert.Equal(t, []string{"action:Probe"}, seen)
}

func TestCall_MissingInput(t *testing.T) {
	m := testutil.NewScriptedModel()
	e := newExecutor(t, m, nil)

	_, err := e.Call(context.Background(), core.Values{"question": "q"})
	assert.ErrorIs(t, err, core.ErrMissingInput)
	assert.Equal(t, 0, m.Calls())
}

func TestCall_CancelledContext(t *testing.T) {
	m := testutil.NewScriptedModel("Final Answer: y")
	e := newExecutor(t, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Call(ctx, question("q"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Calls())
}

func TestNew_ConfigErrors(t *testing.T) {
	m := testutil.NewScriptedModel()
	search := testutil.NewStubTool("Search", "r")

	a, err := agent.NewZeroShot(m, []tool.Tool{search})
	require.NoError(t, err)

	var cerr *core.ConfigError

	_, err = New(nil, nil)
	require.True(t, errors.As(err, &cerr))

	_, err = New(a, []tool.Tool{search, testutil.NewStubTool("Calculator", "4")})
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "tools", cerr.Field)

	_, err = New(a, []tool.Tool{search, testutil.NewStubTool("SEARCH", "r")})
	require.True(t, errors.As(err, &cerr))

	_, err = New(a, []tool.Tool{search}, func(o *Options) { o.MaxIterations = -2 })
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "max_iterations", cerr.Field)

	e, err := New(a, []tool.Tool{search}, func(o *Options) {
		o.Observer = nil
		o.Logger = nil
		o.Tracer = nil
	})
	require.NoError(t, err)
	assert.Len(t, e.Tools(), 1)
	assert.Equal(t, agent.TypeZeroShot, e.Agent().Type())
}

func TestCall_TracingAndLogging(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	m := testutil.NewScriptedModel("Action: Nope\nAction Input: x", "Final Answer: y")
	e := newExecutor(t, m, nil, func(o *Options) {
		o.Tracer = tp.Tracer("test")
		o.Observer = observer.NewTracing()
		o.Logger = logger
	})

	_, err := e.Call(context.Background(), question("q"))
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "executor.call", spans[0].Name())

	var names []string
	for _, ev := range spans[0].Events() {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"agent.action", "agent.finish"}, names)

	logs := buf.String()
	for _, event := range []string{"executor.call.start", "executor.iteration", "executor.tool.unknown", "executor.call.complete"} {
		assert.Contains(t, logs, `"msg":"`+event+`"`)
	}
	assert.Contains(t, logs, `"run_id":"`)
}

type keylessAgent struct {
	agent.Agent
}

func (keylessAgent) OutputKeys() []string { return nil }

func TestNew_AgentWithoutOutputKeys(t *testing.T) {
	a, err := agent.NewZeroShot(testutil.NewScriptedModel(), nil)
	require.NoError(t, err)

	_, err = New(keylessAgent{Agent: a}, nil)

	var cerr *core.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "agent", cerr.Field)
}

func structuredLogger(buf *bytes.Buffer) *logging.StructuredLogger {
	return logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: buf})
}

func TestCall_RecordsToolCalls(t *testing.T) {
	var buf bytes.Buffer
	search := testutil.NewStubTool("Search", "found")
	m := testutil.NewScriptedModel("Action: Search\nAction Input: x", "Final Answer: y")
	e := newExecutor(t, m, []tool.Tool{search}, func(o *Options) { o.Logger = structuredLogger(&buf) })

	_, err := e.Call(context.Background(), question("q"))
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, `"msg":"tool.call.complete"`)
	assert.Contains(t, logs, `"tool_name":"Search"`)
	assert.Contains(t, logs, `"success":true`)
	assert.Contains(t, logs, `"run_id":"`)
}

func TestCall_ToolPanicLogsStack(t *testing.T) {
	var buf bytes.Buffer
	panicking := testutil.NewStubTool("Search", "")
	panicking.Panic = "kaboom"
	m := testutil.NewScriptedModel("Action: Search\nAction Input: x")
	e := newExecutor(t, m, []tool.Tool{panicking}, func(o *Options) { o.Logger = structuredLogger(&buf) })

	_, err := e.Call(context.Background(), question("q"))
	require.Error(t, err)

	logs := buf.String()
	assert.Contains(t, logs, `"msg":"executor.tool.panic"`)
	assert.Contains(t, logs, `"stack_trace":"`)
	assert.Contains(t, logs, `"msg":"tool.call.failed"`)
}
