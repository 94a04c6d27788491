package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	entries [][]any
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record(msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record(msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record(msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record(msg, args) }

func (l *recordingLogger) record(msg string, args []any) {
	l.entries = append(l.entries, append([]any{msg}, args...))
}

func TestTranscript_AppendDoesNotMutate(t *testing.T) {
	var empty Transcript
	one := empty.Append(Step{Action: Action{Tool: "Search"}, Observation: "a"})
	two := one.Append(Step{Action: Action{Tool: "Calculator"}, Observation: "b"})

	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 1, one.Len())
	assert.Equal(t, 2, two.Len())

	last, ok := two.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.Observation)

	_, ok = empty.Last()
	assert.False(t, ok)
}

func TestTranscript_BranchesAreIndependent(t *testing.T) {
	base := NewTranscript(Step{Observation: "root"})
	left := base.Append(Step{Observation: "left"})
	right := base.Append(Step{Observation: "right"})

	assert.Equal(t, "left", left.Steps()[1].Observation)
	assert.Equal(t, "right", right.Steps()[1].Observation)
}

func TestTranscript_StepsReturnsCopy(t *testing.T) {
	tr := NewTranscript(Step{Observation: "x"})
	steps := tr.Steps()
	steps[0].Observation = "mutated"
	assert.Equal(t, "x", tr.Steps()[0].Observation)
}

func TestDecision_ClosedSet(t *testing.T) {
	decisions := []Decision{Action{Tool: "t"}, Finish{ReturnValues: Values{"output": "42"}}}
	var actions, finishes int
	for _, d := range decisions {
		switch d.(type) {
		case Action:
			actions++
		case Finish:
			finishes++
		}
	}
	assert.Equal(t, 1, actions)
	assert.Equal(t, 1, finishes)
}

func TestParseStoppingMethod(t *testing.T) {
	m, err := ParseStoppingMethod("")
	require.NoError(t, err)
	assert.Equal(t, StoppingMethodForce, m)

	m, err = ParseStoppingMethod("Generate")
	require.NoError(t, err)
	assert.Equal(t, StoppingMethodGenerate, m)
	assert.Equal(t, "generate", m.String())

	_, err = ParseStoppingMethod("retry")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "early_stopping_method", cfgErr.Field)
}

func TestErrors(t *testing.T) {
	cause := errors.New("boom")
	toolErr := &ToolExecutionError{Tool: "Search", Input: "q", Err: cause}
	wrapped := fmt.Errorf("call: %w", toolErr)

	assert.ErrorIs(t, wrapped, cause)
	var target *ToolExecutionError
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "Search", target.Tool)
	assert.Equal(t, "tool Search failed: boom", toolErr.Error())

	parseErr := &ParseError{Text: "gibberish"}
	assert.Equal(t, "could not parse LLM output: gibberish", parseErr.Error())

	assert.Equal(t, "config error [tools]: bad", NewConfigError("tools", "bad").Error())
	assert.Equal(t, "config error: bad", (&ConfigError{Message: "bad"}).Error())
}

func TestIterationBudget(t *testing.T) {
	b := NewIterationBudget(2)
	assert.True(t, b.Continue())
	b.Increment()
	assert.Equal(t, 1, b.Remaining())
	b.Increment()
	assert.False(t, b.Continue())
	assert.Equal(t, 2, b.Count())

	zero := NewIterationBudget(0)
	assert.False(t, zero.Continue())

	unbounded := NewIterationBudget(Unbounded)
	for i := 0; i < 100; i++ {
		unbounded.Increment()
	}
	assert.True(t, unbounded.Continue())
	assert.Equal(t, -1, unbounded.Remaining())
}
