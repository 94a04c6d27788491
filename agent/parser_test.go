package agent

import (
	"errors"
	"testing"

	"github.com/hupe1980/agentloop/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FinalAnswer(t *testing.T) {
	p := NewReActParser("")

	d, err := p.Parse("Thought: I now know the final answer\nFinal Answer: 42")
	require.NoError(t, err)

	finish, ok := d.(core.Finish)
	require.True(t, ok)
	assert.Equal(t, "42", finish.ReturnValues[DefaultOutputKey])
	assert.Equal(t, "Thought: I now know the final answer\nFinal Answer: 42", finish.Log)
}

func TestParse_FinalAnswerUsesLastMarker(t *testing.T) {
	d, err := NewReActParser("answer").Parse("Final Answer: draft\nFinal Answer:  real  \n")
	require.NoError(t, err)
	assert.Equal(t, core.Values{"answer": "real"}, d.(core.Finish).ReturnValues)
}

func TestParse_FinalAnswerWinsOverAction(t *testing.T) {
	d, err := NewReActParser("").Parse("Action: Search\nAction Input: x\nFinal Answer: done")
	require.NoError(t, err)
	assert.IsType(t, core.Finish{}, d)
}

func TestParse_Action(t *testing.T) {
	text := "Thought: look it up\nAction: Search\nAction Input: \"capital of France\""

	d, err := NewReActParser("").Parse(text)
	require.NoError(t, err)

	action, ok := d.(core.Action)
	require.True(t, ok)
	assert.Equal(t, "Search", action.Tool)
	assert.Equal(t, "capital of France", action.ToolInput)
	assert.Equal(t, text, action.Log)
}

func TestParse_ActionQuoteStripping(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no quotes", "Action: Calc\nAction Input: 2+2", "2+2"},
		{"one layer", "Action: Calc\nAction Input: \"2+2\"", "2+2"},
		{"only one layer removed", "Action: Calc\nAction Input: \"\"2+2\"\"", "\"2+2\""},
		{"leading only", "Action: Calc\nAction Input: \"2+2", "2+2"},
		{"multiline input", "Action: Calc\nAction Input: line1\nline2", "line1\nline2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewReActParser("").Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.(core.Action).ToolInput)
		})
	}
}

func TestParse_ActionGreedy(t *testing.T) {
	d, err := NewReActParser("").Parse("Action: A\nAction Input: x\nAction: B\nAction Input: y")
	require.NoError(t, err)

	action := d.(core.Action)
	assert.Equal(t, "A\nAction Input: x\nAction: B", action.Tool)
	assert.Equal(t, "y", action.ToolInput)
}

func TestParse_Error(t *testing.T) {
	_, err := NewReActParser("").Parse("no recognizable structure")
	require.Error(t, err)

	var perr *core.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "no recognizable structure", perr.Text)
}
