package agent

import (
	"regexp"
	"strings"

	"github.com/hupe1980/agentloop/core"
)

// FinalAnswerMarker terminates the reasoning loop when present in model output.
const FinalAnswerMarker = "Final Answer:"

// actionRegex matches "Action: <tool>\nAction Input: <input>" greedily across newlines.
var actionRegex = regexp.MustCompile(`(?s)Action:(.*)\nAction Input:(.*)`)

// OutputParser converts raw model text into a Decision.
type OutputParser interface {
	Parse(text string) (core.Decision, error)
}

// ReActParser parses the Thought/Action/Action Input/Final Answer grammar.
// It is a pure function of its input and safe for concurrent use.
type ReActParser struct {
	outputKey string
}

// NewReActParser creates a parser storing final answers under outputKey.
func NewReActParser(outputKey string) *ReActParser {
	if outputKey == "" {
		outputKey = DefaultOutputKey
	}
	return &ReActParser{outputKey: outputKey}
}

// Parse implements OutputParser.
//
// Text containing FinalAnswerMarker yields a Finish whose answer is everything
// after the last marker. Otherwise the action grammar is matched; the tool
// input loses one layer of surrounding double quotes. Anything else is a
// *core.ParseError carrying the text verbatim.
func (p *ReActParser) Parse(text string) (core.Decision, error) {
	if idx := strings.LastIndex(text, FinalAnswerMarker); idx >= 0 {
		answer := strings.TrimSpace(text[idx+len(FinalAnswerMarker):])
		return core.Finish{
			ReturnValues: core.Values{p.outputKey: answer},
			Log:          text,
		}, nil
	}

	match := actionRegex.FindStringSubmatch(text)
	if match == nil {
		return nil, &core.ParseError{Text: text}
	}

	return core.Action{
		Tool:      strings.TrimSpace(match[1]),
		ToolInput: stripQuotes(strings.TrimSpace(match[2])),
		Log:       text,
	}, nil
}

func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
