package core

// Values is the key/value mapping used for call inputs and outputs.
type Values map[string]any

// Decision is the result of a single planning step: either an Action or a
// Finish. Concrete decision types implement the unexported isDecision marker
// enabling a closed set.
type Decision interface{ isDecision() }

// Action requests the invocation of a tool.
type Action struct {
	Tool      string `json:"tool"`       // Tool name as emitted by the model
	ToolInput string `json:"tool_input"` // Raw text input for the tool
	Log       string `json:"log"`        // Raw model output that produced the action
}

// isDecision implements the Decision interface for Action.
func (Action) isDecision() {}

// Finish is the terminal decision carrying the call's return values.
type Finish struct {
	ReturnValues Values `json:"return_values"`
	Log          string `json:"log"`
}

// isDecision implements the Decision interface for Finish.
func (Finish) isDecision() {}

// Step pairs an executed action with the observation it produced.
type Step struct {
	Action      Action `json:"action"`
	Observation string `json:"observation"`
}

// Transcript is the ordered, append-only record of steps taken during one
// call. The zero value is an empty transcript. Append never mutates the
// receiver, so a Transcript handed to an agent cannot be changed behind its
// back.
type Transcript struct {
	steps []Step
}

// NewTranscript builds a transcript from the given steps (copied).
func NewTranscript(steps ...Step) Transcript {
	return Transcript{steps: append([]Step(nil), steps...)}
}

// Append returns a new transcript with s added at the end.
func (t Transcript) Append(s Step) Transcript {
	steps := make([]Step, len(t.steps), len(t.steps)+1)
	copy(steps, t.steps)
	return Transcript{steps: append(steps, s)}
}

// Len returns the number of recorded steps.
func (t Transcript) Len() int { return len(t.steps) }

// Steps returns a copy of the recorded steps in order.
func (t Transcript) Steps() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Last returns the most recent step, if any.
func (t Transcript) Last() (Step, bool) {
	if len(t.steps) == 0 {
		return Step{}, false
	}
	return t.steps[len(t.steps)-1], true
}
