package agent

// Default prompt fragments. Templates use text/template syntax; the variables
// {{.input}} and {{.agent_scratchpad}} are filled per call, {{.tool_names}}
// and {{.tool_descriptions}} from the agent's tools.
const (
	DefaultPrefix = "Answer the following questions as best you can. You have access to the following tools:"

	DefaultFormatInstructions = `Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [{{.tool_names}}]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question`

	DefaultSuffix = `Begin!

Question: {{.input}}
Thought:{{.agent_scratchpad}}`

	DefaultChatSuffix = `{{.input}}

{{.agent_scratchpad}}`

	// StoppedResponse is the canned answer returned when the iteration
	// budget runs out under core.StoppingMethodForce.
	StoppedResponse = "Agent stopped due to iteration limit or time limit."

	// finalAnswerNudge is appended to the scratchpad on the generate stop path.
	finalAnswerNudge = "\n\nI now need to return a final answer based on the previous steps:"

	chatScratchpadPreamble = "This was your previous work (but I haven't seen any of it! I only see what you return as final answer):\n"

	observationPrefix = "Observation: "
	llmPrefix         = "Thought:"
)

// Template variable names.
const (
	VarInput            = "input"
	VarAgentScratchpad  = "agent_scratchpad"
	VarToolNames        = "tool_names"
	VarToolDescriptions = "tool_descriptions"
)

const (
	// DefaultInputKey is the single input key of the default prompts.
	DefaultInputKey = VarInput
	// DefaultOutputKey holds the final answer in Finish.ReturnValues.
	DefaultOutputKey = "output"
)

var (
	zeroShotStop = []string{"\nObservation:", "\n\tObservation:"}
	chatStop     = []string{"Observation:"}
)
