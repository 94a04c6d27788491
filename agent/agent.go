package agent

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/internal/util"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// Agent decides the next step of a call. Implementations must not retain
// or mutate the transcript they are handed.
type Agent interface {
	// Plan issues one model call and returns the next Decision.
	Plan(ctx context.Context, steps core.Transcript, inputs core.Values) (core.Decision, error)

	// ReturnStoppedResponse produces the Finish used once the iteration
	// budget is exhausted.
	ReturnStoppedResponse(ctx context.Context, method core.StoppingMethod, steps core.Transcript, inputs core.Values) (core.Finish, error)

	// InputKeys lists the keys a call's inputs must provide.
	InputKeys() []string

	// OutputKeys lists the keys of Finish.ReturnValues; the first one
	// receives return-direct observations.
	OutputKeys() []string

	// AllowedTools lists the tool names the agent was built for.
	AllowedTools() []string

	// Type returns the agent type identifier.
	Type() Type
}

// Type identifies an agent prompt style.
type Type string

const (
	// TypeZeroShot renders a single plain-text ReAct prompt.
	TypeZeroShot Type = "zero-shot-react-description"
	// TypeChat renders a system + user message pair.
	TypeChat Type = "chat-zero-shot-react-description"
)

// ParseType converts a configuration string into a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.TrimSpace(s)); t {
	case "":
		return TypeZeroShot, nil
	case TypeZeroShot, TypeChat:
		return t, nil
	default:
		return "", core.NewConfigError("agent_type", fmt.Sprintf("unknown agent type %q", s))
	}
}

// Options configures a ReActAgent.
type Options struct {
	// Prefix precedes the tool list.
	Prefix string
	// FormatInstructions follow the tool list.
	FormatInstructions string
	// Suffix closes the prompt; for TypeChat it is the user message.
	Suffix string
	// InputVariables lists the variables supplied per call, including
	// agent_scratchpad. Defaults to [input agent_scratchpad].
	InputVariables []string
	// OutputKey holds the final answer. Defaults to "output".
	OutputKey string
	// Stop overrides the style's stop sequences.
	Stop []string
	// Parser overrides the ReActParser.
	Parser OutputParser
	// Logger receives agent.* debug events.
	Logger logging.Logger
}

// ReActAgent is the ReAct agent for both prompt styles.
type ReActAgent struct {
	typ       Type
	llm       model.Model
	parser    OutputParser
	system    string // chat only
	template  string
	stop      []string
	toolNames []string
	toolDescs string
	inputKeys []string
	outputKey string
	logger    logging.Logger
}

// New creates a ReActAgent of the given type. Every tool must carry a
// non-empty description and custom templates must reference the scratchpad;
// violations yield a *core.ConfigError before any model call.
func New(typ Type, llm model.Model, tools []tool.Tool, optFns ...func(o *Options)) (*ReActAgent, error) {
	opts := Options{
		Prefix:             DefaultPrefix,
		FormatInstructions: DefaultFormatInstructions,
		InputVariables:     []string{VarInput, VarAgentScratchpad},
		OutputKey:          DefaultOutputKey,
		Logger:             logging.NoOpLogger{},
	}

	switch typ {
	case TypeZeroShot:
		opts.Suffix = DefaultSuffix
		opts.Stop = zeroShotStop
	case TypeChat:
		opts.Suffix = DefaultChatSuffix
		opts.Stop = chatStop
	default:
		return nil, core.NewConfigError("agent_type", fmt.Sprintf("unknown agent type %q", typ))
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if llm == nil {
		return nil, core.NewConfigError("llm", "a model is required")
	}

	if err := validateTools(tools); err != nil {
		return nil, err
	}

	if opts.Parser == nil {
		opts.Parser = NewReActParser(opts.OutputKey)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	a := &ReActAgent{
		typ:       typ,
		llm:       llm,
		parser:    opts.Parser,
		stop:      slices.Clone(opts.Stop),
		outputKey: opts.OutputKey,
		logger:    opts.Logger,
	}

	descs := make([]string, 0, len(tools))
	for _, t := range tools {
		a.toolNames = append(a.toolNames, t.Name())
		descs = append(descs, fmt.Sprintf("%s: %s", t.Name(), t.Description()))
	}
	a.toolDescs = strings.Join(descs, "\n")

	preamble := strings.Join([]string{opts.Prefix, "{{.tool_descriptions}}", opts.FormatInstructions}, "\n\n")
	if typ == TypeChat {
		a.system = preamble
		a.template = opts.Suffix
	} else {
		a.template = strings.Join([]string{preamble, opts.Suffix}, "\n\n")
	}

	if err := a.validateTemplate(opts.InputVariables); err != nil {
		return nil, err
	}

	for _, v := range opts.InputVariables {
		if v != VarAgentScratchpad {
			a.inputKeys = append(a.inputKeys, v)
		}
	}

	return a, nil
}

// NewZeroShot creates a TypeZeroShot agent.
func NewZeroShot(llm model.Model, tools []tool.Tool, optFns ...func(o *Options)) (*ReActAgent, error) {
	return New(TypeZeroShot, llm, tools, optFns...)
}

// NewChat creates a TypeChat agent.
func NewChat(llm model.Model, tools []tool.Tool, optFns ...func(o *Options)) (*ReActAgent, error) {
	return New(TypeChat, llm, tools, optFns...)
}

func validateTools(tools []tool.Tool) error {
	for i, t := range tools {
		if t == nil {
			return core.NewConfigError("tools", fmt.Sprintf("tool at index %d is nil", i))
		}
		if strings.TrimSpace(t.Description()) == "" {
			return core.NewConfigError("tools", fmt.Sprintf(
				"got a tool %s without a description. This agent requires descriptions for all tools", t.Name()))
		}
	}
	return nil
}

func (a *ReActAgent) validateTemplate(inputVariables []string) error {
	declared := map[string]bool{VarToolNames: true, VarToolDescriptions: true}
	for _, v := range inputVariables {
		declared[v] = true
	}

	if !declared[VarAgentScratchpad] {
		return core.NewConfigError("input_variables", "input variables must include agent_scratchpad")
	}

	var used []string
	for _, text := range []string{a.system, a.template} {
		vars, err := util.TemplateVariables(text)
		if err != nil {
			return core.NewConfigError("prompt", fmt.Sprintf("invalid prompt template: %v", err))
		}
		used = append(used, vars...)
	}

	for _, v := range used {
		if !declared[v] {
			return core.NewConfigError("prompt", fmt.Sprintf("prompt references undeclared variable %q", v))
		}
	}

	if !slices.Contains(used, VarAgentScratchpad) {
		return core.NewConfigError("prompt", "prompt must reference {{.agent_scratchpad}}")
	}

	return nil
}

// Plan implements Agent.
func (a *ReActAgent) Plan(ctx context.Context, steps core.Transcript, inputs core.Values) (core.Decision, error) {
	text, err := a.generate(ctx, a.scratchpad(steps), inputs)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("agent.plan.complete", "agent_type", string(a.typ), "steps", steps.Len(), "output", text)

	return a.parser.Parse(text)
}

// ReturnStoppedResponse implements Agent. StoppingMethodForce returns
// StoppedResponse without a model call; StoppingMethodGenerate asks the model
// once more and requires a Finish.
func (a *ReActAgent) ReturnStoppedResponse(ctx context.Context, method core.StoppingMethod, steps core.Transcript, inputs core.Values) (core.Finish, error) {
	switch method {
	case core.StoppingMethodForce:
		return core.Finish{ReturnValues: core.Values{a.outputKey: StoppedResponse}}, nil
	case core.StoppingMethodGenerate:
		text, err := a.generate(ctx, a.scratchpad(steps)+finalAnswerNudge, inputs)
		if err != nil {
			return core.Finish{}, err
		}

		decision, err := a.parser.Parse(text)
		if err != nil {
			return core.Finish{}, err
		}

		finish, ok := decision.(core.Finish)
		if !ok {
			return core.Finish{}, &core.ParseError{Text: text, Reason: "agent generated output not final answer"}
		}

		return finish, nil
	default:
		return core.Finish{}, core.NewConfigError("early_stopping_method", fmt.Sprintf("unsupported stopping method %s", method))
	}
}

func (a *ReActAgent) generate(ctx context.Context, scratchpad string, inputs core.Values) (string, error) {
	req, err := a.buildRequest(scratchpad, inputs)
	if err != nil {
		return "", err
	}

	text, err := a.llm.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("model generate: %w", err)
	}

	return text, nil
}

func (a *ReActAgent) buildRequest(scratchpad string, inputs core.Values) (model.Request, error) {
	vars := make(map[string]any, len(inputs)+3)
	for k, v := range inputs {
		vars[k] = v
	}

	if a.typ == TypeChat && scratchpad != "" {
		scratchpad = chatScratchpadPreamble + scratchpad
	}

	vars[VarAgentScratchpad] = scratchpad
	vars[VarToolNames] = strings.Join(a.toolNames, "\n")
	vars[VarToolDescriptions] = a.toolDescs

	user, err := util.RenderTemplate(a.template, vars)
	if err != nil {
		return model.Request{}, fmt.Errorf("render prompt: %w", err)
	}

	req := model.Request{Stop: slices.Clone(a.stop)}

	if a.system != "" {
		system, err := util.RenderTemplate(a.system, vars)
		if err != nil {
			return model.Request{}, fmt.Errorf("render system prompt: %w", err)
		}
		req.Messages = append(req.Messages, model.Message{Role: model.RoleSystem, Text: system})
	}

	req.Messages = append(req.Messages, model.Message{Role: model.RoleUser, Text: user})

	return req, nil
}

// scratchpad serializes the transcript as "<log>\nObservation: <obs>\nThought:" blocks.
func (a *ReActAgent) scratchpad(steps core.Transcript) string {
	var sb strings.Builder
	for _, s := range steps.Steps() {
		sb.WriteString(s.Action.Log)
		sb.WriteString("\n")
		sb.WriteString(observationPrefix)
		sb.WriteString(s.Observation)
		sb.WriteString("\n")
		sb.WriteString(llmPrefix)
	}
	return sb.String()
}

// InputKeys implements Agent.
func (a *ReActAgent) InputKeys() []string { return slices.Clone(a.inputKeys) }

// OutputKeys implements Agent.
func (a *ReActAgent) OutputKeys() []string { return []string{a.outputKey} }

// AllowedTools implements Agent.
func (a *ReActAgent) AllowedTools() []string { return slices.Clone(a.toolNames) }

// Type implements Agent.
func (a *ReActAgent) Type() Type { return a.typ }

// Stop returns the stop sequences sent with every model call.
func (a *ReActAgent) Stop() []string { return slices.Clone(a.stop) }
