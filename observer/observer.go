package observer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/logging"
)

// NoOp discards all notifications.
type NoOp struct{}

// OnAction implements core.Observer.
func (NoOp) OnAction(context.Context, core.Action) {}

// OnFinish implements core.Observer.
func (NoOp) OnFinish(context.Context, core.Finish) {}

// Console prints the agent's reasoning to a writer, coloring actions and
// final answers.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	action lipgloss.Style
	finish lipgloss.Style
}

// NewConsole creates a console observer writing to w (os.Stdout if nil).
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{
		w:      w,
		action: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		finish: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	}
}

// OnAction implements core.Observer.
func (c *Console) OnAction(_ context.Context, action core.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, c.action.Render(action.Log))
}

// OnFinish implements core.Observer.
func (c *Console) OnFinish(_ context.Context, finish core.Finish) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := finish.Log
	if text == "" {
		text = fmt.Sprint(finish.ReturnValues)
	}
	_, _ = fmt.Fprintln(c.w, c.finish.Render(text))
}

// Logging writes notifications to a logging.Logger at info level.
type Logging struct {
	logger logging.Logger
}

// NewLogging creates a logging observer.
func NewLogging(logger logging.Logger) *Logging {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Logging{logger: logger}
}

// OnAction implements core.Observer.
func (l *Logging) OnAction(_ context.Context, action core.Action) {
	l.logger.Info("agent.action", "tool", action.Tool, "tool_input", action.ToolInput)
}

// OnFinish implements core.Observer.
func (l *Logging) OnFinish(_ context.Context, finish core.Finish) {
	l.logger.Info("agent.finish", "return_values", finish.ReturnValues)
}

// Tracing records notifications as events on the span carried by ctx. The
// executor starts one span per call, so concurrent calls never share a span.
type Tracing struct{}

// NewTracing creates a tracing observer.
func NewTracing() Tracing { return Tracing{} }

// OnAction implements core.Observer.
func (Tracing) OnAction(ctx context.Context, action core.Action) {
	trace.SpanFromContext(ctx).AddEvent("agent.action", trace.WithAttributes(
		attribute.String("agent.tool", action.Tool),
		attribute.String("agent.tool_input", action.ToolInput),
	))
}

// OnFinish implements core.Observer.
func (Tracing) OnFinish(ctx context.Context, finish core.Finish) {
	trace.SpanFromContext(ctx).AddEvent("agent.finish", trace.WithAttributes(
		attribute.String("agent.log", finish.Log),
		attribute.Int("agent.return_values", len(finish.ReturnValues)),
	))
}

// Multi fans notifications out to several observers in order.
type Multi []core.Observer

// NewMulti combines observers, skipping nil entries.
func NewMulti(observers ...core.Observer) Multi {
	m := make(Multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// OnAction implements core.Observer.
func (m Multi) OnAction(ctx context.Context, action core.Action) {
	for _, o := range m {
		o.OnAction(ctx, action)
	}
}

// OnFinish implements core.Observer.
func (m Multi) OnFinish(ctx context.Context, finish core.Finish) {
	for _, o := range m {
		o.OnFinish(ctx, finish)
	}
}

var (
	_ core.Observer = NoOp{}
	_ core.Observer = (*Console)(nil)
	_ core.Observer = (*Logging)(nil)
	_ core.Observer = Tracing{}
	_ core.Observer = Multi(nil)
)
