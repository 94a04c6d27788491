package core

import (
	"errors"
	"fmt"
)

// ErrMissingInput is returned when a call lacks one of the agent's input keys.
var ErrMissingInput = errors.New("missing input key")

// ConfigError reports an invalid agent, tool or executor configuration. It is
// raised at construction time, before any model call.
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error [%s]: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// NewConfigError creates a ConfigError for the given field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// ParseError reports model output that matches no recognised decision
// grammar. Text carries the offending output verbatim.
type ParseError struct {
	Text   string `json:"text"`
	Reason string `json:"reason,omitempty"`
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("could not parse LLM output (%s): %s", e.Reason, e.Text)
	}
	return fmt.Sprintf("could not parse LLM output: %s", e.Text)
}

// ToolExecutionError wraps a failure raised by a resolved tool's invocation.
type ToolExecutionError struct {
	Tool  string `json:"tool"`
	Input string `json:"input"`
	Err   error  `json:"-"`
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

// Unwrap returns the underlying tool error.
func (e *ToolExecutionError) Unwrap() error { return e.Err }
