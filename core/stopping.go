package core

import (
	"fmt"
	"strings"
)

// StoppingMethod governs how a Finish is produced once the iteration budget
// is exhausted.
type StoppingMethod int

const (
	// StoppingMethodForce returns a canned Finish without calling the model.
	StoppingMethodForce StoppingMethod = iota
	// StoppingMethodGenerate asks the model for one last final answer.
	StoppingMethodGenerate
)

// String returns the configuration name of the stopping method.
func (m StoppingMethod) String() string {
	switch m {
	case StoppingMethodForce:
		return "force"
	case StoppingMethodGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// ParseStoppingMethod converts a configuration name ("force", "generate")
// into a StoppingMethod. The empty string selects StoppingMethodForce.
func ParseStoppingMethod(s string) (StoppingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "force":
		return StoppingMethodForce, nil
	case "generate":
		return StoppingMethodGenerate, nil
	default:
		return StoppingMethodForce, &ConfigError{
			Field:   "early_stopping_method",
			Message: fmt.Sprintf("unknown stopping method %q", s),
		}
	}
}
