// Package config loads the YAML file describing an agent run: the agent
// type and prompt overrides, executor limits, model provider, logging and
// the enabled tools.
package config

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/executor"
	"github.com/hupe1980/agentloop/logging"
)

// Supported tool and provider names.
const (
	ToolCalculator = "calculator"
	ToolSQL        = "sql"

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// Agent configures the agent type and prompt.
type Agent struct {
	Type               string   `yaml:"type"`
	Prefix             string   `yaml:"prefix"`
	Suffix             string   `yaml:"suffix"`
	FormatInstructions string   `yaml:"format_instructions"`
	InputVariables     []string `yaml:"input_variables"`
}

// Executor configures the loop.
type Executor struct {
	// MaxIterations of -1 disables the budget.
	MaxIterations           int    `yaml:"max_iterations"`
	EarlyStoppingMethod     string `yaml:"early_stopping_method"`
	ReturnIntermediateSteps bool   `yaml:"return_intermediate_steps"`
	Verbose                 bool   `yaml:"verbose"`
}

// Model configures the model provider.
type Model struct {
	Provider          string            `yaml:"provider"`
	Name              string            `yaml:"name"`
	Temperature       float64           `yaml:"temperature"`
	MaxTokens         int               `yaml:"max_tokens"`
	APIKeyEnv         string            `yaml:"api_key_env"`
	Region            string            `yaml:"region"`
	RequestsPerMinute int               `yaml:"requests_per_minute"`
	Burst             int               `yaml:"burst"`
	Responses         map[string]string `yaml:"responses"` // mock provider only
}

// Logging configures the structured logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Tools selects the tools handed to the agent.
type Tools struct {
	Enabled   []string `yaml:"enabled"`
	CacheSize int      `yaml:"cache_size"`
}

// SQL configures the sql tool.
type SQL struct {
	Driver       string   `yaml:"driver"`
	DSN          string   `yaml:"dsn"`
	TopK         int      `yaml:"top_k"`
	ReadOnly     bool     `yaml:"read_only"`
	ReturnDirect bool     `yaml:"return_direct"`
	Tables       []string `yaml:"tables"`
}

// Config is the root of the configuration file.
type Config struct {
	Agent    Agent    `yaml:"agent"`
	Executor Executor `yaml:"executor"`
	Model    Model    `yaml:"model"`
	Logging  Logging  `yaml:"logging"`
	Tools    Tools    `yaml:"tools"`
	SQL      SQL      `yaml:"sql"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Agent: Agent{Type: string(agent.TypeZeroShot)},
		Executor: Executor{
			MaxIterations:       executor.DefaultMaxIterations,
			EarlyStoppingMethod: core.StoppingMethodForce.String(),
		},
		Model:   Model{Provider: ProviderOpenAI},
		Logging: Logging{Level: "info", Format: "text"},
		SQL:     SQL{Driver: "sqlite", TopK: 10, ReadOnly: true},
	}
}

// Load reads and validates the YAML file at path. Keys absent from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads and validates YAML from r.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects unknown agent types, stopping methods, providers and tools.
func (c *Config) Validate() error {
	if _, err := agent.ParseType(c.Agent.Type); err != nil {
		return err
	}

	if _, err := core.ParseStoppingMethod(c.Executor.EarlyStoppingMethod); err != nil {
		return err
	}

	if c.Executor.MaxIterations < executor.Unbounded {
		return core.NewConfigError("executor.max_iterations", fmt.Sprintf("invalid value %d", c.Executor.MaxIterations))
	}

	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderBedrock, ProviderGemini, ProviderMock:
	default:
		return core.NewConfigError("model.provider", fmt.Sprintf("unknown provider %q", c.Model.Provider))
	}

	for _, name := range c.Tools.Enabled {
		switch name {
		case ToolCalculator:
		case ToolSQL:
			if c.SQL.DSN == "" {
				return core.NewConfigError("sql.dsn", "required when the sql tool is enabled")
			}
		default:
			return core.NewConfigError("tools.enabled", fmt.Sprintf("unknown tool %q", name))
		}
	}

	if c.Tools.CacheSize < 0 {
		return core.NewConfigError("tools.cache_size", "must not be negative")
	}

	return nil
}

// ToolEnabled reports whether the named tool is enabled.
func (c *Config) ToolEnabled(name string) bool {
	return slices.Contains(c.Tools.Enabled, name)
}

// AgentType returns the validated agent type.
func (c *Config) AgentType() agent.Type {
	t, _ := agent.ParseType(c.Agent.Type)
	return t
}

// AgentOptions applies the prompt overrides present in the file.
func (c *Config) AgentOptions(o *agent.Options) {
	if c.Agent.Prefix != "" {
		o.Prefix = c.Agent.Prefix
	}
	if c.Agent.Suffix != "" {
		o.Suffix = c.Agent.Suffix
	}
	if c.Agent.FormatInstructions != "" {
		o.FormatInstructions = c.Agent.FormatInstructions
	}
	if len(c.Agent.InputVariables) > 0 {
		o.InputVariables = slices.Clone(c.Agent.InputVariables)
	}
}

// ExecutorOptions returns an option function applying the executor section.
// An unknown stopping method is reported even if Validate was never called.
func (c *Config) ExecutorOptions() (func(o *executor.Options), error) {
	method, err := core.ParseStoppingMethod(c.Executor.EarlyStoppingMethod)
	if err != nil {
		return nil, err
	}

	return func(o *executor.Options) {
		o.MaxIterations = c.Executor.MaxIterations
		o.EarlyStoppingMethod = method
		o.ReturnIntermediateSteps = c.Executor.ReturnIntermediateSteps
	}, nil
}

// LoggerConfig converts the logging section.
func (c *Config) LoggerConfig(out io.Writer) *logging.LoggerConfig {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.ParseLevel(c.Logging.Level)
	cfg.Output = out
	cfg.AddSource = false
	cfg.Component = "agentloop"
	if c.Logging.Format != "" {
		cfg.Format = c.Logging.Format
	}
	return cfg
}

// APIKey resolves the model API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.Model.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Model.APIKeyEnv)
}
