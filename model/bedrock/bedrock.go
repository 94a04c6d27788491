// Package bedrock provides a model.Model backed by Anthropic Claude models
// served through AWS Bedrock's InvokeModel API.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/hupe1980/agentloop/model"
)

const anthropicVersion = "bedrock-2023-05-31"

// InvokeModelAPI is the subset of the Bedrock runtime client used by Model.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Options configures the Bedrock adapter.
type Options struct {
	ModelID     string
	Region      string
	Temperature float64
	MaxTokens   int
}

// Model invokes Anthropic models on Bedrock.
type Model struct {
	client InvokeModelAPI
	opts   Options
}

// NewModel loads the default AWS configuration and creates a runtime client.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions(optFns...)

	var cfgOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Model{client: bedrockruntime.NewFromConfig(cfg), opts: opts}, nil
}

// NewModelFromClient creates a Model from an existing (or fake) client.
func NewModelFromClient(client InvokeModelAPI, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: defaultOptions(optFns...)}
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		ModelID:   "anthropic.claude-3-5-sonnet-20240620-v1:0",
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	System           string    `json:"system,omitempty"`
	StopSequences    []string  `json:"stop_sequences,omitempty"`
	Messages         []message `json:"messages"`
}

type invokeResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (string, error) {
	body, err := m.buildBody(req)
	if err != nil {
		return "", fmt.Errorf("failed to create bedrock request: %w", err)
	}

	resp, err := m.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.opts.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke bedrock model: %w", err)
	}

	return parseBody(resp.Body)
}

func (m *Model) buildBody(req model.Request) ([]byte, error) {
	r := invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        m.opts.MaxTokens,
		Temperature:      m.opts.Temperature,
		System:           req.System(),
		StopSequences:    req.Stop,
	}

	for _, msg := range req.Messages {
		if msg.Role == model.RoleSystem || msg.Text == "" {
			continue
		}

		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "assistant"
		}

		r.Messages = append(r.Messages, message{
			Role:    role,
			Content: []contentBlock{{Type: "text", Text: msg.Text}},
		})
	}

	return json.Marshal(r)
}

func parseBody(body []byte) (string, error) {
	var resp invokeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal bedrock response: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("bedrock api error: %s", resp.Error.Message)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return sb.String(), nil
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.ModelID, Provider: "bedrock"}
}
