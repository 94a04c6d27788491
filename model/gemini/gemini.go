// Package gemini provides a model.Model backed by the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/hupe1980/agentloop/model"
)

// Options configures the Gemini adapter.
type Options struct {
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int32
}

// Model wraps a genai client. A GenerativeModel is created per request so
// that stop sequences and system instructions never leak between
// concurrent calls.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a genai client authenticated with the configured API key.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions(optFns...)
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Model:     "gemini-1.5-flash",
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Close releases the underlying client.
func (m *Model) Close() error {
	return m.client.Close()
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (string, error) {
	gm := m.client.GenerativeModel(m.opts.Model)
	configure(gm, m.opts, req)

	parts := userParts(req)
	if len(parts) == 0 {
		return "", fmt.Errorf("no messages provided")
	}

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with gemini: %w", err)
	}

	return responseText(resp)
}

func configure(gm *genai.GenerativeModel, opts Options, req model.Request) {
	gm.SetTemperature(opts.Temperature)
	gm.SetMaxOutputTokens(opts.MaxTokens)
	gm.StopSequences = req.Stop

	if system := req.System(); system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
}

func userParts(req model.Request) []genai.Part {
	var parts []genai.Part
	for _, msg := range req.Messages {
		if msg.Role == model.RoleSystem || msg.Text == "" {
			continue
		}
		parts = append(parts, genai.Text(msg.Text))
	}
	return parts
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("received an empty response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return sb.String(), nil
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "gemini"}
}
