package main

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentloop/config"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/model/anthropic"
	"github.com/hupe1980/agentloop/model/bedrock"
	"github.com/hupe1980/agentloop/model/gemini"
	"github.com/hupe1980/agentloop/model/openai"
	"github.com/hupe1980/agentloop/tool"
	"github.com/hupe1980/agentloop/tool/calculator"
	"github.com/hupe1980/agentloop/tool/sqldb"
)

// newModel builds the configured provider adapter, optionally rate limited,
// with debug logging of every call.
func newModel(ctx context.Context, cfg *config.Config, logger logging.Logger) (model.Model, error) {
	mc := cfg.Model

	var m model.Model

	switch mc.Provider {
	case config.ProviderOpenAI:
		m = openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.APIKey()
			o.Temperature = mc.Temperature
			if mc.Name != "" {
				o.Model = mc.Name
			}
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(mc.MaxTokens)
			}
		})
	case config.ProviderAnthropic:
		m = anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.APIKey()
			o.Temperature = mc.Temperature
			if mc.Name != "" {
				o.Model = anthropicsdk.Model(mc.Name)
			}
			if mc.MaxTokens > 0 {
				o.MaxTokens = int64(mc.MaxTokens)
			}
		})
	case config.ProviderBedrock:
		bm, err := bedrock.NewModel(ctx, func(o *bedrock.Options) {
			o.Region = mc.Region
			o.Temperature = mc.Temperature
			if mc.Name != "" {
				o.ModelID = mc.Name
			}
			if mc.MaxTokens > 0 {
				o.MaxTokens = mc.MaxTokens
			}
		})
		if err != nil {
			return nil, err
		}
		m = bm
	case config.ProviderGemini:
		gm, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			o.APIKey = cfg.APIKey()
			o.Temperature = float32(mc.Temperature)
			if mc.Name != "" {
				o.Model = mc.Name
			}
			if mc.MaxTokens > 0 {
				o.MaxTokens = int32(mc.MaxTokens)
			}
		})
		if err != nil {
			return nil, err
		}
		m = gm
	case config.ProviderMock:
		mm := model.NewMockModel(mc.Name)
		for prompt, response := range mc.Responses {
			mm.AddResponse(prompt, response)
		}
		m = mm
	default:
		return nil, fmt.Errorf("unknown provider %q", mc.Provider)
	}

	return model.WithRateLimit(model.WithLogging(m, logger), mc.RequestsPerMinute, mc.Burst), nil
}

// newTools builds the enabled tools. The returned cleanup closes any
// database handle.
func newTools(ctx context.Context, cfg *config.Config, logger logging.Logger) ([]tool.Tool, func(), error) {
	var (
		tools   []tool.Tool
		closers []func()
	)

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, name := range cfg.Tools.Enabled {
		var t tool.Tool

		switch name {
		case config.ToolCalculator:
			t = calculator.New()
		case config.ToolSQL:
			db, err := sqldb.Open(ctx, cfg.SQL.Driver, cfg.SQL.DSN)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			closers = append(closers, func() { _ = db.Close() })

			t = sqldb.New(db, func(o *sqldb.Options) {
				o.TopK = cfg.SQL.TopK
				o.ReadOnly = cfg.SQL.ReadOnly
				o.ReturnDirect = cfg.SQL.ReturnDirect
				o.Tables = cfg.SQL.Tables
				o.Logger = logger
			})
		default:
			cleanup()
			return nil, nil, fmt.Errorf("unknown tool %q", name)
		}

		if cfg.Tools.CacheSize > 0 {
			cached, err := tool.WithCache(t, cfg.Tools.CacheSize)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			t = cached
		}

		tools = append(tools, t)
	}

	return tools, cleanup, nil
}
