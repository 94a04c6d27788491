package model

import (
	"context"
	"time"

	"github.com/hupe1980/agentloop/logging"
)

// LoggingModel records every Generate call at debug level.
type LoggingModel struct {
	Model
	logger logging.Logger
}

// WithLogging wraps m so that each call emits model.generate.complete or
// model.generate.error at debug level. A nil logger returns m unchanged.
func WithLogging(m Model, logger logging.Logger) Model {
	if logger == nil {
		return m
	}
	return &LoggingModel{Model: m, logger: logger}
}

// Generate delegates to the wrapped model. Loggers implementing
// logging.CallRecorder receive a dedicated model call entry instead.
func (l *LoggingModel) Generate(ctx context.Context, req Request) (string, error) {
	info := l.Info()
	start := time.Now()

	text, err := l.Model.Generate(ctx, req)

	if cr, ok := l.logger.(logging.CallRecorder); ok {
		cr.LogLLMCall(info.Provider+"/"+info.Name, len(text), time.Since(start), err == nil, err)
	} else if err != nil {
		l.logger.Debug("model.generate.error", "provider", info.Provider, "model", info.Name, "duration", time.Since(start), "error", err)
	} else {
		l.logger.Debug("model.generate.complete", "provider", info.Provider, "model", info.Name,
			"duration", time.Since(start), "messages", len(req.Messages), "stop", req.Stop, "output_len", len(text))
	}

	if err != nil {
		return "", err
	}

	return text, nil
}
