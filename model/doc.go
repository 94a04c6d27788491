// Package model defines the provider-agnostic port through which agents talk
// to language models, plus helpers shared by provider adapters.
//
// Core goals:
//   - A single blocking Generate call: rendered messages + stop sequences in, text out
//   - Keep request shapes minimal and transport independent
//   - Facilitate deterministic mocking for tests (MockModel, Func)
//   - Optional client-side rate limiting (WithRateLimit)
//
// Providers (OpenAI, Anthropic, Bedrock, Gemini) live in sub-packages and
// implement the Model interface so agents remain decoupled from vendor SDKs.
package model
