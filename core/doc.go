// Package core provides the foundational domain types and ports shared by the
// agentloop packages. It defines:
//
//   - Decisions (Action | Finish) produced by an agent on every iteration
//   - Steps and the append-only Transcript fed back into prompts
//   - The StoppingMethod used once the iteration budget is exhausted
//   - The error taxonomy (ConfigError, ParseError, ToolExecutionError)
//   - The Observer port receiving lifecycle notifications
//   - RunContext, the per-call execution scope carrying the run ID and logger
//
// The package keeps implementation concerns (prompting, tool dispatch, model
// transport) out of scope, exposing small types so that agents, executors and
// observers can be developed and tested independently.
package core
