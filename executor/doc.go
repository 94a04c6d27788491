// Package executor drives the plan → act → observe loop of an agent.
//
// An Executor owns no per-call state: every Call builds its own transcript
// and iteration budget, so one Executor can serve concurrent calls as long
// as its tools and observer are safe for concurrent use (see CallBatch).
//
// Failure policy:
//   - An unknown tool name is fed back to the model as an observation
//   - A tool failure (error or panic) aborts the call with *core.ToolExecutionError
//   - A parse or model failure aborts the call unchanged
//   - Exhausting MaxIterations yields the agent's stopped response
package executor
