// Package testutil contains helpers used across tests to reduce boilerplate
// when scripting model completions, recording observer notifications and
// building tools with fixed behavior. These helpers are intentionally
// minimal and not intended for production usage.
package testutil
