// Package observer provides core.Observer implementations: a silent default,
// a styled console printer, a structured-logging observer, an OpenTelemetry
// span-event observer and a fan-out combinator.
//
// All observers in this package are safe for concurrent use, so a single
// instance may be shared by concurrently running executors.
package observer
