/*
Package observability provides tools for monitoring editing sessions.

It turns editor hooks into Prometheus metrics and structured log records.
Hooks for several sinks are fanned out with Combine.
*/
package observability
