// Package testkit provides helpers for driving the harness from tests:
// clients and WebSocket sessions with automatic cleanup, plus a gqlgen-based
// harness for callers who want decoded responses instead of raw envelopes.
//
// The utilities run fully in process so suites stay fast in CI.
package testkit
