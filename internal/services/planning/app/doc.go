// Package server composes the planning application services and their HTTP
// and WebSocket entrypoint.
//
// It wires storage, identity resolution, authorization, and session-scoped
// notification fan-out into a runnable server so callers only supply
// configuration.
package server
