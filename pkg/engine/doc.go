// Package engine defines the gateway to the external optimization engine.
//
// The engine is an opaque remote service consumed through the Engine
// interface; HTTPEngine is the JSON-over-HTTP adapter. The gateway
// normalizes the engine's status/result/error surface and performs no
// retries of its own: retry and backoff policy belongs to the caller.
package engine
