// Package llm provides an OpenRouter-style chat client for script generation.
//
// This package is used by:
//   - Scripting stage: the single structure call and the per-segment draft
//     fan-out calls.
//
// # Configuration
//
// Requires api_key and model, optionally base_url and timeout. A job's
// assistant ref, when present, selects the model for that job's calls.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Structure: produce the ordered segment outline plus shared context.
// Client.Draft: fill one segment's content blocks.
//
// # Failure Behaviour
//
// Every call is a single attempt. Failed calls surface their HTTP status and
// response body; retrying is a queue operation driven by the user, never the
// client.
package llm
