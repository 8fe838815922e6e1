// Package api defines the queue operation surface shared by the CLI, the
// IPC layer, and the HTTP status server. It validates requests before they
// touch the store, translates internal queue models into transport-friendly
// DTOs, and nudges the workflow manager after every mutation.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums are exposed as lowercase
// strings. Script and result payloads pass through as json.RawMessage to
// avoid double-encoding. Pre-enqueue validation failures never create a
// job.
package api
