// Package ipc exposes daemon control over JSON-RPC on a Unix domain socket.
// The CLI is the only intended client; the socket lives under the data
// directory so filesystem permissions gate access.
package ipc
