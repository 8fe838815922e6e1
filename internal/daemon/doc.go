// Package daemon hosts the long-running storycast process. It enforces
// single-instance execution with a lock file, owns the workflow manager
// lifecycle, and serves the read-only HTTP status API.
package daemon
