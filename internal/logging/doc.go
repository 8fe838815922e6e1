// Package logging configures log/slog output for storycast with console and
// JSON formats, shared attribute keys, and context-derived fields.
package logging
