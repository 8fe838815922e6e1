// Package notifications publishes workflow events to an ntfy topic. Review
// gates, completions, and failures each map to one push message; sections of
// the notifications config toggle them individually. Without a configured
// topic every publish is a no-op.
package notifications
