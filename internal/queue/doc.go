// Package queue persists storycast jobs and assembly items in SQLite so
// queue state survives daemon restarts. Dispatch order follows
// queue_position, which only enqueue, retry, and removal ever change.
package queue
