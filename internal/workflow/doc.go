// Package workflow coordinates queue processing. A single dispatch loop
// pulls the oldest eligible job, runs the stage matching the job's kind and
// review state, and persists the outcome. At most one job is processing at
// any moment; everything else waits in queue position order. The loop wakes
// on queue mutations and falls back to a poll interval as a safety net.
package workflow
