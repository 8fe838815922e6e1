// Package voicing implements the post-review stage for podcast jobs: the
// approved script's voice blocks travel to the synthesis service in a
// single batched call, and the returned file references become the job
// result.
package voicing
