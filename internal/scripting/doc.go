// Package scripting implements the first pipeline stage for podcast jobs:
// one structure call producing the segment outline, then a concurrent draft
// call per segment. All drafts must succeed or the stage fails and the
// partial content is discarded. A successful run parks the job at the
// review gate instead of completing it.
package scripting
