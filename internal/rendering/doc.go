// Package rendering implements the video assembly pipeline: resolve image
// assets for a completed podcast job (cached or regenerated), recompute the
// effect sequence for every image under the configured strategy, and issue
// the assembly call. Progress is mirrored into an assembly item record.
package rendering
