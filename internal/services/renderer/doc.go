// Package renderer wraps the video assembly service. The rendering stage
// submits resolved images with their effect sequences plus the voice files
// of the source podcast job, and records the returned artifact reference.
// Calls are single attempt.
package renderer
