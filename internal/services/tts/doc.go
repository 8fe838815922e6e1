// Package tts wraps the batched voice synthesis service. The voicing stage
// submits every block of an approved script in one request and records the
// returned file references as the job result. Calls are single attempt.
package tts
