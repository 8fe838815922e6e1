// Package textutil sanitizes user-supplied text, such as topic prompts, into
// safe filesystem names and tokens.
package textutil
