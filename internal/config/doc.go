// Package config loads, validates, and normalizes storycast configuration
// from TOML with sensible defaults for every section.
package config
