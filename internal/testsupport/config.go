package testsupport

import (
	"path/filepath"
	"testing"

	"storycast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.MediaDir = filepath.Join(base, "media")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.LLM.APIKey = "test"
	cfg.TTS.APIKey = "test"
	cfg.Images.APIKey = "test"
	cfg.Assembly.BaseURL = "http://assembly.test"
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithLLMBaseURL points the structure/draft service at a test server.
func WithLLMBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.BaseURL = url
	}
}

// WithTTSBaseURL points the voice synthesis service at a test server.
func WithTTSBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.TTS.BaseURL = url
	}
}

// WithImagesBaseURL points the image service at a test server.
func WithImagesBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Images.BaseURL = url
	}
}

// WithAssemblyBaseURL points the assembly service at a test server.
func WithAssemblyBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Assembly.BaseURL = url
	}
}
