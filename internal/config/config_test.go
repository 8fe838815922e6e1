package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storycast/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[llm]
api_key = "test-key"
`)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Workflow.QueuePollInterval != 5 {
		t.Fatalf("expected default poll interval, got %d", cfg.Workflow.QueuePollInterval)
	}
	if cfg.Assembly.Strategy != "quality" {
		t.Fatalf("expected default strategy, got %q", cfg.Assembly.Strategy)
	}
	if cfg.Images.APIKey != "test-key" {
		t.Fatalf("expected images api key to fall back to llm key, got %q", cfg.Images.APIKey)
	}
}

func TestLoadRequiresLLMKey(t *testing.T) {
	path := writeConfig(t, "")
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected llm.api_key error, got %v", err)
	}
}

func TestLoadExpandsPaths(t *testing.T) {
	path := writeConfig(t, `
[paths]
data_dir = "~/storycast-data"

[llm]
api_key = "test-key"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir: %v", err)
	}
	want := filepath.Join(home, "storycast-data")
	if cfg.Paths.DataDir != want {
		t.Fatalf("expected %q, got %q", want, cfg.Paths.DataDir)
	}
}

func TestValidateRejectsBadStrategy(t *testing.T) {
	path := writeConfig(t, `
[llm]
api_key = "test-key"

[assembly]
strategy = "cinematic"
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "assembly.strategy") {
		t.Fatalf("expected strategy error, got %v", err)
	}
}

func TestValidateRejectsBadLogging(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		fragment string
	}{
		{
			name: "format",
			contents: `
[llm]
api_key = "k"

[logging]
format = "xml"
`,
			fragment: "logging.format",
		},
		{
			name: "level",
			contents: `
[llm]
api_key = "k"

[logging]
level = "verbose"
`,
			fragment: "logging.level",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("expected %s error, got %v", tc.fragment, err)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[assembly]") {
		t.Fatal("expected sample config to document the assembly section")
	}
}
