package config

import (
	"errors"
	"fmt"
	"strings"
)

var validStrategies = map[string]struct{}{
	"static":  {},
	"fast":    {},
	"quality": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/storycast/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set STORYCAST_LLM_API_KEY env var or edit %s (create with 'storycast config init')", defaultPath)
	}
	if c.LLM.BaseURL == "" {
		return errors.New("llm.base_url must be set")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if c.TTS.BaseURL == "" {
		return errors.New("tts.base_url must be set")
	}
	if strings.TrimSpace(c.TTS.DefaultVoice) == "" {
		return errors.New("tts.default_voice must be set")
	}
	if c.TTS.TimeoutSeconds <= 0 {
		return errors.New("tts.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.BaseURL == "" {
		return errors.New("images.base_url must be set")
	}
	if c.Images.PerSegment <= 0 {
		return errors.New("images.per_segment must be positive")
	}
	if c.Images.TimeoutSeconds <= 0 {
		return errors.New("images.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateAssembly() error {
	if _, ok := validStrategies[c.Assembly.Strategy]; !ok {
		return fmt.Errorf("assembly.strategy must be one of static, fast, quality (got %q)", c.Assembly.Strategy)
	}
	if c.Assembly.FPS <= 0 {
		return errors.New("assembly.fps must be positive")
	}
	if !strings.Contains(c.Assembly.Resolution, "x") {
		return fmt.Errorf("assembly.resolution must look like 1920x1080 (got %q)", c.Assembly.Resolution)
	}
	if c.Assembly.TimeoutSeconds <= 0 {
		return errors.New("assembly.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
