package config

const (
	defaultDataDir               = "~/.local/share/storycast"
	defaultLogDir                = "~/.local/share/storycast/logs"
	defaultMediaDir              = "~/.local/share/storycast/media"
	defaultAPIBind               = "127.0.0.1:7319"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds     = 120
	defaultTTSBaseURL            = "https://api.openai.com/v1/audio/speech"
	defaultTTSModel              = "gpt-4o-mini-tts"
	defaultTTSVoice              = "alloy"
	defaultTTSTimeoutSeconds     = 300
	defaultImagesBaseURL         = "https://api.openai.com/v1/images/generations"
	defaultImageSize             = "1792x1024"
	defaultImagesPerSegment      = 2
	defaultImagesTimeoutSeconds  = 300
	defaultAssemblyResolution    = "1920x1080"
	defaultAssemblyFPS           = 30
	defaultAssemblyStrategy      = "quality"
	defaultAssemblyTimeout       = 1800
	defaultQueuePollInterval     = 5
	defaultErrorRetryInterval    = 10
	defaultNotifyRequestTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			MediaDir: defaultMediaDir,
			APIBind:  defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Model:          defaultTTSModel,
			DefaultVoice:   defaultTTSVoice,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Images: Images{
			BaseURL:        defaultImagesBaseURL,
			Size:           defaultImageSize,
			PerSegment:     defaultImagesPerSegment,
			TimeoutSeconds: defaultImagesTimeoutSeconds,
		},
		Assembly: Assembly{
			Resolution:     defaultAssemblyResolution,
			FPS:            defaultAssemblyFPS,
			Strategy:       defaultAssemblyStrategy,
			TimeoutSeconds: defaultAssemblyTimeout,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Review:         true,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
