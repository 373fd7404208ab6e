package config

const (
	defaultUploadDir          = "~/.local/share/subburn/uploads"
	defaultWorkDir            = "~/.local/share/subburn/work"
	defaultLogDir             = "~/.local/share/subburn/logs"
	defaultAPIBind            = "127.0.0.1:8977"
	defaultMaxUploadMiB       = 500
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultExtractTimeout     = 300
	defaultRenderTimeout      = 1800
	defaultTranscriberBaseURL = "https://api.groq.com/openai/v1"
	defaultTranscriberModel   = "whisper-large-v3"
	defaultTranscriberTimeout = 120
	defaultTranslatorBaseURL  = "https://api.groq.com/openai/v1/chat/completions"
	defaultTranslatorModel    = "llama-3.3-70b-versatile"
	defaultTranslatorTimeout  = 60
	defaultTranslatorBatch    = 10
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 5
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultMaxActiveJobs      = 4
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir: defaultUploadDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Uploads: Uploads{
			MaxSizeMiB: defaultMaxUploadMiB,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			ExtractTimeout: defaultExtractTimeout,
			RenderTimeout:  defaultRenderTimeout,
		},
		Transcriber: Transcriber{
			BaseURL:        defaultTranscriberBaseURL,
			Model:          defaultTranscriberModel,
			TimeoutSeconds: defaultTranscriberTimeout,
		},
		Translator: Translator{
			BaseURL:        defaultTranslatorBaseURL,
			Model:          defaultTranslatorModel,
			TimeoutSeconds: defaultTranslatorTimeout,
			BatchSize:      defaultTranslatorBatch,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			MaxActiveJobs:      defaultMaxActiveJobs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
