package config

import (
	"errors"
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.UploadDir, err = expandPath(valueOr(c.Paths.UploadDir, defaultUploadDir)); err != nil {
		return err
	}
	if c.Paths.WorkDir, err = expandPath(valueOr(c.Paths.WorkDir, defaultWorkDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(valueOr(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(valueOr(c.Paths.APIBind, defaultAPIBind))

	c.FFmpeg.FFmpegBinary = strings.TrimSpace(valueOr(c.FFmpeg.FFmpegBinary, defaultFFmpegBinary))
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(valueOr(c.FFmpeg.FFprobeBinary, defaultFFprobeBinary))

	c.Transcriber.BaseURL = strings.TrimSpace(valueOr(c.Transcriber.BaseURL, defaultTranscriberBaseURL))
	c.Transcriber.APIKey = strings.TrimSpace(c.Transcriber.APIKey)
	c.Transcriber.Model = strings.TrimSpace(valueOr(c.Transcriber.Model, defaultTranscriberModel))

	c.Translator.BaseURL = strings.TrimSpace(valueOr(c.Translator.BaseURL, defaultTranslatorBaseURL))
	c.Translator.APIKey = strings.TrimSpace(c.Translator.APIKey)
	c.Translator.Model = strings.TrimSpace(valueOr(c.Translator.Model, defaultTranslatorModel))

	c.Logging.Format = strings.ToLower(strings.TrimSpace(valueOr(c.Logging.Format, defaultLogFormat)))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(valueOr(c.Logging.Level, defaultLogLevel)))
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateUploads(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateUploads() error {
	if c.Uploads.MaxSizeMiB <= 0 {
		return errors.New("uploads.max_size_mib must be positive")
	}
	return nil
}

func (c *Config) validateServices() error {
	if c.Transcriber.BaseURL == "" {
		return errors.New("transcriber.base_url must be set")
	}
	if c.Transcriber.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/subburn/config.toml"
		}
		return fmt.Errorf("transcriber.api_key is required. Edit %s (create with 'subburn config init')", defaultPath)
	}
	if c.Translator.BaseURL == "" {
		return errors.New("translator.base_url must be set")
	}
	if c.Translator.APIKey == "" {
		return errors.New("translator.api_key is required")
	}
	if c.Translator.BatchSize <= 0 {
		return errors.New("translator.batch_size must be positive")
	}
	if c.FFmpeg.ExtractTimeout <= 0 || c.FFmpeg.RenderTimeout <= 0 {
		return errors.New("ffmpeg timeouts must be positive")
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
	if c.Workflow.HeartbeatInterval <= 0 || c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow heartbeat settings must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	if c.Workflow.MaxActiveJobs <= 0 {
		return errors.New("workflow.max_active_jobs must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
