package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration settings.
// It is resolved once at startup and never mutated afterwards.
type Config struct {
	BotToken    string `envconfig:"BOT_TOKEN" required:"true"`
	BotDebug    bool   `envconfig:"BOT_DEBUG" default:"false"`
	PollTimeout int    `envconfig:"POLL_TIMEOUT" default:"60"`

	DownloadDir            string `envconfig:"DOWNLOAD_DIR" default:"/workspace/data"`
	MaxConcurrentDownloads int    `envconfig:"MAX_CONCURRENT_DOWNLOADS" default:"2"`
	UploadLimitMB          int    `envconfig:"TELEGRAM_UPLOAD_LIMIT_MB" default:"1950"`
	Timezone               string `envconfig:"TZ"`
	AllowPrivateHosts      bool   `envconfig:"ALLOW_PRIVATE_HOSTS" default:"false"`

	ProgressInterval       time.Duration `envconfig:"PROGRESS_INTERVAL" default:"1s"`
	EngineProgressInterval time.Duration `envconfig:"ENGINE_PROGRESS_INTERVAL" default:"250ms"`
	ExtractRetries         int           `envconfig:"EXTRACT_RETRIES" default:"3"`
	ExtractFragmentRetries int           `envconfig:"EXTRACT_FRAGMENT_RETRIES" default:"3"`
	MergeFormat            string        `envconfig:"MERGE_FORMAT" default:"mp4"`
	YTDLPPath              string        `envconfig:"YTDLP_PATH"`

	StateFile       string        `envconfig:"STATE_FILE"`
	AdminAddr       string        `envconfig:"ADMIN_ADDR"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// UploadLimitBytes returns the upload limit converted from megabytes (MiB) to bytes.
func (c *Config) UploadLimitBytes() int64 {
	return int64(c.UploadLimitMB) * 1024 * 1024
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return fmt.Errorf("bot token cannot be empty")
	}

	if c.MaxConcurrentDownloads <= 0 {
		return fmt.Errorf("max concurrent downloads must be positive: %d", c.MaxConcurrentDownloads)
	}

	if c.UploadLimitMB <= 0 {
		return fmt.Errorf("upload limit must be positive: %d", c.UploadLimitMB)
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("download directory cannot be empty")
	}

	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress interval cannot be negative: %s", c.ProgressInterval)
	}

	if c.ExtractRetries < 0 || c.ExtractFragmentRetries < 0 {
		return fmt.Errorf("retry counts cannot be negative: %d/%d", c.ExtractRetries, c.ExtractFragmentRetries)
	}

	if c.MergeFormat == "" {
		return fmt.Errorf("merge format cannot be empty")
	}

	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive: %d", c.PollTimeout)
	}

	return nil
}
