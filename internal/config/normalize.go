package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	envAPIBaseURL         = "BOOKSCORE_API_BASE_URL"
	envAPIToken           = "BOOKSCORE_API_TOKEN"
	envStatusPathPrefix   = "BOOKSCORE_STATUS_PATH_PREFIX"
	envSegmentsPathPrefix = "BOOKSCORE_SEGMENTS_PATH_PREFIX"
	envNtfyTopic          = "BOOKSCORE_NTFY_TOPIC"
)

func (c *Config) normalize() error {
	c.normalizeAPI()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePolling()
	c.normalizeWizard()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeDevServer()
	return nil
}

func envFallback(current, key string) string {
	current = strings.TrimSpace(current)
	if current != "" {
		return current
	}
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(envFallback(c.API.BaseURL, envAPIBaseURL), "/")
	// The token is sent verbatim, so only surrounding whitespace is dropped.
	c.API.Token = envFallback(c.API.Token, envAPIToken)
	c.API.StatusPathPrefix = normalizePrefix(envFallback(c.API.StatusPathPrefix, envStatusPathPrefix))
	c.API.SegmentsPathPrefix = normalizePrefix(envFallback(c.API.SegmentsPathPrefix, envSegmentsPathPrefix))
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeoutSeconds
	}
	if c.API.UploadTimeoutSeconds <= 0 {
		c.API.UploadTimeoutSeconds = defaultUploadTimeoutSeconds
	}
}

// normalizePrefix returns "" or a path with a single leading slash and no
// trailing slash, so it can be joined in front of "/jobs/...".
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePolling() {
	if c.Polling.IntervalSeconds == 0 {
		c.Polling.IntervalSeconds = defaultPollIntervalSeconds
	}
}

func (c *Config) normalizeWizard() {
	c.Wizard.StylePreset = strings.ToLower(strings.TrimSpace(c.Wizard.StylePreset))
	if c.Wizard.StylePreset == "" {
		c.Wizard.StylePreset = defaultStylePreset
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = envFallback(c.Notifications.NtfyTopic, envNtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

func (c *Config) normalizeDevServer() {
	c.DevServer.Bind = strings.TrimSpace(c.DevServer.Bind)
	if c.DevServer.Bind == "" {
		c.DevServer.Bind = defaultDevServerBind
	}
	if c.DevServer.StepSeconds <= 0 {
		c.DevServer.StepSeconds = defaultDevServerStepSeconds
	}
}
