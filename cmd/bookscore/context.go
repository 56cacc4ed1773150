package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bookscore/internal/config"
	"bookscore/internal/jobcache"
	"bookscore/internal/jobsapi"
	"bookscore/internal/logging"
	"bookscore/internal/notifications"
	"bookscore/internal/poller"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	cacheOnce sync.Once
	cache     *jobcache.Store
	cacheErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// log returns the process logger. Construction failures fall back to a
// console logger on stderr so a bad log path never blocks a command.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: "info", Format: "console"})
			logger.Warn("log file unavailable; logging to stderr only", logging.Error(err))
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) apiClient() (*jobsapi.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := jobsapi.NewFromConfig(cfg, c.log())
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	return client, nil
}

// jobCache opens the local cache, or returns nil when caching is disabled.
// Open failures are logged and treated as a disabled cache.
func (c *commandContext) jobCache() *jobcache.Store {
	c.cacheOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil || !cfg.Cache.Enabled {
			return
		}
		c.cache, c.cacheErr = jobcache.Open(cfg)
		if c.cacheErr != nil {
			c.log().Warn("job cache unavailable",
				logging.String("path", cfg.CacheDBPath()),
				logging.Error(c.cacheErr),
			)
		}
	})
	return c.cache
}

func (c *commandContext) notifier() notifications.Service {
	return notifications.NewService(c.configValue())
}

func (c *commandContext) close() {
	if c.cache != nil {
		_ = c.cache.Close()
		c.cache = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// pollCache adapts jobCache to the poller's interface without handing it a
// typed nil.
func (c *commandContext) pollCache() poller.Cache {
	if store := c.jobCache(); store != nil {
		return store
	}
	return nil
}
