package config

const (
	defaultCacheDir             = "~/.cache/bookscore"
	defaultLogDir               = "~/.local/share/bookscore/logs"
	defaultAPITimeoutSeconds    = 30
	defaultUploadTimeoutSeconds = 600
	defaultPollIntervalSeconds  = 5
	defaultStylePreset          = "cinematic"
	defaultMixWithAudiobook     = true
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 20
	defaultLogMaxBackups        = 5
	defaultLogMaxAgeDays        = 30
	defaultNotifyTimeout        = 10
	defaultDevServerBind        = "127.0.0.1:7490"
	defaultDevServerStepSeconds = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			TimeoutSeconds:       defaultAPITimeoutSeconds,
			UploadTimeoutSeconds: defaultUploadTimeoutSeconds,
		},
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Polling: Polling{
			IntervalSeconds: defaultPollIntervalSeconds,
		},
		Wizard: Wizard{
			StylePreset:      defaultStylePreset,
			MixWithAudiobook: defaultMixWithAudiobook,
		},
		Cache: Cache{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobCompleted:   true,
			JobFailed:      true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		DevServer: DevServer{
			Bind:        defaultDevServerBind,
			StepSeconds: defaultDevServerStepSeconds,
		},
	}
}
