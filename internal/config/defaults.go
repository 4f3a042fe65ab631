package config

const (
	defaultDataDir            = "~/.local/share/shelfwatch"
	defaultLogDir             = "~/.local/share/shelfwatch/logs"
	defaultBind               = "127.0.0.1:7787"
	defaultAccessTokenMinutes = 15
	defaultRefreshTokenDays   = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultStaleDays          = 365
	defaultMaxMovieGiB        = 25.0
	defaultRequestGraceDays   = 14
	defaultRecentDays         = 7
	defaultSyncInterval       = 60
	defaultRequestTimeout     = 30
	defaultNotifyTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			Bind:    defaultBind,
		},
		Auth: Auth{
			AccessTokenMinutes: defaultAccessTokenMinutes,
			RefreshTokenDays:   defaultRefreshTokenDays,
		},
		Thresholds: Thresholds{
			StaleDays:          defaultStaleDays,
			MaxMovieGiB:        defaultMaxMovieGiB,
			PreferredLanguages: []string{"eng"},
			RequestGraceDays:   defaultRequestGraceDays,
			RecentDays:         defaultRecentDays,
		},
		Sync: Sync{
			IntervalMinutes: defaultSyncInterval,
			RequestTimeout:  defaultRequestTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			SyncComplete:   true,
			NewIssues:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
