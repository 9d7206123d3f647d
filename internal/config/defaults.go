package config

const (
	defaultStateDir             = "~/.local/share/marquee/state"
	defaultLogDir               = "~/.local/share/marquee/logs"
	defaultCacheDir             = "~/.local/share/marquee/cache"
	defaultTMDBBaseURL          = "https://api.themoviedb.org/3"
	defaultTMDBLanguage         = "en-US"
	defaultTMDBMaxPerSecond     = 30.0
	defaultTMDBRequestTimeout   = 15
	defaultNotionBaseURL        = "https://api.notion.com"
	defaultNotionMaxPerSecond   = 3.0
	defaultNotionRequestTimeout = 30
	defaultSMTPHost             = "smtp.gmail.com"
	defaultSMTPPort             = 465
	defaultWatchlistTimeout     = 20
	defaultStateBackend         = "sqlite"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		TMDB: TMDB{
			BaseURL:              defaultTMDBBaseURL,
			Language:             defaultTMDBLanguage,
			MaxRequestsPerSecond: defaultTMDBMaxPerSecond,
			RequestTimeout:       defaultTMDBRequestTimeout,
		},
		Notion: Notion{
			BaseURL:              defaultNotionBaseURL,
			MaxRequestsPerSecond: defaultNotionMaxPerSecond,
			RequestTimeout:       defaultNotionRequestTimeout,
		},
		Email: Email{
			SMTPHost: defaultSMTPHost,
			SMTPPort: defaultSMTPPort,
		},
		Watchlist: Watchlist{
			RequestTimeout: defaultWatchlistTimeout,
		},
		State: State{
			Backend: defaultStateBackend,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
