package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTMDB(); err != nil {
		return err
	}
	if err := c.normalizeNotion(); err != nil {
		return err
	}
	c.normalizeEmail()
	if err := c.normalizeWatchlist(); err != nil {
		return err
	}
	if err := c.normalizeExclusions(); err != nil {
		return err
	}
	c.normalizeState()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() error {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.MaxRequestsPerSecond <= 0 {
		c.TMDB.MaxRequestsPerSecond = defaultTMDBMaxPerSecond
	}
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
	return nil
}

func (c *Config) normalizeNotion() error {
	if c.Notion.Token == "" {
		if value, ok := os.LookupEnv("MARQUEE_NOTION_TOKEN"); ok {
			c.Notion.Token = value
		}
	}
	c.Notion.Token = strings.TrimSpace(c.Notion.Token)
	c.Notion.BaseURL = strings.TrimRight(strings.TrimSpace(c.Notion.BaseURL), "/")
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = defaultNotionBaseURL
	}
	if c.Notion.MaxRequestsPerSecond <= 0 {
		c.Notion.MaxRequestsPerSecond = defaultNotionMaxPerSecond
	}
	if c.Notion.RequestTimeout <= 0 {
		c.Notion.RequestTimeout = defaultNotionRequestTimeout
	}
	return nil
}

func (c *Config) normalizeEmail() {
	if c.Email.SenderPassword == "" {
		if value, ok := os.LookupEnv("MARQUEE_SMTP_PASSWORD"); ok {
			c.Email.SenderPassword = value
		}
	}
	c.Email.SMTPHost = strings.TrimSpace(c.Email.SMTPHost)
	if c.Email.SMTPHost == "" {
		c.Email.SMTPHost = defaultSMTPHost
	}
	if c.Email.SMTPPort <= 0 {
		c.Email.SMTPPort = defaultSMTPPort
	}
	c.Email.SenderAddress = strings.TrimSpace(c.Email.SenderAddress)
	c.Email.Recipient = strings.TrimSpace(c.Email.Recipient)
}

func (c *Config) normalizeWatchlist() error {
	var err error
	c.Watchlist.DirectorsURL = strings.TrimSpace(c.Watchlist.DirectorsURL)
	c.Watchlist.ActorsURL = strings.TrimSpace(c.Watchlist.ActorsURL)
	if c.Watchlist.DirectorsFile != "" {
		if c.Watchlist.DirectorsFile, err = expandPath(c.Watchlist.DirectorsFile); err != nil {
			return fmt.Errorf("watchlist.directors_file: %w", err)
		}
	}
	if c.Watchlist.ActorsFile != "" {
		if c.Watchlist.ActorsFile, err = expandPath(c.Watchlist.ActorsFile); err != nil {
			return fmt.Errorf("watchlist.actors_file: %w", err)
		}
	}
	if c.Watchlist.RequestTimeout <= 0 {
		c.Watchlist.RequestTimeout = defaultWatchlistTimeout
	}
	return nil
}

func (c *Config) normalizeExclusions() error {
	if c.Exclusions.File != "" {
		expanded, err := expandPath(c.Exclusions.File)
		if err != nil {
			return fmt.Errorf("exclusions.file: %w", err)
		}
		c.Exclusions.File = expanded
	}
	cleaned := make([]string, 0, len(c.Exclusions.ProjectIDs))
	for _, id := range c.Exclusions.ProjectIDs {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	c.Exclusions.ProjectIDs = cleaned
	return nil
}

func (c *Config) normalizeState() {
	c.State.Backend = strings.ToLower(strings.TrimSpace(c.State.Backend))
	if c.State.Backend == "" {
		c.State.Backend = defaultStateBackend
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
