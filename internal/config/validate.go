package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateNotion(); err != nil {
		return err
	}
	if err := c.validateEmail(); err != nil {
		return err
	}
	if err := c.validateState(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/marquee/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'marquee config init')", defaultPath)
	}
	if c.TMDB.MaxRequestsPerSecond > 50 {
		return errors.New("tmdb.max_requests_per_second must not exceed 50")
	}
	return nil
}

func (c *Config) validateNotion() error {
	if !c.Notion.Enabled {
		return nil
	}
	if c.Notion.Token == "" {
		return errors.New("notion.token must be set when notion.enabled is true")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"notion.persons_database_id", c.Notion.PersonsDatabaseID},
		{"notion.upcoming_database_id", c.Notion.UpcomingDatabaseID},
		{"notion.released_database_id", c.Notion.ReleasedDatabaseID},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s must be set when notion.enabled is true", field.name)
		}
	}
	return nil
}

func (c *Config) validateEmail() error {
	if !c.Email.Enabled {
		return nil
	}
	if c.Email.SenderAddress == "" {
		return errors.New("email.sender_address must be set when email.enabled is true")
	}
	if c.Email.SenderPassword == "" {
		return errors.New("email.sender_password must be set when email.enabled is true (or export MARQUEE_SMTP_PASSWORD)")
	}
	if c.Email.Recipient == "" {
		return errors.New("email.recipient must be set when email.enabled is true")
	}
	return nil
}

func (c *Config) validateState() error {
	switch c.State.Backend {
	case "sqlite", "json":
		return nil
	default:
		return fmt.Errorf("state.backend must be \"sqlite\" or \"json\", got %q", c.State.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
