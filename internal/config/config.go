package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey               string  `toml:"api_key"`
	BaseURL              string  `toml:"base_url"`
	Language             string  `toml:"language"`
	MaxRequestsPerSecond float64 `toml:"max_requests_per_second"`
	RequestTimeout       int     `toml:"request_timeout"`
}

// Notion contains configuration for the notes-database digest sink.
type Notion struct {
	Enabled              bool    `toml:"enabled"`
	Token                string  `toml:"token"`
	BaseURL              string  `toml:"base_url"`
	PersonsDatabaseID    string  `toml:"persons_database_id"`
	UpcomingDatabaseID   string  `toml:"upcoming_database_id"`
	ReleasedDatabaseID   string  `toml:"released_database_id"`
	MaxRequestsPerSecond float64 `toml:"max_requests_per_second"`
	RequestTimeout       int     `toml:"request_timeout"`
}

// Email contains configuration for the email digest sink.
type Email struct {
	Enabled        bool   `toml:"enabled"`
	SMTPHost       string `toml:"smtp_host"`
	SMTPPort       int    `toml:"smtp_port"`
	SenderAddress  string `toml:"sender_address"`
	SenderPassword string `toml:"sender_password"`
	Recipient      string `toml:"recipient"`
}

// Watchlist contains the sources the tracked-person lists are read from.
// URL sources point at hosted note pages whose plaintext div holds one
// name per line; file sources are local newline-delimited lists.
type Watchlist struct {
	DirectorsURL   string `toml:"directors_url"`
	ActorsURL      string `toml:"actors_url"`
	DirectorsFile  string `toml:"directors_file"`
	ActorsFile     string `toml:"actors_file"`
	RequestTimeout int    `toml:"request_timeout"`
	PruneRemoved   bool   `toml:"prune_removed"`
}

// State selects and configures the persistence backend.
type State struct {
	Backend string `toml:"backend"` // "sqlite" or "json"
}

// Exclusions lists projects to ignore permanently even when matched.
type Exclusions struct {
	ProjectIDs []string `toml:"project_ids"`
	File       string   `toml:"file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for marquee.
//
// Configuration sections by subsystem:
//   - Paths: state, cache, and log directories
//   - TMDB: catalog credentials, language, and rate ceiling
//   - Notion: notes-database sink databases and rate ceiling
//   - Email: SMTP digest delivery
//   - Watchlist: director/actor list sources
//   - State: persistence backend selection
//   - Exclusions: permanently ignored project IDs
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	TMDB       TMDB       `toml:"tmdb"`
	Notion     Notion     `toml:"notion"`
	Email      Email      `toml:"email"`
	Watchlist  Watchlist  `toml:"watchlist"`
	State      State      `toml:"state"`
	Exclusions Exclusions `toml:"exclusions"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/marquee/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("marquee.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for a run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path, refusing
// to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves ~ prefixes and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
