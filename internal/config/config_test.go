package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marquee/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "abc123"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Fatalf("expected default TMDB base url, got %q", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.MaxRequestsPerSecond != 30 {
		t.Fatalf("expected default rate ceiling, got %v", cfg.TMDB.MaxRequestsPerSecond)
	}
	if cfg.State.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend default, got %q", cfg.State.Backend)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadRequiresTMDBKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	path := writeConfig(t, "")

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error when tmdb api key missing")
	}
	if !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadHonorsEnvFallback(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	path := writeConfig(t, "")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TMDB.APIKey != "env-key" {
		t.Fatalf("expected env fallback for api key, got %q", cfg.TMDB.APIKey)
	}
}

func TestValidateNotionRequiresDatabases(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "abc123"

[notion]
enabled = true
token = "secret"
persons_database_id = "p"
upcoming_database_id = "u"
`)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for missing released database id")
	}
	if !strings.Contains(err.Error(), "released_database_id") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "abc123"

[state]
backend = "etcd"
`)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unknown state backend")
	}
}

func TestNormalizeCleansExclusions(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "abc123"

[exclusions]
project_ids = [" 42 ", "", "99"]
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Exclusions.ProjectIDs) != 2 || cfg.Exclusions.ProjectIDs[0] != "42" || cfg.Exclusions.ProjectIDs[1] != "99" {
		t.Fatalf("unexpected exclusions: %#v", cfg.Exclusions.ProjectIDs)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
