package state

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"marquee/internal/catalog"
	"marquee/internal/config"
)

// State is the durable world model the reconciliation engine works
// against. All maps are keyed by external ID (person key for Persons,
// TMDB ID for projects).
type State struct {
	Persons  map[string]catalog.Person
	Upcoming map[string]catalog.FilmProject
	Released map[string]catalog.FilmProject
}

// NewState returns an empty, fully initialized state.
func NewState() *State {
	return &State{
		Persons:  make(map[string]catalog.Person),
		Upcoming: make(map[string]catalog.FilmProject),
		Released: make(map[string]catalog.FilmProject),
	}
}

// Store is the persistence adapter contract. LoadState tolerates a cold
// start by returning empty collections; SaveState is atomic with respect
// to a single invocation.
type Store interface {
	LoadState(ctx context.Context) (*State, error)
	SaveState(ctx context.Context, st *State) error

	// LookupPerson serves the durable name-to-identity cache so person
	// enrichment happens at most once.
	LookupPerson(ctx context.Context, key string) (catalog.Person, bool, error)
	SavePerson(ctx context.Context, person catalog.Person) error

	Close() error
}

// Open builds the configured Store backend.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	switch cfg.State.Backend {
	case "json":
		return OpenFile(filepath.Join(cfg.Paths.StateDir, "state.json"), logger)
	case "sqlite":
		return OpenSQLite(filepath.Join(cfg.Paths.StateDir, "state.db"), logger)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}
}
