package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases are rejected rather than migrated in place.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match
// the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// SQLiteStore persists state in a single SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite initializes or connects to the state database.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "state", "open sqlite db", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrPersistence, "state", "apply pragma", pragma, execErr)
		}
	}

	store := &SQLiteStore{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "state"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "check schema_version table", "", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "read schema version", "", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start fresh)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "begin schema tx", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return services.Wrap(services.ErrPersistence, "state", "create schema", "", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return services.Wrap(services.ErrPersistence, "state", "record schema version", "", err)
	}
	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, "state", "commit schema", "", err)
	}
	return nil
}

// LoadState reads the full persisted world state. A fresh database
// yields empty collections.
func (s *SQLiteStore) LoadState(ctx context.Context) (*State, error) {
	st := NewState()

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, name, tmdb_id, tmdb_url, imdb_id, imdb_url, is_director, is_actor, projects_json FROM persons")
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "state", "query persons", "", err)
	}
	defer rows.Close()
	for rows.Next() {
		var person catalog.Person
		var isDirector, isActor int
		var projectsJSON string
		if err := rows.Scan(&person.Key, &person.Name, &person.TMDBID, &person.TMDBURL,
			&person.IMDBID, &person.IMDBURL, &isDirector, &isActor, &projectsJSON); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "state", "scan person", "", err)
		}
		person.IsDirector = isDirector != 0
		person.IsActor = isActor != 0
		if err := json.Unmarshal([]byte(projectsJSON), &person.Projects); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "state", "decode person projects", person.Key, err)
		}
		st.Persons[person.Key] = person
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "state", "iterate persons", "", err)
	}

	if st.Upcoming, err = s.loadProjects(ctx, "upcoming_projects"); err != nil {
		return nil, err
	}
	if st.Released, err = s.loadProjects(ctx, "released_projects"); err != nil {
		return nil, err
	}

	s.logger.Debug("loaded state",
		logging.Int("persons", len(st.Persons)),
		logging.Int("upcoming", len(st.Upcoming)),
		logging.Int("released", len(st.Released)))
	return st, nil
}

func (s *SQLiteStore) loadProjects(ctx context.Context, table string) (map[string]catalog.FilmProject, error) {
	projects := make(map[string]catalog.FilmProject)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT tmdb_id, tmdb_url, imdb_id, imdb_url, title, synopsis, genres_json, popularity, release_date, associated_json FROM %s", table))
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "state", "query "+table, "", err)
	}
	defer rows.Close()
	for rows.Next() {
		var project catalog.FilmProject
		var genresJSON, associatedJSON string
		if err := rows.Scan(&project.TMDBID, &project.TMDBURL, &project.IMDBID, &project.IMDBURL,
			&project.Title, &project.Synopsis, &genresJSON, &project.Popularity,
			&project.ReleaseDate, &associatedJSON); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "state", "scan "+table, "", err)
		}
		if err := json.Unmarshal([]byte(genresJSON), &project.Genres); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "state", "decode genres", project.TMDBID, err)
		}
		if err := json.Unmarshal([]byte(associatedJSON), &project.AssociatedPeople); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "state", "decode associations", project.TMDBID, err)
		}
		projects[project.TMDBID] = project
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "state", "iterate "+table, "", err)
	}
	return projects, nil
}

// SaveState writes the full world state in one transaction.
func (s *SQLiteStore) SaveState(ctx context.Context, st *State) error {
	if st == nil {
		return services.Wrap(services.ErrPersistence, "state", "save", "nil state", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "begin save tx", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"persons", "upcoming_projects", "released_projects"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return services.Wrap(services.ErrPersistence, "state", "clear "+table, "", err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, person := range st.Persons {
		if err := upsertPerson(ctx, tx, person, now); err != nil {
			return err
		}
	}
	for table, projects := range map[string]map[string]catalog.FilmProject{
		"upcoming_projects": st.Upcoming,
		"released_projects": st.Released,
	} {
		for _, project := range projects {
			if err := insertProject(ctx, tx, table, project, now); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, "state", "commit save tx", "", err)
	}
	return nil
}

// LookupPerson serves the durable person identity cache.
func (s *SQLiteStore) LookupPerson(ctx context.Context, key string) (catalog.Person, bool, error) {
	var person catalog.Person
	var isDirector, isActor int
	var projectsJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT key, name, tmdb_id, tmdb_url, imdb_id, imdb_url, is_director, is_actor, projects_json FROM persons WHERE key = ?", key).
		Scan(&person.Key, &person.Name, &person.TMDBID, &person.TMDBURL,
			&person.IMDBID, &person.IMDBURL, &isDirector, &isActor, &projectsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Person{}, false, nil
	}
	if err != nil {
		return catalog.Person{}, false, services.Wrap(services.ErrPersistence, "state", "lookup person", key, err)
	}
	person.IsDirector = isDirector != 0
	person.IsActor = isActor != 0
	if err := json.Unmarshal([]byte(projectsJSON), &person.Projects); err != nil {
		return catalog.Person{}, false, services.Wrap(services.ErrPersistence, "state", "decode person projects", key, err)
	}
	return person, true, nil
}

// SavePerson upserts a single person record immediately, outside the
// full-state snapshot path, so identity resolution survives a run that
// later fails.
func (s *SQLiteStore) SavePerson(ctx context.Context, person catalog.Person) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "begin person tx", person.Key, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := upsertPerson(ctx, tx, person, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, "state", "commit person tx", person.Key, err)
	}
	return nil
}

func upsertPerson(ctx context.Context, tx *sql.Tx, person catalog.Person, now string) error {
	projectsJSON, err := json.Marshal(emptyIfNil(person.Projects))
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "encode person projects", person.Key, err)
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO persons (key, name, tmdb_id, tmdb_url, imdb_id, imdb_url, is_director, is_actor, projects_json, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET
            name = excluded.name,
            tmdb_id = excluded.tmdb_id,
            tmdb_url = excluded.tmdb_url,
            imdb_id = excluded.imdb_id,
            imdb_url = excluded.imdb_url,
            is_director = excluded.is_director,
            is_actor = excluded.is_actor,
            projects_json = excluded.projects_json,
            updated_at = excluded.updated_at`,
		person.Key, person.Name, person.TMDBID, person.TMDBURL, person.IMDBID, person.IMDBURL,
		boolToInt(person.IsDirector), boolToInt(person.IsActor), string(projectsJSON), now)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "upsert person", person.Key, err)
	}
	return nil
}

func insertProject(ctx context.Context, tx *sql.Tx, table string, project catalog.FilmProject, now string) error {
	genresJSON, err := json.Marshal(emptyIfNil(project.Genres))
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "encode genres", project.TMDBID, err)
	}
	associatedJSON, err := json.Marshal(emptyIfNil(project.AssociatedPeople))
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "encode associations", project.TMDBID, err)
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
        INSERT INTO %s (tmdb_id, tmdb_url, imdb_id, imdb_url, title, synopsis, genres_json, popularity, release_date, associated_json, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table),
		project.TMDBID, project.TMDBURL, project.IMDBID, project.IMDBURL, project.Title,
		project.Synopsis, string(genresJSON), project.Popularity, project.ReleaseDate,
		string(associatedJSON), now)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "insert into "+table, project.TMDBID, err)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
