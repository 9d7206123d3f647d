package state

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/services"
)

// FileStore persists state as a single JSON document. Writes go to a
// temp file first and are renamed into place so a crash mid-write cannot
// corrupt the previously committed state.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	current *State
}

var _ Store = (*FileStore)(nil)

type stateDocument struct {
	Persons  map[string]catalog.Person      `json:"persons"`
	Upcoming map[string]catalog.FilmProject `json:"upcoming"`
	Released map[string]catalog.FilmProject `json:"released"`
}

// OpenFile loads (or lazily creates) a JSON-backed store at path.
func OpenFile(path string, logger *slog.Logger) (*FileStore, error) {
	store := &FileStore{
		path:   path,
		logger: logging.NewComponentLogger(logger, "state"),
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *FileStore) load() error {
	s.current = NewState()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // cold start
		}
		return services.Wrap(services.ErrPersistence, "state", "read state file", s.path, err)
	}
	if len(data) == 0 {
		return nil
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return services.Wrap(services.ErrPersistence, "state", "parse state file", s.path, err)
	}
	if doc.Persons != nil {
		s.current.Persons = doc.Persons
	}
	if doc.Upcoming != nil {
		s.current.Upcoming = doc.Upcoming
	}
	if doc.Released != nil {
		s.current.Released = doc.Released
	}

	s.logger.Debug("loaded state file",
		logging.Int("persons", len(s.current.Persons)),
		logging.Int("upcoming", len(s.current.Upcoming)),
		logging.Int("released", len(s.current.Released)))
	return nil
}

// LoadState returns a deep copy of the in-memory document so callers can
// mutate working sets without touching the committed view.
func (s *FileStore) LoadState(context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.current), nil
}

// SaveState replaces the document on disk atomically.
func (s *FileStore) SaveState(_ context.Context, st *State) error {
	if st == nil {
		return services.Wrap(services.ErrPersistence, "state", "save", "nil state", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = copyState(st)
	return s.flush()
}

// LookupPerson serves the durable person identity cache.
func (s *FileStore) LookupPerson(_ context.Context, key string) (catalog.Person, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.current.Persons[key]
	return person, ok, nil
}

// SavePerson upserts a single person record and persists immediately.
func (s *FileStore) SavePerson(_ context.Context, person catalog.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Persons[person.Key] = person
	return s.flush()
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) flush() error {
	doc := stateDocument{
		Persons:  s.current.Persons,
		Upcoming: s.current.Upcoming,
		Released: s.current.Released,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPersistence, "state", "marshal state", "", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrPersistence, "state", "create state directory", dir, err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return services.Wrap(services.ErrPersistence, "state", "write temp file", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrPersistence, "state", "rename temp file", s.path, err)
	}
	return nil
}

func copyState(st *State) *State {
	out := NewState()
	for key, person := range st.Persons {
		person.Projects = append([]string(nil), person.Projects...)
		out.Persons[key] = person
	}
	for id, project := range st.Upcoming {
		out.Upcoming[id] = copyProject(project)
	}
	for id, project := range st.Released {
		out.Released[id] = copyProject(project)
	}
	return out
}

func copyProject(project catalog.FilmProject) catalog.FilmProject {
	project.Genres = append([]string(nil), project.Genres...)
	project.AssociatedPeople = append([]string(nil), project.AssociatedPeople...)
	return project
}
