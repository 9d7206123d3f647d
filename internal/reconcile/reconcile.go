package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/logging"
)

// ReleaseStatus is the catalog's answer for a single project during the
// graduation pass.
type ReleaseStatus struct {
	Released    bool
	ReleaseDate string
}

// StatusChecker looks up the current release status of one project.
// Implementations talk to the catalog source; the engine itself never
// performs I/O beyond these calls.
type StatusChecker interface {
	ReleaseStatus(ctx context.Context, projectID string) (ReleaseStatus, error)
}

// StatusCheckerFunc adapts a function to the StatusChecker interface.
type StatusCheckerFunc func(ctx context.Context, projectID string) (ReleaseStatus, error)

func (f StatusCheckerFunc) ReleaseStatus(ctx context.Context, projectID string) (ReleaseStatus, error) {
	return f(ctx, projectID)
}

// Result is the delta a reconciliation pass produced. An empty Result
// means the run observed nothing new, which is exactly what a repeated
// run over identical input must yield. UpdatedAssociations maps a
// project ID to its full associated-people list after the merge, keyed
// only for projects that gained at least one new person this pass.
type Result struct {
	NewlyAdded          []catalog.FilmProject
	NewlyReleased       []catalog.FilmProject
	UpdatedAssociations map[string][]string
	UpdatedPersons      []catalog.Person
}

// Empty reports whether the pass changed anything worth publishing.
func (r *Result) Empty() bool {
	return len(r.NewlyAdded) == 0 &&
		len(r.NewlyReleased) == 0 &&
		len(r.UpdatedAssociations) == 0
}

// Engine folds fetched candidates into the persisted world model. All
// matching is by external ID only; titles and synopses may drift between
// runs without creating duplicates.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logging.NewComponentLogger(logger, "reconcile")}
}

// Graduate moves projects whose release has happened from upcoming to
// released. A project graduates only when the checker reports a released
// status and a concrete release date on or before now; an unknown date
// keeps it upcoming no matter what the status field says. Checker
// failures skip that project for this run and leave both sets intact.
//
// The upcoming and released maps are mutated in place. The returned
// slice lists the graduated projects in ID order.
func (e *Engine) Graduate(ctx context.Context, upcoming, released map[string]catalog.FilmProject, checker StatusChecker, now time.Time) []catalog.FilmProject {
	ids := sortedKeys(upcoming)

	var graduated []catalog.FilmProject
	for _, id := range ids {
		project := upcoming[id]

		status, err := checker.ReleaseStatus(ctx, id)
		if err != nil {
			e.logger.Warn("release check failed, keeping project upcoming",
				logging.String(logging.FieldProjectID, id),
				logging.String("title", project.Title),
				logging.Error(err))
			continue
		}
		if !status.Released {
			continue
		}
		releaseDate, ok := parseDate(status.ReleaseDate)
		if !ok {
			continue
		}
		if releaseDate.After(now) {
			continue
		}

		project.ReleaseDate = status.ReleaseDate
		delete(upcoming, id)
		released[id] = project
		graduated = append(graduated, project)

		e.logger.Info("project released",
			logging.String(logging.FieldProjectID, id),
			logging.String("title", project.Title),
			logging.String("release_date", project.ReleaseDate))
	}
	return graduated
}

// Merge folds candidate projects into the upcoming set. Persons and
// upcoming are mutated in place; the Result describes only what changed.
// A candidate whose ID is already released or excluded is dropped, so a
// graduated project can never re-enter the upcoming set.
func (e *Engine) Merge(persons map[string]catalog.Person, upcoming, released map[string]catalog.FilmProject, candidatesByPerson map[string][]catalog.FilmProject, excluded map[string]struct{}) *Result {
	result := &Result{UpdatedAssociations: make(map[string][]string)}

	addedThisPass := make(map[string]int) // project ID -> index in NewlyAdded
	changedPersons := make(map[string]struct{})

	for _, personKey := range sortedKeys(candidatesByPerson) {
		person, known := persons[personKey]
		if !known {
			e.logger.Warn("candidates for unknown person dropped",
				logging.String(logging.FieldPerson, personKey))
			continue
		}

		for _, candidate := range candidatesByPerson[personKey] {
			id := candidate.TMDBID
			if id == "" {
				continue
			}
			if _, done := released[id]; done {
				continue
			}
			if _, skip := excluded[id]; skip {
				e.logger.Debug("excluded project skipped",
					logging.String(logging.FieldProjectID, id),
					logging.String("title", candidate.Title))
				continue
			}

			if person.AddProject(id) {
				changedPersons[personKey] = struct{}{}
			}

			if idx, dup := addedThisPass[id]; dup {
				// Same project surfaced by a second person this pass.
				if result.NewlyAdded[idx].AddAssociate(personKey) {
					project := upcoming[id]
					project.AddAssociate(personKey)
					upcoming[id] = project
				}
				continue
			}

			if existing, ok := upcoming[id]; ok {
				if existing.AddAssociate(personKey) {
					upcoming[id] = existing
					result.UpdatedAssociations[id] = append([]string(nil), existing.AssociatedPeople...)
				}
				continue
			}

			project := candidate
			project.AssociatedPeople = []string{personKey}
			upcoming[id] = project
			addedThisPass[id] = len(result.NewlyAdded)
			result.NewlyAdded = append(result.NewlyAdded, project)
		}

		persons[personKey] = person
	}

	for _, key := range sortedKeys(changedPersons) {
		result.UpdatedPersons = append(result.UpdatedPersons, persons[key])
	}
	// Keep the snapshot in NewlyAdded consistent with the final
	// association lists after same-pass unions.
	for id, idx := range addedThisPass {
		result.NewlyAdded[idx] = upcoming[id]
	}
	return result
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
