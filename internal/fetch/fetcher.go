package fetch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/reconcile"
	"marquee/internal/services"
	"marquee/internal/tmdb"
)

const creditJobDirector = "Director"

// Catalog is the slice of the TMDB client the fetcher needs.
type Catalog interface {
	DiscoverByPerson(ctx context.Context, personID, role string) (*tmdb.DiscoverResponse, error)
	MovieCredits(ctx context.Context, movieID string) (*tmdb.Credits, error)
	MovieDetails(ctx context.Context, movieID string) (*tmdb.MovieDetails, error)
	MovieExternalIDs(ctx context.Context, movieID string) (*tmdb.ExternalIDs, error)
}

// Fetcher discovers a person's unreleased projects and enriches each
// candidate into a full FilmProject record.
type Fetcher struct {
	client Catalog
	genres *GenreCache
	logger *slog.Logger
	now    func() time.Time
}

func NewFetcher(client Catalog, genres *GenreCache, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		genres: genres,
		logger: logging.NewComponentLogger(logger, "fetch"),
		now:    time.Now,
	}
}

// CandidateProjects returns the person's upcoming films. Discovery runs
// one query per role the person holds, and every candidate is verified
// against the movie's own credits before it is accepted; discovery role
// filters alone are not trusted. A sentinel person yields no candidates
// and no network traffic.
func (f *Fetcher) CandidateProjects(ctx context.Context, person catalog.Person) ([]catalog.FilmProject, error) {
	if !person.Resolved() {
		return nil, nil
	}

	var roles []string
	if person.IsDirector {
		roles = append(roles, tmdb.RoleDirector)
	}
	if person.IsActor {
		roles = append(roles, tmdb.RoleActor)
	}

	seen := make(map[int64]struct{})
	var projects []catalog.FilmProject
	for _, role := range roles {
		response, err := f.client.DiscoverByPerson(ctx, person.TMDBID, role)
		if err != nil {
			return nil, err
		}
		for _, candidate := range response.Results {
			if _, done := seen[candidate.ID]; done {
				continue
			}
			seen[candidate.ID] = struct{}{}

			if !f.isUpcoming(candidate.ReleaseDate) {
				continue
			}

			verified, err := f.verifyCredit(ctx, person, role, candidate.ID)
			if err != nil {
				f.logger.Warn("credit verification failed, skipping candidate",
					logging.String(logging.FieldPerson, person.Name),
					logging.String(logging.FieldProjectID, tmdb.FormatID(candidate.ID)),
					logging.String("title", candidate.Title),
					logging.Error(err))
				continue
			}
			if !verified {
				f.logger.Debug("discovery hit not confirmed by credits",
					logging.String(logging.FieldPerson, person.Name),
					logging.String(logging.FieldProjectID, tmdb.FormatID(candidate.ID)),
					logging.String("title", candidate.Title),
					logging.String("role", role))
				continue
			}

			projects = append(projects, f.buildProject(ctx, candidate))
		}
	}
	return projects, nil
}

// ReleaseStatus implements the graduation check against movie details.
var _ reconcile.StatusChecker = (*Fetcher)(nil)

func (f *Fetcher) ReleaseStatus(ctx context.Context, projectID string) (reconcile.ReleaseStatus, error) {
	details, err := f.client.MovieDetails(ctx, projectID)
	if err != nil {
		return reconcile.ReleaseStatus{}, err
	}
	return reconcile.ReleaseStatus{
		Released:    details.Status == tmdb.StatusReleased,
		ReleaseDate: details.ReleaseDate,
	}, nil
}

// isUpcoming applies the predicate that keeps a film on the radar: no
// known release date, or a date strictly after today. An unparseable
// date counts as unknown.
func (f *Fetcher) isUpcoming(releaseDate string) bool {
	releaseDate = strings.TrimSpace(releaseDate)
	if releaseDate == "" {
		return true
	}
	date, err := time.Parse("2006-01-02", releaseDate)
	if err != nil {
		return true
	}
	today := f.now().Truncate(24 * time.Hour)
	return date.After(today)
}

func (f *Fetcher) verifyCredit(ctx context.Context, person catalog.Person, role string, movieID int64) (bool, error) {
	credits, err := f.client.MovieCredits(ctx, tmdb.FormatID(movieID))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	personID := person.TMDBID
	switch role {
	case tmdb.RoleActor:
		for _, entry := range credits.Cast {
			if tmdb.FormatID(entry.ID) == personID {
				return true, nil
			}
		}
	case tmdb.RoleDirector:
		for _, entry := range credits.Crew {
			if tmdb.FormatID(entry.ID) == personID && entry.Job == creditJobDirector {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *Fetcher) buildProject(ctx context.Context, candidate tmdb.MovieResult) catalog.FilmProject {
	id := tmdb.FormatID(candidate.ID)
	project := catalog.FilmProject{
		TMDBID:      id,
		TMDBURL:     catalog.TMDBMovieURL(id, candidate.Title),
		Title:       candidate.Title,
		Synopsis:    candidate.Overview,
		Popularity:  candidate.Popularity,
		ReleaseDate: strings.TrimSpace(candidate.ReleaseDate),
	}

	genres, err := f.genres.Names(ctx, candidate.GenreIDs)
	if err != nil {
		f.logger.Warn("genre lookup failed, continuing without genres",
			logging.String(logging.FieldProjectID, id),
			logging.Error(err))
	} else {
		project.Genres = genres
	}

	external, err := f.client.MovieExternalIDs(ctx, id)
	if err != nil {
		f.logger.Debug("no external ids for movie",
			logging.String(logging.FieldProjectID, id),
			logging.Error(err))
	} else {
		project.IMDBID = external.IMDBID
		project.IMDBURL = catalog.IMDBTitleURL(external.IMDBID)
	}
	return project
}
