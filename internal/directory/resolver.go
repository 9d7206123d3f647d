package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/services"
	"marquee/internal/tmdb"
)

// Catalog is the slice of the TMDB client the resolver needs.
type Catalog interface {
	SearchPerson(ctx context.Context, name string) (*tmdb.PersonResponse, error)
	PersonExternalIDs(ctx context.Context, personID string) (*tmdb.ExternalIDs, error)
}

// Cache is the durable person identity cache, served by the state store.
type Cache interface {
	LookupPerson(ctx context.Context, key string) (catalog.Person, bool, error)
	SavePerson(ctx context.Context, person catalog.Person) error
}

// Resolver turns watch-list names into enriched Person records. Network
// enrichment happens at most once per person; after that every run is
// served from the cache.
type Resolver struct {
	client Catalog
	cache  Cache
	logger *slog.Logger
}

func NewResolver(client Catalog, cache Cache, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: client,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "directory"),
	}
}

// Resolve returns the Person for a watch-list name, enriching on first
// sight. A name the catalog does not know yields a sentinel person with
// an empty TMDB ID, not an error; the sentinel is cached so the lookup
// is never repeated. Role flags are unioned when the same name shows up
// on both lists.
func (r *Resolver) Resolve(ctx context.Context, name string, isDirector, isActor bool) (catalog.Person, error) {
	key := catalog.NormalizeKey(name)
	if key == "" {
		return catalog.Person{}, errors.New("empty person name")
	}

	cached, found, err := r.cache.LookupPerson(ctx, key)
	if err != nil {
		return catalog.Person{}, fmt.Errorf("person cache lookup %q: %w", key, err)
	}
	if found {
		before := cached
		cached.MergeRoles(isDirector, isActor)
		if cached.IsDirector != before.IsDirector || cached.IsActor != before.IsActor {
			if err := r.cache.SavePerson(ctx, cached); err != nil {
				return catalog.Person{}, fmt.Errorf("person cache update %q: %w", key, err)
			}
		}
		return cached, nil
	}

	person, err := r.lookup(ctx, name, key)
	if err != nil {
		return catalog.Person{}, err
	}
	person.MergeRoles(isDirector, isActor)

	if err := r.cache.SavePerson(ctx, person); err != nil {
		return catalog.Person{}, fmt.Errorf("person cache save %q: %w", key, err)
	}
	return person, nil
}

func (r *Resolver) lookup(ctx context.Context, name, key string) (catalog.Person, error) {
	person := catalog.Person{Key: key, Name: name}

	response, err := r.client.SearchPerson(ctx, name)
	if err != nil {
		return catalog.Person{}, err
	}
	if len(response.Results) == 0 {
		r.logger.Warn("no catalog match for watch-list name, storing sentinel",
			logging.String(logging.FieldPerson, name))
		return person, nil
	}

	// Multiple matches are common for short names; the first result is
	// the most popular one and is taken as authoritative.
	match := response.Results[0]
	person.TMDBID = tmdb.FormatID(match.ID)
	person.TMDBURL = catalog.TMDBPersonURL(person.TMDBID, name)

	external, err := r.client.PersonExternalIDs(ctx, person.TMDBID)
	switch {
	case err == nil:
		person.IMDBID = external.IMDBID
		person.IMDBURL = catalog.IMDBNameURL(external.IMDBID)
	case errors.Is(err, services.ErrNotFound):
		r.logger.Debug("no external ids for person",
			logging.String(logging.FieldPerson, name),
			logging.String("tmdb_id", person.TMDBID))
	default:
		// Do not cache a half-enriched record; the next run retries.
		return catalog.Person{}, err
	}

	r.logger.Info("person resolved",
		logging.String(logging.FieldPerson, name),
		logging.String("tmdb_id", person.TMDBID),
		logging.String("imdb_id", person.IMDBID))
	return person, nil
}
