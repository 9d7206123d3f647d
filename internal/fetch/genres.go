package fetch

import (
	"context"
	"fmt"
	"sync"

	"marquee/internal/tmdb"
)

// GenreLister is the slice of the TMDB client the genre cache needs.
type GenreLister interface {
	GenreList(ctx context.Context) ([]tmdb.Genre, error)
}

// GenreCache maps TMDB genre codes to display names. The table is tiny
// and effectively static, so it is fetched in one bulk call on the first
// miss and never invalidated for the life of the process.
type GenreCache struct {
	client GenreLister

	mu     sync.Mutex
	byID   map[int64]string
	loaded bool
}

func NewGenreCache(client GenreLister) *GenreCache {
	return &GenreCache{client: client}
}

// Names resolves genre codes to names, preserving order. Unknown codes
// are dropped rather than rendered numerically.
func (g *GenreCache) Names(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.loaded {
		genres, err := g.client.GenreList(ctx)
		if err != nil {
			return nil, fmt.Errorf("load genre table: %w", err)
		}
		g.byID = make(map[int64]string, len(genres))
		for _, genre := range genres {
			g.byID[genre.ID] = genre.Name
		}
		g.loaded = true
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := g.byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}
