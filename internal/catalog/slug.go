package catalog

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	tmdbMovieURL  = "https://www.themoviedb.org/movie"
	tmdbPersonURL = "https://www.themoviedb.org/person"
	imdbTitleURL  = "https://imdb.com/title"
	imdbNameURL   = "https://imdb.com/name"
)

var (
	slugSpecial    = regexp.MustCompile(`[^\w\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)

	deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slug converts a title or name into the dashed lowercase form TMDB uses
// in its canonical page URLs.
func Slug(value string) string {
	if folded, _, err := transform.String(deaccent, value); err == nil {
		value = folded
	}
	value = slugSpecial.ReplaceAllString(value, "-")
	value = slugWhitespace.ReplaceAllString(value, "-")
	value = slugDashes.ReplaceAllString(value, "-")
	value = strings.TrimRight(value, "-")
	return strings.ToLower(value)
}

// TMDBMovieURL builds the canonical TMDB page URL for a movie.
func TMDBMovieURL(tmdbID, title string) string {
	slug := Slug(title)
	if slug == "" {
		return fmt.Sprintf("%s/%s", tmdbMovieURL, tmdbID)
	}
	return fmt.Sprintf("%s/%s-%s", tmdbMovieURL, tmdbID, slug)
}

// TMDBPersonURL builds the canonical TMDB page URL for a person.
func TMDBPersonURL(tmdbID, name string) string {
	slug := Slug(name)
	if slug == "" {
		return fmt.Sprintf("%s/%s", tmdbPersonURL, tmdbID)
	}
	return fmt.Sprintf("%s/%s-%s", tmdbPersonURL, tmdbID, slug)
}

// IMDBTitleURL builds the IMDB page URL for a film, or empty when the
// external ID is unknown.
func IMDBTitleURL(imdbID string) string {
	if strings.TrimSpace(imdbID) == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", imdbTitleURL, imdbID)
}

// IMDBNameURL builds the IMDB page URL for a person, or empty when the
// external ID is unknown.
func IMDBNameURL(imdbID string) string {
	if strings.TrimSpace(imdbID) == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", imdbNameURL, imdbID)
}
