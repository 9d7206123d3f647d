package catalog

import "strings"

// FilmProject is a single upcoming or released film. TMDBID is the sole
// matching key; two fetches yielding the same ID must merge into one
// record with the associated-people lists unioned.
type FilmProject struct {
	TMDBID           string   `json:"tmdb_id"`
	TMDBURL          string   `json:"tmdb_url"`
	IMDBID           string   `json:"imdb_id"`
	IMDBURL          string   `json:"imdb_url"`
	Title            string   `json:"title"`
	Synopsis         string   `json:"synopsis"`
	Genres           []string `json:"genres"`
	Popularity       float64  `json:"popularity"`
	ReleaseDate      string   `json:"release_date"`
	AssociatedPeople []string `json:"associated_people"`
}

// HasAssociate reports whether the person key is already linked to the
// project.
func (f *FilmProject) HasAssociate(personKey string) bool {
	for _, key := range f.AssociatedPeople {
		if key == personKey {
			return true
		}
	}
	return false
}

// AddAssociate links a person to the project unless already linked. It
// returns true when the list grew.
func (f *FilmProject) AddAssociate(personKey string) bool {
	if personKey == "" || f.HasAssociate(personKey) {
		return false
	}
	f.AssociatedPeople = append(f.AssociatedPeople, personKey)
	return true
}

// HasReleaseDate reports whether a concrete release date is known. A
// project without one is always treated as upcoming.
func (f *FilmProject) HasReleaseDate() bool {
	return strings.TrimSpace(f.ReleaseDate) != ""
}
