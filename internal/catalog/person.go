package catalog

import "strings"

// Person is a tracked director or actor. The TMDB ID is resolved at most
// once; an empty TMDBID marks a person whose name lookup yielded no
// results (the sentinel form). People are never deleted, even after they
// disappear from the watch list.
type Person struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	TMDBID     string   `json:"tmdb_id"`
	TMDBURL    string   `json:"tmdb_url"`
	IMDBID     string   `json:"imdb_id"`
	IMDBURL    string   `json:"imdb_url"`
	IsDirector bool     `json:"is_director"`
	IsActor    bool     `json:"is_actor"`
	Projects   []string `json:"projects"`
}

// NormalizeKey derives the internal person key from a display name.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Resolved reports whether the person has a usable TMDB identifier.
func (p *Person) Resolved() bool {
	return strings.TrimSpace(p.TMDBID) != ""
}

// OwnsProject reports whether the project ID is already in the person's
// owned list.
func (p *Person) OwnsProject(projectID string) bool {
	for _, id := range p.Projects {
		if id == projectID {
			return true
		}
	}
	return false
}

// AddProject appends the project ID to the owned list unless already
// present. It returns true when the list grew.
func (p *Person) AddProject(projectID string) bool {
	if projectID == "" || p.OwnsProject(projectID) {
		return false
	}
	p.Projects = append(p.Projects, projectID)
	return true
}

// MergeRoles unions role flags from another sighting of the same person.
func (p *Person) MergeRoles(isDirector, isActor bool) {
	p.IsDirector = p.IsDirector || isDirector
	p.IsActor = p.IsActor || isActor
}
