// Package digest renders and delivers the per-run markdown summary of
// newly found projects.
package digest

import (
	"fmt"
	"sort"
	"strings"

	"marquee/internal/catalog"
	"marquee/internal/reconcile"
)

const (
	directorsHeader = "# List(s) of upcoming projects from the directors you have chosen"
	actorsHeader    = "# List(s) of upcoming projects from the actors/actresses you have chosen"
	releasedHeader  = "# Now released"
	emptyDigest     = "## There are no new upcoming projects from the directors/actors/actresses you have chosen since the last email update."
)

// Format renders the run delta as markdown. Directors come first, then
// actors, each person under their own subheader with a numbered list of
// linked titles. Projects that graduated to released this run get their
// own trailing section. An empty delta yields the fallback line.
func Format(result *reconcile.Result, persons map[string]catalog.Person, projects map[string]catalog.FilmProject) string {
	perPerson := collectPerPerson(result, projects)

	var sections []string
	if body := formatSection(directorsHeader, perPerson, persons, func(p catalog.Person) bool { return p.IsDirector }); body != "" {
		sections = append(sections, body)
	}
	if body := formatSection(actorsHeader, perPerson, persons, func(p catalog.Person) bool { return p.IsActor && !p.IsDirector }); body != "" {
		sections = append(sections, body)
	}
	if body := formatReleased(result.NewlyReleased); body != "" {
		sections = append(sections, body)
	}

	if len(sections) == 0 {
		return emptyDigest
	}
	return strings.Join(sections, "\n\n\n")
}

// collectPerPerson maps person keys to the projects worth showing them
// this run: every freshly added project plus any project whose
// associated-people list changed, attributed to all current associates.
func collectPerPerson(result *reconcile.Result, projects map[string]catalog.FilmProject) map[string][]catalog.FilmProject {
	perPerson := make(map[string][]catalog.FilmProject)
	for _, project := range result.NewlyAdded {
		for _, key := range project.AssociatedPeople {
			perPerson[key] = append(perPerson[key], project)
		}
	}
	for projectID, keys := range result.UpdatedAssociations {
		project, ok := projects[projectID]
		if !ok {
			continue
		}
		for _, key := range keys {
			perPerson[key] = append(perPerson[key], project)
		}
	}
	for key := range perPerson {
		sort.Slice(perPerson[key], func(i, j int) bool {
			return perPerson[key][i].Title < perPerson[key][j].Title
		})
	}
	return perPerson
}

func formatSection(header string, perPerson map[string][]catalog.FilmProject, persons map[string]catalog.Person, include func(catalog.Person) bool) string {
	keys := make([]string, 0, len(perPerson))
	for key := range perPerson {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var body strings.Builder
	for _, key := range keys {
		person, ok := persons[key]
		if !ok || !include(person) {
			continue
		}
		body.WriteString(formatPersonList(person, perPerson[key]))
	}
	if body.Len() == 0 {
		return ""
	}
	return header + body.String()
}

// formatPersonList renders one person's subheader and their numbered
// project list. Markdown renumbers "1." items itself, so every entry
// uses the same prefix.
func formatPersonList(person catalog.Person, projects []catalog.FilmProject) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n### [%s](%s)\n", strings.ToUpper(person.Name), person.IMDBURL)
	for i, project := range projects {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatProjectLine(project))
	}
	return b.String()
}

func formatProjectLine(project catalog.FilmProject) string {
	var b strings.Builder
	link := project.IMDBURL
	if link == "" {
		link = project.TMDBURL
	}
	fmt.Fprintf(&b, "1. **[%s](%s)**", project.Title, link)
	if len(project.Genres) > 0 {
		fmt.Fprintf(&b, " **%s**", strings.Join(project.Genres, ", "))
	}
	if project.Synopsis != "" {
		fmt.Fprintf(&b, ": %s", project.Synopsis)
	}
	return b.String()
}

func formatReleased(released []catalog.FilmProject) string {
	if len(released) == 0 {
		return ""
	}
	sorted := append([]catalog.FilmProject(nil), released...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })

	var b strings.Builder
	b.WriteString(releasedHeader + "\n")
	for i, project := range sorted {
		if i > 0 {
			b.WriteString("\n")
		}
		link := project.IMDBURL
		if link == "" {
			link = project.TMDBURL
		}
		fmt.Fprintf(&b, "1. **[%s](%s)** released %s", project.Title, link, project.ReleaseDate)
	}
	return b.String()
}
