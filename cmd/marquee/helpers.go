package main

import (
	"sort"
	"strings"

	"marquee/internal/catalog"
)

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func roleLabel(person catalog.Person) string {
	switch {
	case person.IsDirector && person.IsActor:
		return "director, actor"
	case person.IsDirector:
		return "director"
	case person.IsActor:
		return "actor"
	default:
		return "-"
	}
}

func sortedPersons(persons map[string]catalog.Person) []catalog.Person {
	list := make([]catalog.Person, 0, len(persons))
	for _, person := range persons {
		list = append(list, person)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list
}

func sortedProjects(projects map[string]catalog.FilmProject) []catalog.FilmProject {
	list := make([]catalog.FilmProject, 0, len(projects))
	for _, project := range projects {
		list = append(list, project)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Title < list[j].Title })
	return list
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
