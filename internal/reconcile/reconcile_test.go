package reconcile_test

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/reconcile"
)

var now = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func project(id, title, releaseDate string, people ...string) catalog.FilmProject {
	return catalog.FilmProject{
		TMDBID:           id,
		Title:            title,
		ReleaseDate:      releaseDate,
		AssociatedPeople: append([]string(nil), people...),
	}
}

func personMap(keys ...string) map[string]catalog.Person {
	persons := make(map[string]catalog.Person, len(keys))
	for _, key := range keys {
		persons[key] = catalog.Person{Key: key, Name: key, TMDBID: "id-" + key}
	}
	return persons
}

func fixedChecker(statuses map[string]reconcile.ReleaseStatus) reconcile.StatusChecker {
	return reconcile.StatusCheckerFunc(func(_ context.Context, id string) (reconcile.ReleaseStatus, error) {
		status, ok := statuses[id]
		if !ok {
			return reconcile.ReleaseStatus{}, errors.New("unknown project")
		}
		return status, nil
	})
}

func TestMergeFirstRunAddsEverything(t *testing.T) {
	engine := reconcile.NewEngine(nil)
	persons := personMap("ridley scott")
	upcoming := map[string]catalog.FilmProject{}
	released := map[string]catalog.FilmProject{}
	candidates := map[string][]catalog.FilmProject{
		"ridley scott": {
			project("100", "Alpha", "2099-01-01"),
			project("200", "Beta", ""),
		},
	}

	result := engine.Merge(persons, upcoming, released, candidates, nil)

	if len(result.NewlyAdded) != 2 {
		t.Fatalf("expected 2 newly added, got %d", len(result.NewlyAdded))
	}
	if len(result.UpdatedAssociations) != 0 {
		t.Fatalf("unexpected association updates on first run: %v", result.UpdatedAssociations)
	}
	if got := upcoming["100"].AssociatedPeople; !reflect.DeepEqual(got, []string{"ridley scott"}) {
		t.Fatalf("wrong associates: %v", got)
	}
	ridley := persons["ridley scott"]
	if !ridley.OwnsProject("100") || !ridley.OwnsProject("200") {
		t.Fatalf("person ownership not recorded: %v", ridley.Projects)
	}
	if len(result.UpdatedPersons) != 1 {
		t.Fatalf("expected 1 updated person, got %d", len(result.UpdatedPersons))
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	engine := reconcile.NewEngine(nil)
	persons := personMap("ridley scott", "cate blanchett")
	upcoming := map[string]catalog.FilmProject{}
	released := map[string]catalog.FilmProject{}
	candidates := map[string][]catalog.FilmProject{
		"ridley scott":   {project("100", "Alpha", "2099-01-01")},
		"cate blanchett": {project("100", "Alpha", "2099-01-01"), project("300", "Gamma", "")},
	}

	first := engine.Merge(persons, upcoming, released, candidates, nil)
	if first.Empty() {
		t.Fatal("first pass should report changes")
	}

	second := engine.Merge(persons, upcoming, released, candidates, nil)
	if !second.Empty() {
		t.Fatalf("second identical pass must be empty, got %+v", second)
	}
	if len(second.UpdatedPersons) != 0 {
		t.Fatalf("second pass must not report person updates: %v", second.UpdatedPersons)
	}
}

func TestMergeUnionsAssociatesWithinOnePass(t *testing.T) {
	engine := reconcile.NewEngine(nil)
	persons := personMap("ridley scott", "cate blanchett")
	upcoming := map[string]catalog.FilmProject{}
	released := map[string]catalog.FilmProject{}
	candidates := map[string][]catalog.FilmProject{
		"ridley scott":   {project("100", "Alpha", "2099-01-01")},
		"cate blanchett": {project("100", "Alpha", "2099-01-01")},
	}

	result := engine.Merge(persons, upcoming, released, candidates, nil)

	if len(result.NewlyAdded) != 1 {
		t.Fatalf("shared project must be added once, got %d", len(result.NewlyAdded))
	}
	got := append([]string(nil), result.NewlyAdded[0].AssociatedPeople...)
	sort.Strings(got)
	if !reflect.DeepEqual(got, []string{"cate blanchett", "ridley scott"}) {
		t.Fatalf("associates not unioned: %v", got)
	}
	stored := append([]string(nil), upcoming["100"].AssociatedPeople...)
	sort.Strings(stored)
	if !reflect.DeepEqual(stored, got) {
		t.Fatalf("stored associates diverge from reported: %v vs %v", stored, got)
	}
}

func TestMergeAddsPersonToExistingProject(t *testing.T) {
	engine := reconcile.NewEngine(nil)
	persons := personMap("ridley scott", "cate blanchett")
	rs := persons["ridley scott"]
	rs.Projects = []string{"100"}
	persons["ridley scott"] = rs
	upcoming := map[string]catalog.FilmProject{
		"100": project("100", "Alpha", "2099-01-01", "ridley scott"),
	}
	released := map[string]catalog.FilmProject{}
	candidates := map[string][]catalog.FilmProject{
		"cate blanchett": {project("100", "Alpha", "2099-01-01")},
	}

	result := engine.Merge(persons, upcoming, released, candidates, nil)

	if len(result.NewlyAdded) != 0 {
		t.Fatalf("known project must not be re-added: %v", result.NewlyAdded)
	}
	if !reflect.DeepEqual(result.UpdatedAssociations["100"], []string{"ridley scott", "cate blanchett"}) {
		t.Fatalf("association update must carry the full list: %v", result.UpdatedAssociations)
	}
	updated := upcoming["100"]
	if !updated.HasAssociate("cate blanchett") {
		t.Fatal("stored project not updated with new associate")
	}
	cate := persons["cate blanchett"]
	if !cate.OwnsProject("100") {
		t.Fatal("new associate did not gain ownership")
	}
}

func TestMergeNeverResurrectsReleasedOrExcluded(t *testing.T) {
	engine := reconcile.NewEngine(nil)
	persons := personMap("ridley scott")
	upcoming := map[string]catalog.FilmProject{}
	released := map[string]catalog.FilmProject{
		"100": project("100", "Alpha", "2024-06-01", "ridley scott"),
	}
	excluded := map[string]struct{}{"500": {}}
	candidates := map[string][]catalog.FilmProject{
		"ridley scott": {
			project("100", "Alpha", "2024-06-01"),
			project("500", "Banished", "2099-01-01"),
			project("300", "Gamma", ""),
		},
	}

	result := engine.Merge(persons, upcoming, released, candidates, excluded)

	if len(result.NewlyAdded) != 1 || result.NewlyAdded[0].TMDBID != "300" {
		t.Fatalf("only the fresh project should be added: %+v", result.NewlyAdded)
	}
	if _, ok := upcoming["100"]; ok {
		t.Fatal("released project re-entered the upcoming set")
	}
	if _, ok := upcoming["500"]; ok {
		t.Fatal("excluded project entered the upcoming set")
	}
}

func TestGraduateMovesReleasedProjects(t *testing.T) {
	engine := reconcile.NewEngine(nil)
	upcoming := map[string]catalog.FilmProject{
		"100": project("100", "Alpha", "2026-02-01", "ridley scott"),
		"200": project("200", "Beta", "", "ridley scott"),
		"300": project("300", "Gamma", "2099-01-01", "ridley scott"),
	}
	released := map[string]catalog.FilmProject{}
	checker := fixedChecker(map[string]reconcile.ReleaseStatus{
		"100": {Released: true, ReleaseDate: "2026-02-01"},
		"200": {Released: true, ReleaseDate: ""}, // released status, no date
		"300": {Released: true, ReleaseDate: "2099-01-01"},
	})

	graduated := engine.Graduate(context.Background(), upcoming, released, checker, now)

	if len(graduated) != 1 || graduated[0].TMDBID != "100" {
		t.Fatalf("expected only project 100 to graduate: %+v", graduated)
	}
	if _, ok := released["100"]; !ok {
		t.Fatal("graduated project missing from released set")
	}
	if _, ok := upcoming["100"]; ok {
		t.Fatal("graduated project still upcoming")
	}
	if _, ok := upcoming["200"]; !ok {
		t.Fatal("project without a release date must stay upcoming")
	}
	if _, ok := upcoming["300"]; !ok {
		t.Fatal("future-dated project must stay upcoming")
	}
}

func TestGraduateSkipsOnCheckerError(t *testing.T) {
	engine := reconcile.NewEngine(nil)
	upcoming := map[string]catalog.FilmProject{
		"100": project("100", "Alpha", "2026-02-01", "ridley scott"),
	}
	released := map[string]catalog.FilmProject{}
	checker := fixedChecker(nil) // every lookup errors

	graduated := engine.Graduate(context.Background(), upcoming, released, checker, now)

	if len(graduated) != 0 {
		t.Fatalf("no project should graduate on checker failure: %+v", graduated)
	}
	if len(upcoming) != 1 || len(released) != 0 {
		t.Fatal("checker failure must leave both sets untouched")
	}
}

func TestGraduationIsMonotonic(t *testing.T) {
	engine := reconcile.NewEngine(nil)
	persons := personMap("ridley scott")
	rs := persons["ridley scott"]
	rs.Projects = []string{"100"}
	persons["ridley scott"] = rs
	upcoming := map[string]catalog.FilmProject{
		"100": project("100", "Alpha", "2026-02-01", "ridley scott"),
	}
	released := map[string]catalog.FilmProject{}
	checker := fixedChecker(map[string]reconcile.ReleaseStatus{
		"100": {Released: true, ReleaseDate: "2026-02-01"},
	})

	engine.Graduate(context.Background(), upcoming, released, checker, now)

	// The catalog keeps returning the released film as a discovery hit.
	candidates := map[string][]catalog.FilmProject{
		"ridley scott": {project("100", "Alpha", "2026-02-01")},
	}
	result := engine.Merge(persons, upcoming, released, candidates, nil)

	if !result.Empty() {
		t.Fatalf("released project must never re-enter upcoming: %+v", result)
	}
	if _, ok := upcoming["100"]; ok {
		t.Fatal("released project present in upcoming set")
	}
}
