package notion_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/notion"
	"marquee/internal/reconcile"
)

func testConfig(baseURL string) config.Notion {
	return config.Notion{
		Enabled:            true,
		Token:              "secret-token",
		BaseURL:            baseURL,
		PersonsDatabaseID:  "persons-db",
		UpcomingDatabaseID: "upcoming-db",
		ReleasedDatabaseID: "released-db",
	}
}

func pageJSON(id, titleProp, title, tmdbURL string, excluded bool) map[string]any {
	return map[string]any{
		"id": id,
		"properties": map[string]any{
			titleProp: map[string]any{
				"title": []any{map[string]any{"plain_text": title}},
			},
			"TMDb URL": map[string]any{"url": tmdbURL},
			"Exclude":  map[string]any{"checkbox": excluded},
		},
	}
}

func TestQueryAllFollowsPagination(t *testing.T) {
	var cursors []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/databases/upcoming-db/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Notion-Version"); got != "2022-06-28" {
			t.Errorf("wrong api version header %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("wrong auth header %q", got)
		}

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		cursor, _ := body["start_cursor"].(string)
		cursors = append(cursors, cursor)

		w.Header().Set("Content-Type", "application/json")
		if cursor == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"results":     []any{pageJSON("page-1", "Title", "First", "https://www.themoviedb.org/movie/100-first", false)},
				"has_more":    true,
				"next_cursor": "cursor-2",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results":  []any{pageJSON("page-2", "Title", "Second", "https://www.themoviedb.org/movie/200-second", true)},
			"has_more": false,
		})
	}))
	defer server.Close()

	client := notion.New(testConfig(server.URL), nil, nil)
	projects, err := client.ListProjects(context.Background(), notion.DatabaseUpcoming)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected both pages, got %d", len(projects))
	}
	if projects[0].TMDBID != "100" || projects[1].TMDBID != "200" {
		t.Fatalf("tmdb ids not extracted: %+v", projects)
	}
	if !projects[1].Excluded {
		t.Fatal("exclude checkbox lost in parsing")
	}
	if len(cursors) != 2 || cursors[1] != "cursor-2" {
		t.Fatalf("pagination cursors wrong: %v", cursors)
	}
}

func TestAddProjectPayloadShape(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/pages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	client := notion.New(testConfig(server.URL), nil, nil)
	project := catalog.FilmProject{
		TMDBID:      "100",
		TMDBURL:     "https://www.themoviedb.org/movie/100-future-film",
		Title:       "Future Film",
		Synopsis:    "Soon.",
		Genres:      []string{"Drama"},
		Popularity:  42.5,
		ReleaseDate: "2099-01-01",
	}
	if err := client.AddProject(context.Background(), notion.DatabaseUpcoming, project); err != nil {
		t.Fatalf("AddProject failed: %v", err)
	}

	parent := captured["parent"].(map[string]any)
	if parent["database_id"] != "upcoming-db" {
		t.Fatalf("wrong parent database: %v", parent)
	}
	properties := captured["properties"].(map[string]any)
	date := properties["Release date"].(map[string]any)["date"].(map[string]any)
	if date["start"] != "2099-01-01" {
		t.Fatalf("release date malformed: %v", date)
	}
	// The movie has no IMDB page yet; the url property must be null, not
	// an empty string Notion rejects.
	imdb := properties["IMDb URL"].(map[string]any)
	if imdb["url"] != nil {
		t.Fatalf("expected null imdb url, got %v", imdb["url"])
	}
}

func TestSweepExcludedArchivesTickedPages(t *testing.T) {
	var archived []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/query"):
			results := []any{}
			if strings.Contains(r.URL.Path, "upcoming-db") {
				results = []any{
					pageJSON("keep", "Title", "Keeper", "https://www.themoviedb.org/movie/100-keeper", false),
					pageJSON("drop", "Title", "Dropped", "https://www.themoviedb.org/movie/200-dropped", true),
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"results": results, "has_more": false})
		case strings.HasPrefix(r.URL.Path, "/v1/pages/") && r.Method == http.MethodPatch:
			archived = append(archived, strings.TrimPrefix(r.URL.Path, "/v1/pages/"))
			w.Write([]byte("{}"))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := notion.New(testConfig(server.URL), nil, nil)
	swept, err := client.SweepExcluded(context.Background())
	if err != nil {
		t.Fatalf("SweepExcluded failed: %v", err)
	}
	if len(swept) != 1 || swept[0] != "200" {
		t.Fatalf("wrong swept ids: %v", swept)
	}
	if len(archived) != 1 || archived[0] != "drop" {
		t.Fatalf("wrong archived pages: %v", archived)
	}
}

func TestPublishMovesGraduatedProjects(t *testing.T) {
	var created []string
	var archived []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "persons-db/query"):
			json.NewEncoder(w).Encode(map[string]any{"results": []any{}, "has_more": false})
		case strings.HasSuffix(r.URL.Path, "upcoming-db/query"):
			json.NewEncoder(w).Encode(map[string]any{
				"results":  []any{pageJSON("page-grad", "Title", "Graduated", "https://www.themoviedb.org/movie/300-graduated", false)},
				"has_more": false,
			})
		case r.URL.Path == "/v1/pages" && r.Method == http.MethodPost:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			created = append(created, body["parent"].(map[string]any)["database_id"].(string))
			w.Write([]byte("{}"))
		case strings.HasPrefix(r.URL.Path, "/v1/pages/") && r.Method == http.MethodPatch:
			archived = append(archived, strings.TrimPrefix(r.URL.Path, "/v1/pages/"))
			w.Write([]byte("{}"))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := notion.New(testConfig(server.URL), nil, nil)
	result := &reconcile.Result{
		UpdatedPersons: []catalog.Person{
			{Key: "jane doe", Name: "Jane Doe", TMDBID: "7", IsDirector: true},
		},
		NewlyAdded: []catalog.FilmProject{
			{TMDBID: "100", Title: "Fresh", TMDBURL: "https://www.themoviedb.org/movie/100-fresh"},
		},
		NewlyReleased: []catalog.FilmProject{
			{TMDBID: "300", Title: "Graduated", TMDBURL: "https://www.themoviedb.org/movie/300-graduated", ReleaseDate: "2026-02-01"},
		},
	}

	failures, err := client.Publish(context.Background(), result)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if failures != 0 {
		t.Fatalf("unexpected failures: %d", failures)
	}
	want := []string{"persons-db", "upcoming-db", "released-db"}
	if fmt.Sprint(created) != fmt.Sprint(want) {
		t.Fatalf("created pages in wrong databases: %v", created)
	}
	if len(archived) != 1 || archived[0] != "page-grad" {
		t.Fatalf("graduated upcoming page not archived: %v", archived)
	}
}
