package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marquee/internal/services"
	"marquee/internal/tmdb"
)

func newTestClient(t *testing.T, handler http.Handler) (*tmdb.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := tmdb.New("test-key", server.URL, "en-US", tmdb.WithMaxAttempts(2))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client, server
}

func TestSearchPersonSendsBearerAuth(t *testing.T) {
	var gotAuth, gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"page":1,"results":[{"id":1443502,"name":"Jordan Peele","popularity":12.5}],"total_pages":1,"total_results":1}`))
	}))

	resp, err := client.SearchPerson(context.Background(), "Jordan Peele")
	if err != nil {
		t.Fatalf("SearchPerson failed: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer credential, got %q", gotAuth)
	}
	if gotQuery != "Jordan Peele" {
		t.Fatalf("unexpected query param: %q", gotQuery)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 1443502 {
		t.Fatalf("unexpected results: %#v", resp.Results)
	}
}

func TestSearchPersonToleratesZeroResults(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":1,"results":[],"total_pages":0,"total_results":0}`))
	}))

	resp, err := client.SearchPerson(context.Background(), "Nobody Anywhere")
	if err != nil {
		t.Fatalf("SearchPerson failed: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected empty results, got %#v", resp.Results)
	}
}

func TestDiscoverByPersonScopesRole(t *testing.T) {
	var queries []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		w.Write([]byte(`{"page":1,"results":[],"total_pages":0,"total_results":0}`))
	}))

	ctx := context.Background()
	if _, err := client.DiscoverByPerson(ctx, "291263", tmdb.RoleActor); err != nil {
		t.Fatalf("actor discovery failed: %v", err)
	}
	if _, err := client.DiscoverByPerson(ctx, "291263", tmdb.RoleDirector); err != nil {
		t.Fatalf("director discovery failed: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected two role-scoped queries, got %d", len(queries))
	}
	actorQuery, directorQuery := queries[0], queries[1]
	if !contains(actorQuery, "with_cast=291263") || contains(actorQuery, "with_crew") {
		t.Fatalf("actor query not scoped correctly: %s", actorQuery)
	}
	if !contains(directorQuery, "with_crew=291263") || !contains(directorQuery, "crew_position=Director") {
		t.Fatalf("director query not scoped correctly: %s", directorQuery)
	}
}

func TestDiscoverByPersonRejectsUnknownRole(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	if _, err := client.DiscoverByPerson(context.Background(), "1", "producer"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var hits int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":7,"title":"Film","status":"Released","release_date":"2023-01-01"}`))
	}))

	details, err := client.MovieDetails(context.Background(), "7")
	if err != nil {
		t.Fatalf("MovieDetails failed: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected one retry, got %d requests", hits)
	}
	if details.Status != tmdb.StatusReleased {
		t.Fatalf("unexpected status: %q", details.Status)
	}
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var hits int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.MovieDetails(context.Background(), "7")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected source-unavailable classification, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("client errors must not retry, got %d requests", hits)
	}
}

func TestGetJSONClassifiesNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.MovieDetails(context.Background(), "404404")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found classification, got %v", err)
	}
}

func TestGetJSONClassifiesMalformedPayload(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"genres": "not a list"`))
	}))

	_, err := client.GenreList(context.Background())
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected malformed-response classification, got %v", err)
	}
}

func TestMovieCreditsParsesCastAndCrew(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":99,"cast":[{"id":1,"name":"A Star"}],"crew":[{"id":2,"name":"A Director","job":"Director"}]}`))
	}))

	credits, err := client.MovieCredits(context.Background(), "99")
	if err != nil {
		t.Fatalf("MovieCredits failed: %v", err)
	}
	if len(credits.Cast) != 1 || credits.Cast[0].ID != 1 {
		t.Fatalf("unexpected cast: %#v", credits.Cast)
	}
	if len(credits.Crew) != 1 || credits.Crew[0].Job != "Director" {
		t.Fatalf("unexpected crew: %#v", credits.Crew)
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
