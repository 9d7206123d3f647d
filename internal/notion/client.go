// Package notion mirrors the tracker state into three notes databases:
// one for tracked persons, one for upcoming projects, one for released
// projects.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/services"
)

const apiVersion = "2022-06-28"

// Database selects which project database an operation targets.
type Database string

const (
	DatabaseUpcoming Database = "upcoming"
	DatabaseReleased Database = "released"
)

var (
	movieIDPattern  = regexp.MustCompile(`/movie/(\d+)`)
	personIDPattern = regexp.MustCompile(`/person/(\d+)`)
)

// Client is a minimal Notion API client scoped to the three databases
// the tracker maintains. Pass an http.Client whose transport is wrapped
// by the notes-source rate gate.
type Client struct {
	token      string
	baseURL    string
	personsDB  string
	upcomingDB string
	releasedDB string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg config.Notion, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		personsDB:  cfg.PersonsDatabaseID,
		upcomingDB: cfg.UpcomingDatabaseID,
		releasedDB: cfg.ReleasedDatabaseID,
		httpClient: httpClient,
		logger:     logging.NewComponentLogger(logger, "notion"),
	}
}

// PersonPage is one row of the persons database.
type PersonPage struct {
	PageID string
	Name   string
	TMDBID string
}

// ProjectPage is one row of a project database.
type ProjectPage struct {
	PageID   string
	Title    string
	TMDBID   string
	Excluded bool
}

type page struct {
	ID         string         `json:"id"`
	Properties pageProperties `json:"properties"`
}

type pageProperties struct {
	Name    titleProperty    `json:"Name"`
	Title   titleProperty    `json:"Title"`
	TMDBURL urlProperty      `json:"TMDb URL"`
	Exclude checkboxProperty `json:"Exclude"`
}

type titleProperty struct {
	Title []struct {
		PlainText string `json:"plain_text"`
		Text      struct {
			Content string `json:"content"`
		} `json:"text"`
	} `json:"title"`
}

func (t titleProperty) text() string {
	if len(t.Title) == 0 {
		return ""
	}
	if t.Title[0].PlainText != "" {
		return t.Title[0].PlainText
	}
	return t.Title[0].Text.Content
}

type urlProperty struct {
	URL string `json:"url"`
}

type checkboxProperty struct {
	Checkbox bool `json:"checkbox"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// ListPersons returns every row of the persons database.
func (c *Client) ListPersons(ctx context.Context) ([]PersonPage, error) {
	pages, err := c.queryAll(ctx, c.personsDB)
	if err != nil {
		return nil, err
	}
	persons := make([]PersonPage, 0, len(pages))
	for _, p := range pages {
		persons = append(persons, PersonPage{
			PageID: p.ID,
			Name:   p.Properties.Name.text(),
			TMDBID: firstMatch(personIDPattern, p.Properties.TMDBURL.URL),
		})
	}
	return persons, nil
}

// ListProjects returns every row of the chosen project database.
func (c *Client) ListProjects(ctx context.Context, db Database) ([]ProjectPage, error) {
	id, err := c.databaseID(db)
	if err != nil {
		return nil, err
	}
	pages, err := c.queryAll(ctx, id)
	if err != nil {
		return nil, err
	}
	projects := make([]ProjectPage, 0, len(pages))
	for _, p := range pages {
		projects = append(projects, ProjectPage{
			PageID:   p.ID,
			Title:    p.Properties.Title.text(),
			TMDBID:   firstMatch(movieIDPattern, p.Properties.TMDBURL.URL),
			Excluded: p.Properties.Exclude.Checkbox,
		})
	}
	return projects, nil
}

// AddPerson creates a row in the persons database.
func (c *Client) AddPerson(ctx context.Context, person catalog.Person) error {
	var tags []map[string]string
	if person.IsDirector {
		tags = append(tags, map[string]string{"name": "Director"})
	}
	if person.IsActor {
		tags = append(tags, map[string]string{"name": "Actor"})
	}

	properties := map[string]any{
		"Name":     map[string]any{"title": []any{map[string]any{"text": map[string]string{"content": person.Name}}}},
		"Tags":     map[string]any{"multi_select": tags},
		"IMDb URL": map[string]any{"url": nullableURL(person.IMDBURL)},
		"TMDb URL": map[string]any{"url": nullableURL(person.TMDBURL)},
	}
	return c.createPage(ctx, c.personsDB, properties)
}

// AddProject creates a row in the chosen project database.
func (c *Client) AddProject(ctx context.Context, db Database, project catalog.FilmProject) error {
	id, err := c.databaseID(db)
	if err != nil {
		return err
	}

	genres := make([]map[string]string, 0, len(project.Genres))
	for _, genre := range project.Genres {
		genres = append(genres, map[string]string{"name": genre})
	}

	var releaseDate any
	if project.HasReleaseDate() {
		releaseDate = map[string]string{"start": project.ReleaseDate}
	}

	properties := map[string]any{
		"Title":        map[string]any{"title": []any{map[string]any{"text": map[string]string{"content": project.Title}}}},
		"Genres":       map[string]any{"multi_select": genres},
		"Synopsis":     map[string]any{"rich_text": []any{map[string]any{"text": map[string]string{"content": project.Synopsis}}}},
		"IMDb URL":     map[string]any{"url": nullableURL(project.IMDBURL)},
		"TMDb URL":     map[string]any{"url": nullableURL(project.TMDBURL)},
		"Popularity":   map[string]any{"number": project.Popularity},
		"Release date": map[string]any{"date": releaseDate},
	}
	return c.createPage(ctx, id, properties)
}

// ArchivePage removes a row by archiving its page.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	body := map[string]bool{"archived": true}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, nil)
}

// SweepExcluded archives every project page whose Exclude checkbox is
// ticked and returns the affected TMDB IDs so the run can fold them
// into the persistent exclusion set.
func (c *Client) SweepExcluded(ctx context.Context) ([]string, error) {
	var swept []string
	for _, db := range []Database{DatabaseUpcoming, DatabaseReleased} {
		projects, err := c.ListProjects(ctx, db)
		if err != nil {
			return swept, err
		}
		for _, project := range projects {
			if !project.Excluded {
				continue
			}
			if err := c.ArchivePage(ctx, project.PageID); err != nil {
				return swept, err
			}
			c.logger.Info("archived excluded project",
				logging.String(logging.FieldProjectID, project.TMDBID),
				logging.String("title", project.Title))
			if project.TMDBID != "" {
				swept = append(swept, project.TMDBID)
			}
		}
	}
	return swept, nil
}

func (c *Client) databaseID(db Database) (string, error) {
	switch db {
	case DatabaseUpcoming:
		return c.upcomingDB, nil
	case DatabaseReleased:
		return c.releasedDB, nil
	default:
		return "", fmt.Errorf("unknown project database %q", db)
	}
}

func (c *Client) queryAll(ctx context.Context, databaseID string) ([]page, error) {
	var results []page
	cursor := ""
	for {
		body := map[string]any{"page_size": 100}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		var response queryResponse
		if err := c.do(ctx, http.MethodPost, "/v1/databases/"+databaseID+"/query", body, &response); err != nil {
			return nil, err
		}
		results = append(results, response.Results...)
		if !response.HasMore {
			return results, nil
		}
		cursor = response.NextCursor
	}
}

func (c *Client) createPage(ctx context.Context, databaseID string, properties map[string]any) error {
	body := map[string]any{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": properties,
	}
	return c.do(ctx, http.MethodPost, "/v1/pages", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, payload any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal notion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrSourceUnavailable, "notion", "request", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "notion", "request", path, fmt.Errorf("status %d", resp.StatusCode))
	default:
		return services.Wrap(services.ErrSourceUnavailable, "notion", "request", path, fmt.Errorf("status %d", resp.StatusCode))
	}

	if payload == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return services.Wrap(services.ErrMalformedResponse, "notion", "decode", path, err)
	}
	return nil
}

func firstMatch(pattern *regexp.Regexp, value string) string {
	match := pattern.FindStringSubmatch(value)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func nullableURL(url string) any {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	return url
}
