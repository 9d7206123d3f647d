package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"marquee/internal/services"
)

// RoleDirector and RoleActor scope discovery queries. Upstream role
// filters are unreliable, so results still need per-candidate credit
// verification (see internal/fetch).
const (
	RoleDirector = "director"
	RoleActor    = "actor"
)

// StatusReleased is the TMDB status string confirming a movie shipped.
const StatusReleased = "Released"

// Client provides access to the TMDB API.
type Client struct {
	apiKey      string
	baseURL     string
	language    string
	httpClient  *http.Client
	maxAttempts uint
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Pass a client whose
// transport is wrapped by the rate-limited gate.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMaxAttempts overrides the retry budget for transient failures.
func WithMaxAttempts(attempts uint) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		language:    strings.TrimSpace(language),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// PersonResult is a single person search match.
type PersonResult struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Popularity float64 `json:"popularity"`
}

// PersonResponse models the paginated person search response.
type PersonResponse struct {
	Page         int            `json:"page"`
	Results      []PersonResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// MovieResult is a single discovery or details payload entry.
type MovieResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	GenreIDs    []int64 `json:"genre_ids"`
	Popularity  float64 `json:"popularity"`
	ReleaseDate string  `json:"release_date"`
}

// DiscoverResponse models the paginated discovery response.
type DiscoverResponse struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MovieDetails carries the per-movie fields needed for release
// graduation checks.
type MovieDetails struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	ReleaseDate string `json:"release_date"`
}

// ExternalIDs carries cross-reference identifiers for a person or movie.
type ExternalIDs struct {
	IMDBID string `json:"imdb_id"`
}

// CreditEntry is one cast or crew listing on a movie.
type CreditEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job,omitempty"`
}

// Credits models a movie's cast and crew listing.
type Credits struct {
	ID   int64         `json:"id"`
	Cast []CreditEntry `json:"cast"`
	Crew []CreditEntry `json:"crew"`
}

// Genre is one entry of the genre code table.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SearchPerson looks up people by display name. Zero results is not an
// error; callers apply the first-result-or-sentinel policy.
func (c *Client) SearchPerson(ctx context.Context, name string) (*PersonResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name must not be empty")
	}
	params := url.Values{}
	params.Set("query", name)
	var payload PersonResponse
	if err := c.getJSON(ctx, "/search/person", params, &payload); err != nil {
		return nil, fmt.Errorf("search person %q: %w", name, err)
	}
	return &payload, nil
}

// PersonExternalIDs fetches cross-reference IDs for a person.
func (c *Client) PersonExternalIDs(ctx context.Context, personID string) (*ExternalIDs, error) {
	if strings.TrimSpace(personID) == "" {
		return nil, errors.New("person id must not be empty")
	}
	var payload ExternalIDs
	if err := c.getJSON(ctx, "/person/"+url.PathEscape(personID)+"/external_ids", nil, &payload); err != nil {
		return nil, fmt.Errorf("person external ids %s: %w", personID, err)
	}
	return &payload, nil
}

// DiscoverByPerson queries the discovery endpoint scoped to one person in
// one role, sorted by primary release date. Actor and director queries
// must be issued separately; TMDB has no combined role filter.
func (c *Client) DiscoverByPerson(ctx context.Context, personID, role string) (*DiscoverResponse, error) {
	if strings.TrimSpace(personID) == "" {
		return nil, errors.New("person id must not be empty")
	}
	params := url.Values{}
	params.Set("include_adult", "false")
	params.Set("include_video", "false")
	params.Set("sort_by", "primary_release_date.desc")
	switch role {
	case RoleActor:
		params.Set("with_cast", personID)
	case RoleDirector:
		params.Set("with_crew", personID)
		params.Set("crew_position", "Director")
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	var payload DiscoverResponse
	if err := c.getJSON(ctx, "/discover/movie", params, &payload); err != nil {
		return nil, fmt.Errorf("discover movies for person %s (%s): %w", personID, role, err)
	}
	return &payload, nil
}

// MovieCredits fetches the full cast/crew listing for a movie.
func (c *Client) MovieCredits(ctx context.Context, movieID string) (*Credits, error) {
	if strings.TrimSpace(movieID) == "" {
		return nil, errors.New("movie id must not be empty")
	}
	var payload Credits
	if err := c.getJSON(ctx, "/movie/"+url.PathEscape(movieID)+"/credits", nil, &payload); err != nil {
		return nil, fmt.Errorf("movie credits %s: %w", movieID, err)
	}
	return &payload, nil
}

// MovieDetails fetches release status and date for a movie.
func (c *Client) MovieDetails(ctx context.Context, movieID string) (*MovieDetails, error) {
	if strings.TrimSpace(movieID) == "" {
		return nil, errors.New("movie id must not be empty")
	}
	var payload MovieDetails
	if err := c.getJSON(ctx, "/movie/"+url.PathEscape(movieID), nil, &payload); err != nil {
		return nil, fmt.Errorf("movie details %s: %w", movieID, err)
	}
	return &payload, nil
}

// MovieExternalIDs fetches cross-reference IDs for a movie.
func (c *Client) MovieExternalIDs(ctx context.Context, movieID string) (*ExternalIDs, error) {
	if strings.TrimSpace(movieID) == "" {
		return nil, errors.New("movie id must not be empty")
	}
	var payload ExternalIDs
	if err := c.getJSON(ctx, "/movie/"+url.PathEscape(movieID)+"/external_ids", nil, &payload); err != nil {
		return nil, fmt.Errorf("movie external ids %s: %w", movieID, err)
	}
	return &payload, nil
}

// GenreList fetches the entire genre code table in one call.
func (c *Client) GenreList(ctx context.Context) ([]Genre, error) {
	var payload struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.getJSON(ctx, "/genre/movie/list", nil, &payload); err != nil {
		return nil, fmt.Errorf("genre list: %w", err)
	}
	return payload.Genres, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tmdb returned status %d", e.code)
}

// getJSON issues a GET against the API with bearer auth, retrying
// transient failures with backoff. The rate gate lives in the transport,
// so every attempt is spaced like any other request.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, payload any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	if c.language != "" && !params.Has("language") {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("build request: %w", err))
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.apiKey)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return services.Wrap(services.ErrSourceUnavailable, "tmdb", "request", endpoint.Path, err)
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusOK:
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(services.Wrap(services.ErrNotFound, "tmdb", "request", endpoint.Path, &statusError{resp.StatusCode}))
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return services.Wrap(services.ErrSourceUnavailable, "tmdb", "request", endpoint.Path, &statusError{resp.StatusCode})
			default:
				return retry.Unrecoverable(services.Wrap(services.ErrSourceUnavailable, "tmdb", "request", endpoint.Path, &statusError{resp.StatusCode}))
			}

			if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
				return retry.Unrecoverable(services.Wrap(services.ErrMalformedResponse, "tmdb", "decode", endpoint.Path, err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

// FormatID renders a numeric TMDB identifier in the string form the rest
// of the application keys on.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
