// Package tmdb provides access to The Movie Database API endpoints the
// tracker needs: person search, external ID lookups, discovery by person
// and role, per-movie credits, the genre code table, and release status.
//
// All calls authenticate with a bearer credential and ride an injected
// HTTP client, which is expected to route through the rate-limited
// request gate. Transient failures (429, 5xx, network) retry with
// backoff inside the client; non-2xx responses are never silently
// parsed.
package tmdb
