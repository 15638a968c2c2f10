// Package tmdb is a small client for the external movie catalog API.  The
// API key stays on the server; responses are returned as raw JSON for the
// proxy endpoints and decoded only where the backend needs fields.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	defaultLang    = "en-US"

	detailsCacheSize = 512
	detailsCacheTTL  = 30 * time.Minute
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("tmdb: api key not configured")

// UpstreamError reports a non-2xx response from the catalog API.
type UpstreamError struct {
	Status int
	Path   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tmdb: %s returned status %d", e.Path, e.Status)
}

// Genre is a catalog genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails holds the fields of /movie/{id} the backend uses, plus the
// full upstream body for the proxy.
type MovieDetails struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	PosterPath       string  `json:"poster_path"`
	OriginalLanguage string  `json:"original_language"`
	Genres           []Genre `json:"genres"`

	Raw json.RawMessage `json:"-"`
}

// PrimaryGenre returns the first genre name, or "" when there is none.
func (d *MovieDetails) PrimaryGenre() string {
	if len(d.Genres) == 0 {
		return ""
	}
	return d.Genres[0].Name
}

type baseParams struct {
	APIKey   string `url:"api_key"`
	Language string `url:"language,omitempty"`
}

type pageParams struct {
	baseParams
	Page int `url:"page,omitempty"`
}

type searchParams struct {
	pageParams
	Query string `url:"query"`
}

// Client calls the catalog API.  It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	details *expirable.LRU[string, *MovieDetails]
}

// New returns a client for baseURL (DefaultBaseURL when empty) with the
// given request timeout.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		details: expirable.NewLRU[string, *MovieDetails](detailsCacheSize, nil, detailsCacheTTL),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

func (c *Client) base() baseParams {
	return baseParams{APIKey: c.apiKey, Language: defaultLang}
}

// Search runs /search/movie for q.
func (c *Client) Search(ctx context.Context, q string, page int) (json.RawMessage, error) {
	return c.get(ctx, "/search/movie", searchParams{
		pageParams: pageParams{baseParams: c.base(), Page: page},
		Query:      q,
	})
}

// Popular returns /movie/popular.
func (c *Client) Popular(ctx context.Context, page int) (json.RawMessage, error) {
	return c.get(ctx, "/movie/popular", pageParams{baseParams: c.base(), Page: page})
}

// Details returns /movie/{id}.  Successful responses are cached.
func (c *Client) Details(ctx context.Context, id string) (*MovieDetails, error) {
	id = strings.TrimSpace(id)
	if d, ok := c.details.Get(id); ok {
		return d, nil
	}
	raw, err := c.get(ctx, "/movie/"+url.PathEscape(id), c.base())
	if err != nil {
		return nil, err
	}
	d := &MovieDetails{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("tmdb: decode details: %w", err)
	}
	d.Raw = raw
	c.details.Add(id, d)
	return d, nil
}

// Credits returns /movie/{id}/credits.
func (c *Client) Credits(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, "/movie/"+url.PathEscape(strings.TrimSpace(id))+"/credits", c.base())
}

// Videos returns /movie/{id}/videos.
func (c *Client) Videos(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, "/movie/"+url.PathEscape(strings.TrimSpace(id))+"/videos", c.base())
}

func (c *Client) get(ctx context.Context, path string, params any) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	v, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("tmdb: encode params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &UpstreamError{Status: resp.StatusCode, Path: path}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("tmdb: read %s: %w", path, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("tmdb: %s returned invalid json", path)
	}
	return body, nil
}

// ImageBaseURL serves poster images at the width used by the frontend.
const ImageBaseURL = "https://image.tmdb.org/t/p/w500"

// PosterURL turns a poster_path into an absolute image URL.  Empty paths
// stay empty.
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return ImageBaseURL + path
}
