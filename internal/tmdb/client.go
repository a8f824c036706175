// Package tmdb is the client for the TMDB metadata provider: movie search,
// details with credits, images and the image-serving configuration.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"filmoteca/internal/cache"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// Cache TTLs per operation. Configuration is long-lived; everything else
// tracks how quickly upstream data actually changes.
const (
	searchTTL  = 5 * time.Minute
	detailsTTL = 10 * time.Minute
	imagesTTL  = 10 * time.Minute
	configTTL  = 6 * time.Hour
)

// Fetcher issues authenticated GET requests for raw JSON
type Fetcher interface {
	Get(ctx context.Context, url string) (status int, body []byte, err error)
}

// Cache is the response cache consulted before every fetch
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// Client talks to the TMDB API. Every operation consults the cache first
// and returns (nil, false) on any failure; nothing here is fatal.
type Client struct {
	fetch    Fetcher
	cache    Cache
	baseURL  string
	language string
	log      zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests)
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if raw != "" {
			c.baseURL = strings.TrimSuffix(raw, "/")
		}
	}
}

// WithLanguage sets the language query parameter for search and details
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// New creates a TMDB client
func New(fetch Fetcher, cache Cache, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		fetch:    fetch,
		cache:    cache,
		baseURL:  DefaultBaseURL,
		language: "pt-BR",
		log:      log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchMovies returns one page of search results. A blank query
// short-circuits to an empty page without contacting the network.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*SearchResponse, bool) {
	if strings.TrimSpace(query) == "" {
		return &SearchResponse{Results: []MovieSummary{}}, true
	}
	if page < 1 {
		page = 1
	}

	key := cache.Key("tmdb:search", query, strconv.Itoa(page))
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("language", c.language)

	return getJSON[SearchResponse](c, ctx, key, searchTTL, c.baseURL+"/search/movie?"+q.Encode())
}

// GetMovieDetails returns movie details enriched with credits in the same
// round trip, so cast names never need a second call.
func (c *Client) GetMovieDetails(ctx context.Context, id int64) (*MovieDetails, bool) {
	key := cache.Key("tmdb:details", strconv.FormatInt(id, 10))
	q := url.Values{}
	q.Set("language", c.language)
	q.Set("append_to_response", "credits")

	return getJSON[MovieDetails](c, ctx, key, detailsTTL, fmt.Sprintf("%s/movie/%d?%s", c.baseURL, id, q.Encode()))
}

// GetMovieImages returns the backdrops and posters of a movie
func (c *Client) GetMovieImages(ctx context.Context, id int64) (*Images, bool) {
	key := cache.Key("tmdb:images", strconv.FormatInt(id, 10))
	return getJSON[Images](c, ctx, key, imagesTTL, fmt.Sprintf("%s/movie/%d/images", c.baseURL, id))
}

// GetConfiguration returns the image-serving configuration
func (c *Client) GetConfiguration(ctx context.Context) (*Configuration, bool) {
	return getJSON[Configuration](c, ctx, "tmdb:config", configTTL, c.baseURL+"/configuration")
}

// getJSON is the shared cache-then-fetch path. Failed calls are never
// cached, so a failing parameter combination is retried on the next call.
func getJSON[T any](c *Client, ctx context.Context, key string, ttl time.Duration, rawURL string) (*T, bool) {
	if v, ok := c.cache.Get(key); ok {
		if cached, ok := v.(*T); ok {
			c.log.Debug().Str("key", key).Msg("tmdb cache hit")
			return cached, true
		}
	}

	status, body, err := c.fetch.Get(ctx, rawURL)
	if err != nil {
		c.log.Error().Str("key", key).Err(err).Msg("tmdb request failed")
		return nil, false
	}
	if status < 200 || status > 299 {
		c.log.Error().Str("key", key).Int("status", status).Bytes("body", body).Msg("tmdb upstream error")
		return nil, false
	}

	out := new(T)
	if err := json.Unmarshal(body, out); err != nil {
		c.log.Error().Str("key", key).Err(err).Msg("tmdb decode failed")
		return nil, false
	}

	c.cache.Set(key, out, ttl)
	return out, true
}
