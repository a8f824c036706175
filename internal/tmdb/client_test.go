package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmoteca/internal/cache"
	"filmoteca/internal/fetch"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := fetch.NewAnonymous(5*time.Second, zerolog.Nop())
	c := New(f, cache.New(), zerolog.Nop(), WithBaseURL(srv.URL))
	return c, srv
}

const searchPayload = `{
	"page": 1,
	"total_pages": 5,
	"results": [{
		"id": 603,
		"title": "The Matrix",
		"original_title": "The Matrix",
		"overview": "A hacker learns the truth.",
		"release_date": "1999-03-31",
		"poster_path": "/matrix.jpg",
		"original_language": "en",
		"vote_average": 8.2
	}]
}`

func TestSearchMoviesDecodesAndCaches(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "pt-BR", r.URL.Query().Get("language"))
		_, _ = w.Write([]byte(searchPayload))
	})

	res, ok := c.SearchMovies(context.Background(), "matrix", 1)
	require.True(t, ok)
	require.Len(t, res.Results, 1)
	assert.Equal(t, int64(603), res.Results[0].ID)
	assert.Equal(t, "The Matrix", res.Results[0].Title)
	assert.Equal(t, 5, res.TotalPages)

	// second call within the TTL window: identical result, no network
	again, ok := c.SearchMovies(context.Background(), "matrix", 1)
	require.True(t, ok)
	assert.Same(t, res, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchMoviesBlankQueryShortCircuits(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	res, ok := c.SearchMovies(context.Background(), "   ", 1)
	require.True(t, ok)
	assert.Empty(t, res.Results)
	assert.Equal(t, int32(0), calls.Load(), "blank query must not contact the network")
}

func TestSearchMoviesDistinctPagesAreDistinctEntries(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(searchPayload))
	})

	_, ok := c.SearchMovies(context.Background(), "matrix", 1)
	require.True(t, ok)
	_, ok = c.SearchMovies(context.Background(), "matrix", 2)
	require.True(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetMovieDetailsRequestsCreditsInSameRoundTrip(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		assert.Equal(t, "credits", r.URL.Query().Get("append_to_response"))
		_, _ = w.Write([]byte(`{
			"id": 603,
			"title": "The Matrix",
			"runtime": 136,
			"genres": [{"name": "Action"}, {"name": "Science Fiction"}],
			"credits": {"cast": [
				{"name": "Keanu Reeves"}, {"name": "Laurence Fishburne"},
				{"name": "Carrie-Anne Moss"}, {"name": "Hugo Weaving"},
				{"name": "Gloria Foster"}, {"name": "Joe Pantoliano"}
			]}
		}`))
	})

	d, ok := c.GetMovieDetails(context.Background(), 603)
	require.True(t, ok)
	require.NotNil(t, d.Runtime)
	assert.Equal(t, 136, *d.Runtime)
	assert.Equal(t, "Action, Science Fiction", d.GenreNames())
	assert.Equal(t, "Keanu Reeves, Laurence Fishburne, Carrie-Anne Moss, Hugo Weaving, Gloria Foster", d.MainCast(5))
}

func TestGetMovieDetailsUpstreamFailureIsMissNotFatal(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	d, ok := c.GetMovieDetails(context.Background(), 999999)
	assert.False(t, ok)
	assert.Nil(t, d)

	// failures are never cached, so the next call retries upstream
	_, ok = c.GetMovieDetails(context.Background(), 999999)
	assert.False(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetMovieDetailsMalformedBodyIsMiss(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "not a number"`))
	})

	d, ok := c.GetMovieDetails(context.Background(), 603)
	assert.False(t, ok)
	assert.Nil(t, d)
}

func TestGetMovieImages(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603/images", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 603,
			"backdrops": [{"file_path": "/b1.jpg", "width": 1280, "height": 720, "aspect_ratio": 1.778, "vote_count": 12}],
			"posters": [{"file_path": "/p1.jpg", "width": 500, "height": 750, "vote_average": 5.5, "vote_count": 3}]
		}`))
	})

	imgs, ok := c.GetMovieImages(context.Background(), 603)
	require.True(t, ok)
	assert.Equal(t, int64(603), imgs.ID)
	require.Len(t, imgs.Backdrops, 1)
	assert.Equal(t, 1280, imgs.Backdrops[0].Width)
	assert.Nil(t, imgs.Backdrops[0].VoteAverage)
	require.Len(t, imgs.Posters, 1)
	require.NotNil(t, imgs.Posters[0].VoteAverage)
	assert.Equal(t, 5.5, *imgs.Posters[0].VoteAverage)
}

func TestGetConfigurationCached(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/configuration", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"images": {
				"base_url": "http://image.tmdb.org/t/p/",
				"secure_base_url": "https://image.tmdb.org/t/p/",
				"poster_sizes": ["w92", "w154", "w185", "w342", "w500", "w780", "original"]
			}
		}`))
	})

	cfg, ok := c.GetConfiguration(context.Background())
	require.True(t, ok)
	assert.Equal(t, "https://image.tmdb.org/t/p/", cfg.Images.SecureBaseURL)
	assert.Len(t, cfg.Images.PosterSizes, 7)

	_, ok = c.GetConfiguration(context.Background())
	require.True(t, ok)
	assert.Equal(t, int32(1), calls.Load())
}
