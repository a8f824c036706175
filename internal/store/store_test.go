package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleMovie() *Movie {
	release := time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC)
	runtime := 136
	vote := 8.2
	lat, lon := -23.5505, -46.6333
	return &Movie{
		TMDBID:        603,
		Title:         "The Matrix",
		OriginalTitle: "The Matrix",
		Synopsis:      "A hacker learns the truth.",
		ReleaseDate:   &release,
		Genres:        "Action, Science Fiction",
		PosterPath:    "/matrix.jpg",
		Language:      "en",
		Runtime:       &runtime,
		VoteAverage:   &vote,
		MainCast:      "Keanu Reeves, Laurence Fishburne",
		ReferenceCity: "São Paulo",
		Latitude:      &lat,
		Longitude:     &lon,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := sampleMovie()
	require.NoError(t, s.Create(ctx, m))
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.False(t, m.CreatedAt.IsZero())

	got, err := s.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, m.TMDBID, got.TMDBID)
	require.NotNil(t, got.ReleaseDate)
	assert.Equal(t, "1999-03-31", got.ReleaseDate.Format("2006-01-02"))
	require.NotNil(t, got.Runtime)
	assert.Equal(t, 136, *got.Runtime)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, -23.5505, *got.Latitude)
	assert.Nil(t, got.UpdatedAt)
}

func TestOptionalFieldsSurviveAsNil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := &Movie{TMDBID: 1, Title: "Bare"}
	require.NoError(t, s.Create(ctx, m))

	got, err := s.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReleaseDate)
	assert.Nil(t, got.Runtime)
	assert.Nil(t, got.VoteAverage)
	assert.Nil(t, got.Latitude)
	assert.Nil(t, got.Longitude)
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Movie{TMDBID: 1, Title: "First"}
	require.NoError(t, s.Create(ctx, first))
	time.Sleep(2 * time.Millisecond)
	second := &Movie{TMDBID: 2, Title: "Second"}
	require.NoError(t, s.Create(ctx, second))

	movies, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Second", movies[0].Title)
	assert.Equal(t, "First", movies[1].Title)
}

func TestGetByTMDBID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := sampleMovie()
	require.NoError(t, s.Create(ctx, m))

	got, err := s.GetByTMDBID(ctx, 603)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = s.GetByTMDBID(ctx, 999999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := sampleMovie()
	require.NoError(t, s.Create(ctx, m))

	m.Title = "The Matrix (1999)"
	m.Runtime = nil
	require.NoError(t, s.Update(ctx, m))

	got, err := s.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix (1999)", got.Title)
	assert.Nil(t, got.Runtime)
	assert.NotNil(t, got.UpdatedAt)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)

	m := sampleMovie()
	m.ID = uuid.New()
	assert.ErrorIs(t, s.Update(context.Background(), m), ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := sampleMovie()
	require.NoError(t, s.Create(ctx, m))
	require.NoError(t, s.Delete(ctx, m.ID))

	_, err := s.GetByID(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting an unknown id is a no-op
	assert.NoError(t, s.Delete(ctx, uuid.New()))
}
