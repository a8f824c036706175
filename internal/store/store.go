// Package store persists user-owned movie records in an embedded SQLite
// database. Single table, schema ensured at open, no migration framework.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("movie not found")

// Movie is a catalog record. Optional fields are pointers so their
// absence survives the round trip through the database.
type Movie struct {
	ID            uuid.UUID
	TMDBID        int64
	Title         string
	OriginalTitle string
	Synopsis      string
	ReleaseDate   *time.Time
	Genres        string
	PosterPath    string
	Language      string
	Runtime       *int
	VoteAverage   *float64
	MainCast      string
	ReferenceCity string
	Latitude      *float64
	Longitude     *float64
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// HasCoordinates reports whether a reference location is set
func (m *Movie) HasCoordinates() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Store wraps the SQLite handle
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
        CREATE TABLE IF NOT EXISTS movies (
            id             TEXT PRIMARY KEY,
            tmdb_id        INTEGER NOT NULL,
            title          TEXT NOT NULL,
            original_title TEXT NOT NULL DEFAULT '',
            synopsis       TEXT NOT NULL DEFAULT '',
            release_date   TEXT,
            genres         TEXT NOT NULL DEFAULT '',
            poster_path    TEXT NOT NULL DEFAULT '',
            language       TEXT NOT NULL DEFAULT '',
            runtime_min    INTEGER,
            vote_average   REAL,
            main_cast      TEXT NOT NULL DEFAULT '',
            reference_city TEXT NOT NULL DEFAULT '',
            latitude       REAL,
            longitude      REAL,
            created_at     TEXT NOT NULL,
            updated_at     TEXT
        )
    `)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const movieColumns = `id, tmdb_id, title, original_title, synopsis, release_date,
    genres, poster_path, language, runtime_min, vote_average, main_cast,
    reference_city, latitude, longitude, created_at, updated_at`

// List returns every record, newest created first
func (s *Store) List(ctx context.Context) ([]Movie, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var movies []Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// GetByID returns one record or ErrNotFound
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Movie, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE id = ?`, id.String())
	return getOne(row)
}

// GetByTMDBID returns the record imported from the given TMDB id, or
// ErrNotFound. Used to dedupe imports.
func (s *Store) GetByTMDBID(ctx context.Context, tmdbID int64) (*Movie, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE tmdb_id = ?`, tmdbID)
	return getOne(row)
}

// Create inserts a record, assigning its ID and creation time
func (s *Store) Create(ctx context.Context, m *Movie) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO movies (`+movieColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.TMDBID, m.Title, m.OriginalTitle, m.Synopsis,
		nullDate(m.ReleaseDate), m.Genres, m.PosterPath, m.Language,
		nullInt(m.Runtime), nullFloat(m.VoteAverage), m.MainCast,
		m.ReferenceCity, nullFloat(m.Latitude), nullFloat(m.Longitude),
		m.CreatedAt.Format(time.RFC3339Nano), nil)
	if err != nil {
		return fmt.Errorf("create movie: %w", err)
	}
	return nil
}

// Update rewrites a record and stamps its update time
func (s *Store) Update(ctx context.Context, m *Movie) error {
	now := time.Now().UTC()
	m.UpdatedAt = &now

	res, err := s.db.ExecContext(ctx, `
        UPDATE movies SET
            tmdb_id = ?, title = ?, original_title = ?, synopsis = ?,
            release_date = ?, genres = ?, poster_path = ?, language = ?,
            runtime_min = ?, vote_average = ?, main_cast = ?,
            reference_city = ?, latitude = ?, longitude = ?, updated_at = ?
        WHERE id = ?`,
		m.TMDBID, m.Title, m.OriginalTitle, m.Synopsis,
		nullDate(m.ReleaseDate), m.Genres, m.PosterPath, m.Language,
		nullInt(m.Runtime), nullFloat(m.VoteAverage), m.MainCast,
		m.ReferenceCity, nullFloat(m.Latitude), nullFloat(m.Longitude),
		now.Format(time.RFC3339Nano), m.ID.String())
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a record by id
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	return nil
}

func getOne(row *sql.Row) (*Movie, error) {
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(row scanner) (Movie, error) {
	var (
		m          Movie
		id         string
		release    sql.NullString
		runtime    sql.NullInt64
		vote       sql.NullFloat64
		lat, lon   sql.NullFloat64
		created    string
		updated    sql.NullString
	)
	err := row.Scan(&id, &m.TMDBID, &m.Title, &m.OriginalTitle, &m.Synopsis,
		&release, &m.Genres, &m.PosterPath, &m.Language, &runtime, &vote,
		&m.MainCast, &m.ReferenceCity, &lat, &lon, &created, &updated)
	if err != nil {
		return Movie{}, err
	}

	m.ID, err = uuid.Parse(id)
	if err != nil {
		return Movie{}, fmt.Errorf("parse movie id %q: %w", id, err)
	}
	if release.Valid && release.String != "" {
		if t, err := time.Parse("2006-01-02", release.String); err == nil {
			m.ReleaseDate = &t
		}
	}
	if runtime.Valid {
		v := int(runtime.Int64)
		m.Runtime = &v
	}
	if vote.Valid {
		m.VoteAverage = &vote.Float64
	}
	if lat.Valid {
		m.Latitude = &lat.Float64
	}
	if lon.Valid {
		m.Longitude = &lon.Float64
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		m.CreatedAt = t
	}
	if updated.Valid && updated.String != "" {
		if t, err := time.Parse(time.RFC3339Nano, updated.String); err == nil {
			m.UpdatedAt = &t
		}
	}
	return m, nil
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
