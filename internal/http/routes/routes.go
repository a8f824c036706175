// Package routes wires the HTTP surface of the catalog: CRUD pages, TMDB
// search/import, exports and the movie details page that combines the
// local record with provider data.
package routes

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"filmoteca/internal/store"
	"filmoteca/internal/tmdb"
	"filmoteca/internal/weather"
)

// Catalog is the persistent movie store
type Catalog interface {
	List(ctx context.Context) ([]store.Movie, error)
	GetByID(ctx context.Context, id uuid.UUID) (*store.Movie, error)
	GetByTMDBID(ctx context.Context, tmdbID int64) (*store.Movie, error)
	Create(ctx context.Context, m *store.Movie) error
	Update(ctx context.Context, m *store.Movie) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Metadata is the movie-metadata provider. A false result means "no data";
// the page degrades instead of failing.
type Metadata interface {
	SearchMovies(ctx context.Context, query string, page int) (*tmdb.SearchResponse, bool)
	GetMovieDetails(ctx context.Context, id int64) (*tmdb.MovieDetails, bool)
	GetMovieImages(ctx context.Context, id int64) (*tmdb.Images, bool)
	GetConfiguration(ctx context.Context) (*tmdb.Configuration, bool)
}

// Forecaster is the weather provider
type Forecaster interface {
	GetDailyForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, bool)
}

type Server struct {
	Router  *chi.Mux
	Sess    *scs.SessionManager
	Tmpl    *template.Template
	Store   Catalog
	TMDB    Metadata
	Weather Forecaster
	Log     zerolog.Logger
}

type ServerOptions struct {
	Sess    *scs.SessionManager
	Tmpl    *template.Template
	Store   Catalog
	TMDB    Metadata
	Weather Forecaster
	Log     zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	s := &Server{
		Router:  r,
		Sess:    opts.Sess,
		Tmpl:    opts.Tmpl,
		Store:   opts.Store,
		TMDB:    opts.TMDB,
		Weather: opts.Weather,
		Log:     opts.Log,
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/", s.handleIndex)
	r.Get("/search", s.handleSearch)

	r.Get("/movies/new", s.handleCreateForm)
	r.Post("/movies", s.handleCreate)
	r.Get("/movies/{id}", s.handleDetails)
	r.Get("/movies/{id}/edit", s.handleEditForm)
	r.Post("/movies/{id}", s.handleUpdate)
	r.Get("/movies/{id}/delete", s.handleDeleteConfirm)
	r.Post("/movies/{id}/delete", s.handleDelete)

	r.Get("/import/{tmdbID}", s.handleImportForm)
	r.Post("/import", s.handleImportConfirm)

	r.Get("/export/csv", s.handleExportCSV)
	r.Get("/export/xlsx", s.handleExportXLSX)

	return s
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.Log.Error().Str("template", name).Err(err).Msg("render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) flash(r *http.Request) string {
	if s.Sess == nil {
		return ""
	}
	return s.Sess.PopString(r.Context(), "flash")
}

func (s *Server) putFlash(r *http.Request, msg string) {
	if s.Sess != nil {
		s.Sess.Put(r.Context(), "flash", msg)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	movies, err := s.Store.List(r.Context())
	if err != nil {
		s.Log.Error().Err(err).Msg("list movies failed")
		http.Error(w, "could not load catalog", http.StatusInternalServerError)
		return
	}

	s.render(w, "index", map[string]any{
		"Title":  "Catalog",
		"Movies": movies,
		"Flash":  s.flash(r),
	})
}

// handleDetails assembles the details page: the local record first, then
// metadata, alternate posters, image configuration and forecast fetched
// concurrently. Any provider miss just leaves its panel empty.
func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.movieFromPath(w, r)
	if !ok {
		return
	}

	var (
		details  *tmdb.MovieDetails
		images   *tmdb.Images
		cfg      *tmdb.Configuration
		forecast *weather.Forecast
		wg       sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		details, _ = s.TMDB.GetMovieDetails(r.Context(), movie.TMDBID)
	}()
	go func() {
		defer wg.Done()
		images, _ = s.TMDB.GetMovieImages(r.Context(), movie.TMDBID)
	}()
	go func() {
		defer wg.Done()
		cfg, _ = s.TMDB.GetConfiguration(r.Context())
	}()
	if movie.HasCoordinates() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			forecast, _ = s.Weather.GetDailyForecast(r.Context(), *movie.Latitude, *movie.Longitude)
		}()
	}
	wg.Wait()

	s.render(w, "details", map[string]any{
		"Title":     movie.Title,
		"Movie":     movie,
		"Details":   details,
		"PosterURL": tmdb.PosterURL(cfg, movie.PosterPath),
		"Gallery":   galleryURLs(cfg, images, 4),
		"Forecast":  forecast,
		"Flash":     s.flash(r),
	})
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "form", map[string]any{
		"Title":  "New movie",
		"Movie":  &store.Movie{},
		"Action": "/movies",
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	movie, err := parseMovieForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Store.Create(r.Context(), movie); err != nil {
		s.Log.Error().Err(err).Msg("create movie failed")
		http.Error(w, "could not create movie", http.StatusInternalServerError)
		return
	}

	s.putFlash(r, "Movie created.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.movieFromPath(w, r)
	if !ok {
		return
	}
	s.render(w, "form", map[string]any{
		"Title":  "Edit " + movie.Title,
		"Movie":  movie,
		"Action": "/movies/" + movie.ID.String(),
		"Flash":  s.flash(r),
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid movie id", http.StatusBadRequest)
		return
	}

	movie, err := parseMovieForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	movie.ID = id

	if err := s.Store.Update(r.Context(), movie); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.Log.Error().Err(err).Msg("update movie failed")
		http.Error(w, "could not update movie", http.StatusInternalServerError)
		return
	}

	s.putFlash(r, "Movie updated.")
	http.Redirect(w, r, "/movies/"+id.String(), http.StatusFound)
}

func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.movieFromPath(w, r)
	if !ok {
		return
	}
	s.render(w, "confirm_delete", map[string]any{
		"Title": "Delete " + movie.Title,
		"Movie": movie,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid movie id", http.StatusBadRequest)
		return
	}

	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.Log.Error().Err(err).Msg("delete movie failed")
		http.Error(w, "could not delete movie", http.StatusInternalServerError)
		return
	}

	s.putFlash(r, "Movie deleted.")
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleSearch renders a page of TMDB search results. A blank query
// renders an empty page without calling the provider.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	result := &tmdb.SearchResponse{}
	if query != "" {
		if res, ok := s.TMDB.SearchMovies(r.Context(), query, page); ok {
			result = res
		}
	}

	s.render(w, "search", map[string]any{
		"Title":  "Search TMDB",
		"Query":  query,
		"Page":   page,
		"Result": result,
		"Flash":  s.flash(r),
	})
}

// handleImportForm prefills a catalog record from TMDB details so the user
// only completes the reference city and coordinates before saving.
func (s *Server) handleImportForm(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := strconv.ParseInt(chi.URLParam(r, "tmdbID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid TMDB id", http.StatusBadRequest)
		return
	}

	existing, err := s.Store.GetByTMDBID(r.Context(), tmdbID)
	if err == nil {
		s.putFlash(r, "Movie already imported.")
		http.Redirect(w, r, "/movies/"+existing.ID.String()+"/edit", http.StatusFound)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.Log.Error().Err(err).Msg("import lookup failed")
		http.Error(w, "could not check catalog", http.StatusInternalServerError)
		return
	}

	details, ok := s.TMDB.GetMovieDetails(r.Context(), tmdbID)
	if !ok {
		http.Error(w, "movie metadata unavailable", http.StatusNotFound)
		return
	}

	movie := &store.Movie{
		TMDBID:        details.ID,
		Title:         details.Title,
		OriginalTitle: details.OriginalTitle,
		Synopsis:      details.Overview,
		Genres:        details.GenreNames(),
		PosterPath:    details.PosterPath,
		Language:      details.OriginalLanguage,
		Runtime:       details.Runtime,
		VoteAverage:   &details.VoteAverage,
		MainCast:      details.MainCast(5),
	}
	if t, err := time.Parse("2006-01-02", details.ReleaseDate); err == nil {
		movie.ReleaseDate = &t
	}

	s.render(w, "import", map[string]any{
		"Title": "Import " + details.Title,
		"Movie": movie,
	})
}

func (s *Server) handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	movie, err := parseMovieForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Store.Create(r.Context(), movie); err != nil {
		s.Log.Error().Err(err).Msg("import movie failed")
		http.Error(w, "could not import movie", http.StatusInternalServerError)
		return
	}

	s.putFlash(r, "Movie imported successfully!")
	http.Redirect(w, r, "/", http.StatusFound)
}

// galleryURLs builds display URLs for up to n alternate posters
func galleryURLs(cfg *tmdb.Configuration, images *tmdb.Images, n int) []string {
	if images == nil {
		return nil
	}
	urls := make([]string, 0, n)
	for _, img := range images.Posters {
		if len(urls) == n {
			break
		}
		if u := tmdb.PosterURL(cfg, img.FilePath); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// movieFromPath loads the record named by the {id} URL parameter, writing
// the error response itself when the id is malformed or unknown.
func (s *Server) movieFromPath(w http.ResponseWriter, r *http.Request) (*store.Movie, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid movie id", http.StatusBadRequest)
		return nil, false
	}

	movie, err := s.Store.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		s.Log.Error().Err(err).Msg("load movie failed")
		http.Error(w, "could not load movie", http.StatusInternalServerError)
		return nil, false
	}
	return movie, true
}

func parseMovieForm(r *http.Request) (*store.Movie, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("bad form")
	}

	title := strings.TrimSpace(r.Form.Get("title"))
	if title == "" {
		return nil, fmt.Errorf("title required")
	}

	m := &store.Movie{
		Title:         title,
		OriginalTitle: strings.TrimSpace(r.Form.Get("original_title")),
		Synopsis:      strings.TrimSpace(r.Form.Get("synopsis")),
		Genres:        strings.TrimSpace(r.Form.Get("genres")),
		PosterPath:    strings.TrimSpace(r.Form.Get("poster_path")),
		Language:      strings.TrimSpace(r.Form.Get("language")),
		MainCast:      strings.TrimSpace(r.Form.Get("main_cast")),
		ReferenceCity: strings.TrimSpace(r.Form.Get("reference_city")),
	}

	if v := r.Form.Get("tmdb_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tmdb_id")
		}
		m.TMDBID = id
	}
	if v := r.Form.Get("release_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid release_date, want YYYY-MM-DD")
		}
		m.ReleaseDate = &t
	}
	if v := r.Form.Get("runtime"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid runtime")
		}
		m.Runtime = &n
	}
	if v := r.Form.Get("vote_average"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vote_average")
		}
		m.VoteAverage = &f
	}
	if v := r.Form.Get("latitude"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude")
		}
		m.Latitude = &f
	}
	if v := r.Form.Get("longitude"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude")
		}
		m.Longitude = &f
	}

	return m, nil
}
