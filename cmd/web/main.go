package main

import (
	"net/http"
	"os"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"filmoteca/internal/cache"
	"filmoteca/internal/config"
	"filmoteca/internal/fetch"
	"filmoteca/internal/http/routes"
	"filmoteca/internal/store"
	"filmoteca/internal/tmdb"
	"filmoteca/internal/weather"
	"filmoteca/web"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}

	// Catalog store
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("db error")
	}
	defer st.Close() //nolint:errcheck

	// Response cache shared by both provider clients
	responses := cache.New()

	// Outbound HTTP, one auth mode per provider
	var tmdbFetch *fetch.Client
	if cfg.TMDB.UseBearerToken() {
		tmdbFetch = fetch.NewBearer(cfg.TMDB.BearerToken, cfg.HTTPTimeout, logger)
	} else {
		tmdbFetch = fetch.NewAPIKey(cfg.TMDB.APIKey, cfg.HTTPTimeout, logger)
	}
	weatherFetch := fetch.NewAnonymous(cfg.HTTPTimeout, logger)

	metadata := tmdb.New(tmdbFetch, responses, logger,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithLanguage(cfg.TMDB.Language))
	forecaster := weather.New(weatherFetch, responses, logger,
		weather.WithBaseURL(cfg.Weather.BaseURL))

	// Sessions (flash messages)
	sess := scs.New()
	sess.Lifetime = 12 * time.Hour
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode

	// Templates
	tmpl, err := web.Templates()
	if err != nil {
		logger.Fatal().Err(err).Msg("template error")
	}

	// Periodic sweep so expired cache entries do not pile up
	sched := cron.New()
	if _, err := sched.AddFunc("@every 10m", func() {
		if n := responses.Sweep(); n > 0 {
			logger.Info().Int("dropped", n).Msg("cache sweep")
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("cron error")
	}
	sched.Start()
	defer sched.Stop()

	// Router / server
	s := routes.New(routes.ServerOptions{
		Sess:    sess,
		Tmpl:    tmpl,
		Store:   st,
		TMDB:    metadata,
		Weather: forecaster,
		Log:     logger,
	})
	h := hlog.NewHandler(logger)(s.Router)

	logger.Info().Str("addr", cfg.Addr).Msg("starting filmoteca")
	srv := &http.Server{Addr: cfg.Addr, Handler: sess.LoadAndSave(h)}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
