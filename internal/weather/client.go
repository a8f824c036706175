// Package weather is the client for the Open-Meteo forecast provider.
package weather

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"filmoteca/internal/cache"
)

const DefaultBaseURL = "https://api.open-meteo.com/v1"

const forecastTTL = 10 * time.Minute

// Forecast is the daily temperature forecast for a coordinate pair.
// The three Daily sequences are parallel and always the same length.
type Forecast struct {
	Latitude             float64    `json:"latitude"`
	Longitude            float64    `json:"longitude"`
	Timezone             string     `json:"timezone"`
	TimezoneAbbreviation string     `json:"timezone_abbreviation"`
	Elevation            float64    `json:"elevation"`
	Daily                Daily      `json:"daily"`
	DailyUnits           DailyUnits `json:"daily_units"`
}

// Daily holds the parallel per-day sequences, indexed by day offset
type Daily struct {
	Time           []string  `json:"time"`
	TemperatureMax []float64 `json:"temperature_2m_max"`
	TemperatureMin []float64 `json:"temperature_2m_min"`
}

// DailyUnits labels the Daily sequences
type DailyUnits struct {
	Time           string `json:"time"`
	TemperatureMax string `json:"temperature_2m_max"`
	TemperatureMin string `json:"temperature_2m_min"`
}

// Day is one row of the daily series, assembled for rendering
type Day struct {
	Date string
	Max  float64
	Min  float64
}

// Days zips the parallel sequences into per-day rows, stopping at the
// shortest sequence if upstream ever returns ragged data.
func (d Daily) Days() []Day {
	n := len(d.Time)
	if len(d.TemperatureMax) < n {
		n = len(d.TemperatureMax)
	}
	if len(d.TemperatureMin) < n {
		n = len(d.TemperatureMin)
	}
	days := make([]Day, n)
	for i := 0; i < n; i++ {
		days[i] = Day{Date: d.Time[i], Max: d.TemperatureMax[i], Min: d.TemperatureMin[i]}
	}
	return days
}

// Fetcher issues GET requests for raw JSON
type Fetcher interface {
	Get(ctx context.Context, url string) (status int, body []byte, err error)
}

// Cache is the response cache consulted before every fetch
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// Client talks to the Open-Meteo API. No authentication is required.
type Client struct {
	fetch   Fetcher
	cache   Cache
	baseURL string
	log     zerolog.Logger
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

// New creates a weather client
func New(fetch Fetcher, cache Cache, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{fetch: fetch, cache: cache, baseURL: DefaultBaseURL, log: log}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetDailyForecast returns the multi-day temperature forecast for a
// latitude/longitude pair, or (nil, false) on any failure. The cache key
// rounds both coordinates to 4 decimal places, so requests within ~11m of
// each other share an entry.
func (c *Client) GetDailyForecast(ctx context.Context, lat, lon float64) (*Forecast, bool) {
	key := cache.Key("weather",
		strconv.FormatFloat(lat, 'f', 4, 64),
		strconv.FormatFloat(lon, 'f', 4, 64))

	if v, ok := c.cache.Get(key); ok {
		if cached, ok := v.(*Forecast); ok {
			c.log.Debug().Str("key", key).Msg("weather cache hit")
			return cached, true
		}
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min")
	q.Set("timezone", "auto")

	status, body, err := c.fetch.Get(ctx, c.baseURL+"/forecast?"+q.Encode())
	if err != nil {
		c.log.Error().Str("key", key).Err(err).Msg("weather request failed")
		return nil, false
	}
	if status < 200 || status > 299 {
		c.log.Error().Str("key", key).Int("status", status).Bytes("body", body).Msg("weather upstream error")
		return nil, false
	}

	out := &Forecast{}
	if err := json.Unmarshal(body, out); err != nil {
		c.log.Error().Str("key", key).Err(err).Msg("weather decode failed")
		return nil, false
	}

	c.cache.Set(key, out, forecastTTL)
	return out, true
}
