package tmdb

import "strings"

// SearchResponse is one page of results from GET /search/movie
type SearchResponse struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Results    []MovieSummary `json:"results"`
}

// MovieSummary is a movie as returned by the search endpoint
type MovieSummary struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
}

// MovieDetails extends MovieSummary with the fields of GET /movie/{id}.
// Credits are requested in the same round trip via append_to_response.
type MovieDetails struct {
	MovieSummary
	Runtime *int    `json:"runtime"`
	Genres  []Genre `json:"genres"`
	Credits Credits `json:"credits"`
}

// Genre is a movie genre
type Genre struct {
	Name string `json:"name"`
}

// Credits wraps the cast list of a movie
type Credits struct {
	Cast []CastMember `json:"cast"`
}

// CastMember is a single cast entry
type CastMember struct {
	Name string `json:"name"`
}

// GenreNames joins all genre names with ", "
func (d *MovieDetails) GenreNames() string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// MainCast joins the first n cast names with ", "
func (d *MovieDetails) MainCast(n int) string {
	names := make([]string, 0, n)
	for _, c := range d.Credits.Cast {
		if len(names) == n {
			break
		}
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// Images is the response from GET /movie/{id}/images
type Images struct {
	ID        int64   `json:"id"`
	Backdrops []Image `json:"backdrops"`
	Posters   []Image `json:"posters"`
}

// Image is a single image descriptor
type Image struct {
	FilePath    string   `json:"file_path"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	AspectRatio *float64 `json:"aspect_ratio"`
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   int      `json:"vote_count"`
}

// Configuration is the image-serving configuration from GET /configuration
type Configuration struct {
	Images ImageConfig `json:"images"`
}

// ImageConfig carries the base URLs and supported poster sizes used to
// build absolute image links
type ImageConfig struct {
	BaseURL       string   `json:"base_url"`
	SecureBaseURL string   `json:"secure_base_url"`
	PosterSizes   []string `json:"poster_sizes"`
}
