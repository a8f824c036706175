package tmdb

import "slices"

// Fallback host when the configuration endpoint is unavailable
const defaultImageBaseURL = "https://image.tmdb.org/t/p/"

const preferredPosterSize = "w500"

// PosterURL builds an absolute poster link from the image-serving
// configuration and a poster path. It prefers the secure base URL, then
// the plain one, then the hard-coded default host; the size is w500 when
// supported, otherwise the last (largest) supported size, otherwise
// "original". An empty path yields an empty string.
func PosterURL(cfg *Configuration, posterPath string) string {
	if posterPath == "" {
		return ""
	}

	base := defaultImageBaseURL
	size := "original"
	if cfg != nil {
		switch {
		case cfg.Images.SecureBaseURL != "":
			base = cfg.Images.SecureBaseURL
		case cfg.Images.BaseURL != "":
			base = cfg.Images.BaseURL
		}
		switch {
		case slices.Contains(cfg.Images.PosterSizes, preferredPosterSize):
			size = preferredPosterSize
		case len(cfg.Images.PosterSizes) > 0:
			size = cfg.Images.PosterSizes[len(cfg.Images.PosterSizes)-1]
		}
	}

	return base + size + posterPath
}
