package overseerr

import (
	"context"

	"seerrbot/internal/model"
)

// API is the client surface consumed by the request workflow and the
// availability tracker. *Client implements it; tests substitute fakes.
type API interface {
	// TestConnection verifies reachability, the API key, and that the
	// endpoint really is the configured Overseerr instance.
	TestConnection(ctx context.Context) error

	// Search finds movies and series matching query, most popular
	// first.
	Search(ctx context.Context, query string, want4k bool) ([]model.MediaItem, error)

	// SearchMovies finds only movies matching query.
	SearchMovies(ctx context.Context, query string, want4k bool) ([]model.MediaItem, error)

	// GetMovieByID fetches the current snapshot of a movie.
	GetMovieByID(ctx context.Context, tmdbID int, want4k bool) (model.MediaItem, error)

	// GetTvByID fetches the current snapshot of a series.
	GetTvByID(ctx context.Context, tmdbID int, want4k bool) (model.MediaItem, error)

	// GetMediaByID dispatches a detail lookup by media kind.
	GetMediaByID(ctx context.Context, kind model.MediaKind, tmdbID int, want4k bool) (model.MediaItem, error)

	// RequestMovie submits a movie request.
	RequestMovie(ctx context.Context, tmdbID int, want4k bool) model.RequestOutcome

	// RequestTv submits a series request covering the given seasons.
	RequestTv(ctx context.Context, tmdbID int, want4k bool, seasons Seasons) model.RequestOutcome

	// Close releases the client's connections.
	Close()
}

var _ API = (*Client)(nil)
