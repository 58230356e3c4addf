package model

import "strings"

// MediaKind identifies the kind of title a media item refers to.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindTV    MediaKind = "tv"
)

// MediaStatus is the availability state of a title on the media server.
// The numeric values are the server's own wire values.
type MediaStatus int

const (
	StatusUnknown            MediaStatus = 1
	StatusPending            MediaStatus = 2
	StatusProcessing         MediaStatus = 3
	StatusPartiallyAvailable MediaStatus = 4
	StatusAvailable          MediaStatus = 5
)

// StatusFromInt converts a raw wire value to a MediaStatus. Values
// outside the known range normalize to StatusUnknown.
func StatusFromInt(v int) MediaStatus {
	if v < int(StatusUnknown) || v > int(StatusAvailable) {
		return StatusUnknown
	}
	return MediaStatus(v)
}

// IsAvailable reports whether the status means the title can be watched
// now, fully or in part.
func (s MediaStatus) IsAvailable() bool {
	return s == StatusAvailable || s == StatusPartiallyAvailable
}

// IsRequested reports whether the status means a request for the title
// is already in flight.
func (s MediaStatus) IsRequested() bool {
	return s == StatusPending || s == StatusProcessing
}

func (s MediaStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusPartiallyAvailable:
		return "partially available"
	case StatusAvailable:
		return "available"
	default:
		return "unknown"
	}
}

// posterBaseURL is the image CDN prefix for poster paths returned by
// the media server.
const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// SeasonStatus is the availability of a single season of a series.
// It is carried through as reported and never interpreted.
type SeasonStatus struct {
	// SeasonNumber is the season's ordinal as reported by the server.
	SeasonNumber int `json:"season_number"`

	// Status is the season's availability state.
	Status MediaStatus `json:"status"`
}

// MediaItem is a point-in-time snapshot of a title as reported by the
// media server. Snapshots are built fresh from each server response and
// never mutated afterwards.
type MediaItem struct {
	// Kind distinguishes movies from series.
	Kind MediaKind `json:"kind"`

	// TmdbID is the title's identifier in the external metadata
	// source. It is the key used for detail lookups and requests.
	TmdbID int `json:"tmdb_id"`

	// Title is the display name ("name" for series).
	Title string `json:"title"`

	// Overview is the synopsis text.
	Overview string `json:"overview"`

	// ReleaseDate is the release (or first air) date exactly as
	// reported, normally YYYY-MM-DD.
	ReleaseDate string `json:"release_date"`

	// PosterPath is the poster image path, empty when the title has
	// no artwork.
	PosterPath string `json:"poster_path"`

	// Popularity is the metadata source's popularity score, used to
	// order mixed search results.
	Popularity float64 `json:"popularity"`

	// Cast holds the top-billed cast names in billing order.
	Cast []string `json:"cast,omitempty"`

	// Status is the availability state the snapshot was taken in.
	Status MediaStatus `json:"status"`

	// Available means the title can be watched now.
	Available bool `json:"available"`

	// Requested means a request for the title is already in flight.
	Requested bool `json:"requested"`

	// Is4K records which edition the snapshot describes; the server
	// tracks standard and 4K availability separately.
	Is4K bool `json:"is_4k"`

	// Seasons holds per-season availability for series.
	Seasons []SeasonStatus `json:"seasons,omitempty"`
}

// PosterURL returns the full poster image URL, or empty when the title
// has no artwork.
func (m MediaItem) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return posterBaseURL + m.PosterPath
}

// ReleaseYear returns the four-digit release year, or empty when the
// release date is missing or malformed.
func (m MediaItem) ReleaseYear() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	year := m.ReleaseDate[:4]
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}

// FormatTitle returns "Title (Year)", or just the title when the year
// is unknown.
func (m MediaItem) FormatTitle() string {
	year := m.ReleaseYear()
	if year == "" {
		return m.Title
	}
	return m.Title + " (" + year + ")"
}

// CastLine returns up to the first three cast names, comma separated.
func (m MediaItem) CastLine() string {
	names := m.Cast
	if len(names) > 3 {
		names = names[:3]
	}
	return strings.Join(names, ", ")
}
