package overseerr

import "encoding/json"

// SearchResponse is one page of search results.
type SearchResponse struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"totalPages"`
	TotalResults int            `json:"totalResults"`
	Results      []SearchResult `json:"results"`
}

// SearchResult is a single search hit. Movies carry title/releaseDate,
// series carry name/firstAirDate; MediaType tells them apart.
type SearchResult struct {
	ID           int        `json:"id"`
	MediaType    string     `json:"mediaType"` // movie, tv, person
	Title        string     `json:"title,omitempty"`
	Name         string     `json:"name,omitempty"`
	Overview     string     `json:"overview"`
	ReleaseDate  string     `json:"releaseDate,omitempty"`
	FirstAirDate string     `json:"firstAirDate,omitempty"`
	PosterPath   string     `json:"posterPath,omitempty"`
	Popularity   float64    `json:"popularity"`
	MediaInfo    *MediaInfo `json:"mediaInfo,omitempty"`
}

// MediaInfo is the server's availability block for a title. It is
// absent when the title is unknown to the server's library.
type MediaInfo struct {
	Status   int               `json:"status"`
	Status4K int               `json:"status4k"`
	Seasons  []SeasonMediaInfo `json:"seasons,omitempty"`
}

// SeasonMediaInfo is the availability of one season of a series.
type SeasonMediaInfo struct {
	SeasonNumber int `json:"seasonNumber"`
	Status       int `json:"status"`
	Status4K     int `json:"status4k"`
}

// MovieDetails is the detail endpoint response for a movie.
type MovieDetails struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Overview    string     `json:"overview"`
	ReleaseDate string     `json:"releaseDate"`
	PosterPath  string     `json:"posterPath"`
	Popularity  float64    `json:"popularity"`
	MediaInfo   *MediaInfo `json:"mediaInfo,omitempty"`
	Credits     *Credits   `json:"credits,omitempty"`
}

// TvDetails is the detail endpoint response for a series.
type TvDetails struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Overview     string     `json:"overview"`
	FirstAirDate string     `json:"firstAirDate"`
	PosterPath   string     `json:"posterPath"`
	Popularity   float64    `json:"popularity"`
	MediaInfo    *MediaInfo `json:"mediaInfo,omitempty"`
	Credits      *Credits   `json:"credits,omitempty"`
}

// Credits holds the cast list of a title.
type Credits struct {
	Cast []CastMember `json:"cast"`
}

// CastMember is a single cast credit.
type CastMember struct {
	Name string `json:"name"`
}

// Seasons selects which seasons a series request covers: every season,
// or an explicit list of season numbers. The zero value means every
// season.
type Seasons struct {
	Numbers []int
}

// AllSeasons requests every season of a series.
func AllSeasons() Seasons { return Seasons{} }

// SeasonList requests only the given season numbers.
func SeasonList(numbers ...int) Seasons { return Seasons{Numbers: numbers} }

// MarshalJSON encodes the selection in the server's wire format: the
// string "all", or a JSON array of season numbers.
func (s Seasons) MarshalJSON() ([]byte, error) {
	if len(s.Numbers) == 0 {
		return json.Marshal("all")
	}
	return json.Marshal(s.Numbers)
}

// MediaRequestBody is the request submission payload.
type MediaRequestBody struct {
	MediaID   int      `json:"mediaId"`
	MediaType string   `json:"mediaType"` // movie, tv
	Is4K      bool     `json:"is4k"`
	UserID    int      `json:"userId,omitempty"`
	Seasons   *Seasons `json:"seasons,omitempty"`
}

// MainSettings is the subset of the server settings used to verify the
// connection.
type MainSettings struct {
	APIKey string `json:"apiKey"`
}

// ErrorResponse is the server's error body shape.
type ErrorResponse struct {
	Message string `json:"message"`
}
