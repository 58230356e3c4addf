package overseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"seerrbot/internal/model"
)

// defaultTimeout bounds a single request when the configuration does
// not set one.
const defaultTimeout = 30 * time.Second

// Config holds the connection settings for an Overseerr server.
type Config struct {
	// BaseURL is the API root, e.g. http://overseerr.local:5055/api/v1.
	BaseURL string

	// APIKey authenticates every call via the X-Api-Key header.
	APIKey string

	// Timeout bounds a single HTTP request. Zero applies the default.
	Timeout time.Duration

	// RequestAsUser optionally attributes submitted requests to this
	// Overseerr user ID. Zero submits as the API key's own user.
	RequestAsUser int
}

// Client is a thin HTTP client for the Overseerr REST API. It handles
// API key authentication, JSON (de)serialization, and maps transport
// and status failures onto the package's error types.
type Client struct {
	baseURL    string
	apiKey     string
	requestAs  int
	httpClient *http.Client
}

// NewClient creates a new Overseerr client from cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		requestAs: cfg.RequestAsUser,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Close releases idle connections held by the client. It is safe to
// call more than once.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// TestConnection verifies that the configured endpoint is a reachable
// Overseerr instance and that the API key is accepted. The key the
// server reports for itself must match the configured one, so a wrong
// service answering 200 still fails verification.
func (c *Client) TestConnection(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, "/settings/main", nil)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusNotFound:
		return &ConfigError{Message: fmt.Sprintf(
			"no settings endpoint at %s; the base URL does not point at an Overseerr API",
			c.baseURL,
		)}
	case status != http.StatusOK:
		return &UpstreamError{Message: fmt.Sprintf(
			"settings endpoint returned status %d", status,
		)}
	}

	var settings MainSettings
	if err := json.Unmarshal(body, &settings); err != nil {
		return &UpstreamError{Message: fmt.Sprintf(
			"decoding settings response: %v", err,
		)}
	}

	if settings.APIKey != c.apiKey {
		return &ConfigError{
			Message: "server reports a different API key than the configured one",
		}
	}

	return nil
}

// Search finds movies and series matching query, most popular first.
// Person hits are dropped. An empty result set is not an error.
func (c *Client) Search(ctx context.Context, query string, want4k bool) ([]model.MediaItem, error) {
	results, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	var items []model.MediaItem
	for _, r := range results {
		if r.MediaType != string(model.KindMovie) && r.MediaType != string(model.KindTV) {
			continue
		}
		items = append(items, itemFromSearchResult(r, want4k))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Popularity > items[j].Popularity
	})

	return items, nil
}

// SearchMovies finds only movies matching query, most popular first.
func (c *Client) SearchMovies(ctx context.Context, query string, want4k bool) ([]model.MediaItem, error) {
	results, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	var items []model.MediaItem
	for _, r := range results {
		if r.MediaType != string(model.KindMovie) {
			continue
		}
		items = append(items, itemFromSearchResult(r, want4k))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Popularity > items[j].Popularity
	})

	return items, nil
}

// search runs one search page and returns the raw results.
func (c *Client) search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("language", "en")

	status, body, err := c.do(ctx, http.MethodGet, "/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &UpstreamError{Message: fmt.Sprintf(
			"search returned status %d", status,
		)}
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf(
			"decoding search response: %v", err,
		)}
	}

	return resp.Results, nil
}

// GetMovieByID fetches the current snapshot of a movie.
func (c *Client) GetMovieByID(ctx context.Context, tmdbID int, want4k bool) (model.MediaItem, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/movie/"+strconv.Itoa(tmdbID), nil)
	if err != nil {
		return model.MediaItem{}, err
	}

	switch {
	case status == http.StatusNotFound:
		return model.MediaItem{}, &NotFoundError{Kind: string(model.KindMovie), ID: tmdbID}
	case status != http.StatusOK:
		return model.MediaItem{}, &UpstreamError{Message: fmt.Sprintf(
			"movie lookup returned status %d", status,
		)}
	}

	var details MovieDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return model.MediaItem{}, &UpstreamError{Message: fmt.Sprintf(
			"decoding movie response: %v", err,
		)}
	}

	return itemFromMovie(details, want4k), nil
}

// GetTvByID fetches the current snapshot of a series, including the
// per-season availability the server reports.
func (c *Client) GetTvByID(ctx context.Context, tmdbID int, want4k bool) (model.MediaItem, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/tv/"+strconv.Itoa(tmdbID), nil)
	if err != nil {
		return model.MediaItem{}, err
	}

	switch {
	case status == http.StatusNotFound:
		return model.MediaItem{}, &NotFoundError{Kind: string(model.KindTV), ID: tmdbID}
	case status != http.StatusOK:
		return model.MediaItem{}, &UpstreamError{Message: fmt.Sprintf(
			"series lookup returned status %d", status,
		)}
	}

	var details TvDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return model.MediaItem{}, &UpstreamError{Message: fmt.Sprintf(
			"decoding series response: %v", err,
		)}
	}

	return itemFromTv(details, want4k), nil
}

// GetMediaByID dispatches a detail lookup by media kind.
func (c *Client) GetMediaByID(ctx context.Context, kind model.MediaKind, tmdbID int, want4k bool) (model.MediaItem, error) {
	switch kind {
	case model.KindMovie:
		return c.GetMovieByID(ctx, tmdbID, want4k)
	case model.KindTV:
		return c.GetTvByID(ctx, tmdbID, want4k)
	default:
		return model.MediaItem{}, fmt.Errorf("unknown media kind %q", kind)
	}
}

// RequestMovie submits a request for a movie. A 403 response is the
// denied outcome, not an error.
func (c *Client) RequestMovie(ctx context.Context, tmdbID int, want4k bool) model.RequestOutcome {
	return c.submit(ctx, MediaRequestBody{
		MediaID:   tmdbID,
		MediaType: string(model.KindMovie),
		Is4K:      want4k,
		UserID:    c.requestAs,
	})
}

// RequestTv submits a request for a series covering the given seasons.
func (c *Client) RequestTv(ctx context.Context, tmdbID int, want4k bool, seasons Seasons) model.RequestOutcome {
	return c.submit(ctx, MediaRequestBody{
		MediaID:   tmdbID,
		MediaType: string(model.KindTV),
		Is4K:      want4k,
		UserID:    c.requestAs,
		Seasons:   &seasons,
	})
}

// submit posts a request body and maps the response status onto a
// request outcome.
func (c *Client) submit(ctx context.Context, body MediaRequestBody) model.RequestOutcome {
	status, respBody, err := c.do(ctx, http.MethodPost, "/request", body)
	if err != nil {
		return model.RequestOutcome{Status: model.RequestFailed, Err: err}
	}

	switch {
	case status == http.StatusCreated:
		return model.RequestOutcome{Status: model.RequestAccepted}
	case status == http.StatusForbidden:
		return model.RequestOutcome{Status: model.RequestDenied, Reason: denialReason(respBody)}
	default:
		return model.RequestOutcome{
			Status: model.RequestFailed,
			Err: &UpstreamError{Message: fmt.Sprintf(
				"request submission returned status %d", status,
			)},
		}
	}
}

// do executes one request and returns the status code and body.
// Transport failures and 401 responses are mapped to the package's
// error types here; other status codes are interpreted per operation.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	requestURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, nil, err
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return 0, nil, &UpstreamError{Message: fmt.Sprintf(
				"%s %s timed out", method, path,
			)}
		}
		return 0, nil, &ConnectionError{Host: c.baseURL, Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, respBody, &AuthError{
			Message: fmt.Sprintf("server at %s rejected the API key", c.baseURL),
		}
	}

	return resp.StatusCode, respBody, nil
}

// denialReason extracts the server's message from a denial body.
func denialReason(body []byte) string {
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		return errResp.Message
	}
	return "the server declined the request"
}

// statusFrom reads the edition-appropriate status column out of a
// media info block. A missing block means the title is unknown to the
// server's library.
func statusFrom(mi *MediaInfo, want4k bool) model.MediaStatus {
	if mi == nil {
		return model.StatusUnknown
	}

	raw := mi.Status
	if want4k {
		raw = mi.Status4K
	}
	return model.StatusFromInt(raw)
}

// itemFromSearchResult converts a search hit to a media snapshot.
func itemFromSearchResult(r SearchResult, want4k bool) model.MediaItem {
	kind := model.MediaKind(r.MediaType)

	title := r.Title
	release := r.ReleaseDate
	if kind == model.KindTV {
		title = r.Name
		release = r.FirstAirDate
	}

	st := statusFrom(r.MediaInfo, want4k)

	return model.MediaItem{
		Kind:        kind,
		TmdbID:      r.ID,
		Title:       title,
		Overview:    r.Overview,
		ReleaseDate: release,
		PosterPath:  r.PosterPath,
		Popularity:  r.Popularity,
		Status:      st,
		Available:   st.IsAvailable(),
		Requested:   st.IsRequested(),
		Is4K:        want4k,
	}
}

// itemFromMovie converts a movie detail response to a media snapshot.
func itemFromMovie(d MovieDetails, want4k bool) model.MediaItem {
	st := statusFrom(d.MediaInfo, want4k)

	return model.MediaItem{
		Kind:        model.KindMovie,
		TmdbID:      d.ID,
		Title:       d.Title,
		Overview:    d.Overview,
		ReleaseDate: d.ReleaseDate,
		PosterPath:  d.PosterPath,
		Popularity:  d.Popularity,
		Cast:        castNames(d.Credits),
		Status:      st,
		Available:   st.IsAvailable(),
		Requested:   st.IsRequested(),
		Is4K:        want4k,
	}
}

// itemFromTv converts a series detail response to a media snapshot.
func itemFromTv(d TvDetails, want4k bool) model.MediaItem {
	st := statusFrom(d.MediaInfo, want4k)

	item := model.MediaItem{
		Kind:        model.KindTV,
		TmdbID:      d.ID,
		Title:       d.Name,
		Overview:    d.Overview,
		ReleaseDate: d.FirstAirDate,
		PosterPath:  d.PosterPath,
		Popularity:  d.Popularity,
		Cast:        castNames(d.Credits),
		Status:      st,
		Available:   st.IsAvailable(),
		Requested:   st.IsRequested(),
		Is4K:        want4k,
	}

	if d.MediaInfo != nil {
		for _, s := range d.MediaInfo.Seasons {
			raw := s.Status
			if want4k {
				raw = s.Status4K
			}
			item.Seasons = append(item.Seasons, model.SeasonStatus{
				SeasonNumber: s.SeasonNumber,
				Status:       model.StatusFromInt(raw),
			})
		}
	}

	return item
}

// castNames flattens a credits block to its billing-ordered names.
func castNames(credits *Credits) []string {
	if credits == nil || len(credits.Cast) == 0 {
		return nil
	}

	names := make([]string, 0, len(credits.Cast))
	for _, member := range credits.Cast {
		names = append(names, member.Name)
	}
	return names
}
