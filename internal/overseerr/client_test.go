package overseerr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seerrbot/internal/model"
)

const testKey = "test-api-key"

// newTestClient points a client with the test API key at srv.
func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{BaseURL: srv.URL, APIKey: testKey})
}

func TestSearchFiltersAndOrders(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, testKey, r.Header.Get("X-Api-Key"))
		gotQuery = r.URL.Query().Get("query")
		require.Equal(t, "1", r.URL.Query().Get("page"))
		require.Equal(t, "en", r.URL.Query().Get("language"))

		io.WriteString(w, `{
			"page": 1, "totalPages": 1, "totalResults": 3,
			"results": [
				{"id": 603, "mediaType": "movie", "title": "The Matrix",
				 "releaseDate": "1999-03-30", "popularity": 50.5,
				 "mediaInfo": {"status": 5, "status4k": 1}},
				{"id": 6384, "mediaType": "person", "name": "Keanu Reeves", "popularity": 90.0},
				{"id": 1399, "mediaType": "tv", "name": "Game of Thrones",
				 "firstAirDate": "2011-04-17", "popularity": 88.9}
			]
		}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	items, err := c.Search(context.Background(), "the matrix", false)
	require.NoError(t, err)
	assert.Equal(t, "the matrix", gotQuery)

	// The person hit is dropped and the rest come back most popular first.
	require.Len(t, items, 2)
	assert.Equal(t, model.KindTV, items[0].Kind)
	assert.Equal(t, "Game of Thrones", items[0].Title)
	assert.Equal(t, "2011-04-17", items[0].ReleaseDate)
	assert.Equal(t, model.KindMovie, items[1].Kind)
	assert.Equal(t, 603, items[1].TmdbID)
}

func TestSearchMoviesFiltersKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"page": 1, "totalPages": 1, "totalResults": 2,
			"results": [
				{"id": 1399, "mediaType": "tv", "name": "Game of Thrones", "popularity": 88.9},
				{"id": 603, "mediaType": "movie", "title": "The Matrix", "popularity": 50.5}
			]
		}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	items, err := c.SearchMovies(context.Background(), "anything", false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.KindMovie, items[0].Kind)
	assert.Equal(t, "The Matrix", items[0].Title)
}

func TestSearchEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"page": 1, "totalPages": 1, "totalResults": 0, "results": []}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	items, err := c.Search(context.Background(), "zzzzzz", false)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	_, err := c.Search(context.Background(), "the matrix", false)
	assert.True(t, IsUpstreamError(err))
}

func TestSearchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json at all`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	_, err := c.Search(context.Background(), "the matrix", false)
	assert.True(t, IsUpstreamError(err))
}

func TestStatusInterpretation(t *testing.T) {
	cases := []struct {
		name      string
		mediaInfo string
		want4k    bool
		status    model.MediaStatus
		available bool
		requested bool
	}{
		{"absent media info", ``, false, model.StatusUnknown, false, false},
		{"pending", `"mediaInfo": {"status": 2, "status4k": 1},`, false, model.StatusPending, false, true},
		{"processing", `"mediaInfo": {"status": 3, "status4k": 1},`, false, model.StatusProcessing, false, true},
		{"partially available", `"mediaInfo": {"status": 4, "status4k": 1},`, false, model.StatusPartiallyAvailable, true, false},
		{"available", `"mediaInfo": {"status": 5, "status4k": 1},`, false, model.StatusAvailable, true, false},
		{"4k reads the 4k column", `"mediaInfo": {"status": 2, "status4k": 5},`, true, model.StatusAvailable, true, false},
		{"sd ignores the 4k column", `"mediaInfo": {"status": 2, "status4k": 5},`, false, model.StatusPending, false, true},
		{"out of range normalizes", `"mediaInfo": {"status": 42, "status4k": 1},`, false, model.StatusUnknown, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"page": 1, "totalPages": 1, "totalResults": 1, "results": [
					{"id": 603, "mediaType": "movie", "title": "The Matrix", `+tc.mediaInfo+` "popularity": 50.5}
				]}`)
			}))
			defer srv.Close()

			c := newTestClient(srv)
			defer c.Close()

			items, err := c.Search(context.Background(), "the matrix", tc.want4k)
			require.NoError(t, err)
			require.Len(t, items, 1)

			assert.Equal(t, tc.status, items[0].Status)
			assert.Equal(t, tc.available, items[0].Available)
			assert.Equal(t, tc.requested, items[0].Requested)
			assert.Equal(t, tc.want4k, items[0].Is4K)
		})
	}
}

func TestGetMovieByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/movie/603", r.URL.Path)
		io.WriteString(w, `{
			"id": 603, "title": "The Matrix", "overview": "A hacker learns the truth.",
			"releaseDate": "1999-03-30", "posterPath": "/matrix.jpg",
			"mediaInfo": {"status": 3, "status4k": 1},
			"credits": {"cast": [
				{"name": "Keanu Reeves"}, {"name": "Laurence Fishburne"},
				{"name": "Carrie-Anne Moss"}, {"name": "Hugo Weaving"}
			]}
		}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	item, err := c.GetMovieByID(context.Background(), 603, false)
	require.NoError(t, err)

	assert.Equal(t, model.KindMovie, item.Kind)
	assert.Equal(t, 603, item.TmdbID)
	assert.Equal(t, "The Matrix (1999)", item.FormatTitle())
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/matrix.jpg", item.PosterURL())
	assert.Equal(t, model.StatusProcessing, item.Status)
	assert.True(t, item.Requested)
	assert.False(t, item.Available)
	assert.Len(t, item.Cast, 4)
	assert.Equal(t, "Keanu Reeves, Laurence Fishburne, Carrie-Anne Moss", item.CastLine())
}

func TestGetMovieByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	_, err := c.GetMovieByID(context.Background(), 999999, false)
	assert.True(t, IsNotFoundError(err))
	assert.EqualError(t, err, "movie 999999 not found")
}

func TestGetTvByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tv/1399", r.URL.Path)
		io.WriteString(w, `{
			"id": 1399, "name": "Game of Thrones", "firstAirDate": "2011-04-17",
			"mediaInfo": {
				"status": 4, "status4k": 1,
				"seasons": [
					{"seasonNumber": 1, "status": 5, "status4k": 1},
					{"seasonNumber": 2, "status": 2, "status4k": 1}
				]
			}
		}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	item, err := c.GetTvByID(context.Background(), 1399, false)
	require.NoError(t, err)

	assert.Equal(t, model.KindTV, item.Kind)
	assert.Equal(t, "Game of Thrones", item.Title)
	assert.Equal(t, "2011-04-17", item.ReleaseDate)
	assert.Equal(t, model.StatusPartiallyAvailable, item.Status)
	assert.True(t, item.Available)

	require.Len(t, item.Seasons, 2)
	assert.Equal(t, model.StatusAvailable, item.Seasons[0].Status)
	assert.Equal(t, model.StatusPending, item.Seasons[1].Status)
}

func TestRequestMovieOutcomes(t *testing.T) {
	var gotBody map[string]interface{}
	status := http.StatusCreated
	var respBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/request", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotBody = body
		w.WriteHeader(status)
		io.WriteString(w, respBody)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	outcome := c.RequestMovie(context.Background(), 603, true)
	assert.Equal(t, model.RequestAccepted, outcome.Status)
	assert.Equal(t, float64(603), gotBody["mediaId"])
	assert.Equal(t, "movie", gotBody["mediaType"])
	assert.Equal(t, true, gotBody["is4k"])
	assert.NotContains(t, gotBody, "seasons")

	status = http.StatusForbidden
	respBody = `{"message": "Movie request quota exceeded"}`
	outcome = c.RequestMovie(context.Background(), 603, false)
	assert.Equal(t, model.RequestDenied, outcome.Status)
	assert.Equal(t, "Movie request quota exceeded", outcome.Reason)
	assert.NoError(t, outcome.Err)

	status = http.StatusInternalServerError
	respBody = ""
	outcome = c.RequestMovie(context.Background(), 603, false)
	assert.Equal(t, model.RequestFailed, outcome.Status)
	assert.True(t, IsUpstreamError(outcome.Err))
}

func TestRequestTvSeasonEncoding(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		raw, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	defer c.Close()

	outcome := c.RequestTv(context.Background(), 1399, false, AllSeasons())
	require.Equal(t, model.RequestAccepted, outcome.Status)
	assert.Contains(t, string(raw), `"seasons":"all"`)
	assert.Contains(t, string(raw), `"mediaType":"tv"`)

	outcome = c.RequestTv(context.Background(), 1399, false, SeasonList(1, 2))
	require.Equal(t, model.RequestAccepted, outcome.Status)
	assert.Contains(t, string(raw), `"seasons":[1,2]`)
}

func TestRequestAttribution(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotBody = body
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: testKey, RequestAsUser: 7})
	defer c.Close()

	c.RequestMovie(context.Background(), 603, false)
	assert.Equal(t, float64(7), gotBody["userId"])

	// Without a configured user the field stays off the wire.
	plain := newTestClient(srv)
	defer plain.Close()

	plain.RequestMovie(context.Background(), 603, false)
	assert.NotContains(t, gotBody, "userId")
}

func TestConnectionVerification(t *testing.T) {
	t.Run("matching key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/settings/main", r.URL.Path)
			io.WriteString(w, `{"apiKey": "`+testKey+`", "applicationTitle": "Overseerr"}`)
		}))
		defer srv.Close()

		c := newTestClient(srv)
		defer c.Close()

		assert.NoError(t, c.TestConnection(context.Background()))
	})

	t.Run("rejected key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := newTestClient(srv)
		defer c.Close()

		assert.True(t, IsAuthError(c.TestConnection(context.Background())))
	})

	t.Run("missing settings route", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := newTestClient(srv)
		defer c.Close()

		assert.True(t, IsConfigError(c.TestConnection(context.Background())))
	})

	t.Run("different key reported", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"apiKey": "somebody-elses-key"}`)
		}))
		defer srv.Close()

		c := newTestClient(srv)
		defer c.Close()

		assert.True(t, IsConfigError(c.TestConnection(context.Background())))
	})

	t.Run("malformed settings body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `<html>definitely not overseerr</html>`)
		}))
		defer srv.Close()

		c := newTestClient(srv)
		defer c.Close()

		assert.True(t, IsUpstreamError(c.TestConnection(context.Background())))
	})
}

func TestUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := newTestClient(srv)
	defer c.Close()

	err := c.TestConnection(context.Background())
	assert.True(t, IsConnectionError(err))

	_, err = c.GetMovieByID(context.Background(), 603, false)
	assert.True(t, IsConnectionError(err))
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: testKey, Timeout: 20 * time.Millisecond})
	defer c.Close()

	_, err := c.GetMovieByID(context.Background(), 603, false)
	assert.True(t, IsUpstreamError(err))
	assert.False(t, IsConnectionError(err))
}
