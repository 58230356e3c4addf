package request

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"seerrbot/internal/model"
	"seerrbot/internal/overseerr"
	"seerrbot/internal/store"
)

// Requester identifies the chat user submitting a request.
type Requester struct {
	ID       string
	Username string
}

// DetailState classifies what can be done with a title once its
// current snapshot is known.
type DetailState string

const (
	// AlreadyAvailable means the title can be watched now; there is
	// nothing to request.
	AlreadyAvailable DetailState = "already_available"

	// AlreadyRequested means a request for the title is in flight; a
	// second one would be redundant.
	AlreadyRequested DetailState = "already_requested"

	// Requestable means the title can be requested.
	Requestable DetailState = "requestable"
)

// Detail is the confirmed view of one title the user is looking at.
type Detail struct {
	Item  model.MediaItem
	State DetailState
}

// SearchOutcome is the result of starting a request: nothing matched,
// exactly one title matched, or several did and the user must choose.
type SearchOutcome struct {
	// Query is the normalized query that was actually searched.
	Query string

	// Matches holds the candidate titles, most popular first. Empty
	// means nothing matched.
	Matches []model.MediaItem

	// Detail is set when exactly one title matched, letting the
	// caller skip the selection step entirely.
	Detail *Detail
}

// Workflow drives a media request from search through submission. It
// holds no per-user state; the chat layer carries the user's place in
// the flow between interactions and re-enters through Describe.
type Workflow struct {
	api   overseerr.API
	store store.Store
	log   zerolog.Logger
}

// New creates a workflow over the given client and store.
func New(api overseerr.API, s store.Store, log zerolog.Logger) *Workflow {
	return &Workflow{
		api:   api,
		store: s,
		log:   log.With().Str("component", "workflow").Logger(),
	}
}

// Begin searches for titles matching query. kind narrows the search to
// movies or series; empty searches both. A single match comes back as
// a ready Detail so the caller can skip selection.
func (w *Workflow) Begin(ctx context.Context, query string, want4k bool, kind model.MediaKind) (SearchOutcome, error) {
	normalized := NormalizeQuery(query)

	var (
		matches []model.MediaItem
		err     error
	)
	switch kind {
	case model.KindMovie:
		matches, err = w.api.SearchMovies(ctx, normalized, want4k)
	case model.KindTV:
		matches, err = w.api.Search(ctx, normalized, want4k)
		matches = filterKind(matches, model.KindTV)
	default:
		matches, err = w.api.Search(ctx, normalized, want4k)
	}
	if err != nil {
		w.log.Error().Str("query", normalized).Err(err).Msg("search failed")
		return SearchOutcome{}, err
	}

	w.log.Debug().
		Str("query", normalized).
		Int("matches", len(matches)).
		Msg("search finished")

	outcome := SearchOutcome{Query: normalized, Matches: matches}
	if len(matches) == 1 {
		d := classify(matches[0])
		outcome.Detail = &d
	}

	return outcome, nil
}

// Describe fetches the current snapshot of one title and classifies
// it. It is the re-entry point after the user picks from a selection
// list, and works just as well without a preceding search.
func (w *Workflow) Describe(ctx context.Context, kind model.MediaKind, tmdbID int, want4k bool) (Detail, error) {
	item, err := w.api.GetMediaByID(ctx, kind, tmdbID, want4k)
	if err != nil {
		return Detail{}, err
	}
	return classify(item), nil
}

// Submit sends the request upstream and, when it is accepted, records
// a pending notification so the requester hears back once the title is
// available. A failure to record never turns an accepted request into
// a failed one; it is reported as an accepted outcome that is not
// tracked.
func (w *Workflow) Submit(ctx context.Context, who Requester, item model.MediaItem, seasons overseerr.Seasons) model.RequestOutcome {
	var outcome model.RequestOutcome
	switch item.Kind {
	case model.KindTV:
		outcome = w.api.RequestTv(ctx, item.TmdbID, item.Is4K, seasons)
	default:
		outcome = w.api.RequestMovie(ctx, item.TmdbID, item.Is4K)
	}

	switch outcome.Status {
	case model.RequestAccepted:
		n := model.PendingNotification{
			UserID:      who.ID,
			Username:    who.Username,
			TmdbID:      item.TmdbID,
			Kind:        item.Kind,
			Title:       item.FormatTitle(),
			Is4K:        item.Is4K,
			RequestedAt: time.Now().UTC(),
			LastStatus:  item.Status,
		}
		if err := w.store.Upsert(ctx, n); err != nil {
			w.log.Error().
				Str("user_id", who.ID).
				Str("title", n.Title).
				Err(err).
				Msg("request accepted but recording the pending notification failed")
		} else {
			outcome.Tracked = true
		}

		w.log.Info().
			Str("user_id", who.ID).
			Str("title", n.Title).
			Bool("is_4k", item.Is4K).
			Bool("tracked", outcome.Tracked).
			Msg("request accepted")

	case model.RequestDenied:
		w.log.Info().
			Str("user_id", who.ID).
			Int("tmdb_id", item.TmdbID).
			Str("reason", outcome.Reason).
			Msg("request denied")

	case model.RequestFailed:
		w.log.Error().
			Str("user_id", who.ID).
			Int("tmdb_id", item.TmdbID).
			Err(outcome.Err).
			Msg("request submission failed")
	}

	return outcome
}

// NormalizeQuery collapses filename-style separators (dots and
// underscores) and runs of whitespace into single spaces.
func NormalizeQuery(q string) string {
	q = strings.NewReplacer(".", " ", "_", " ").Replace(q)
	return strings.Join(strings.Fields(q), " ")
}

// classify maps a snapshot onto the action the user can take next.
// Availability wins over an in-flight request; the two cannot both be
// true for one snapshot.
func classify(item model.MediaItem) Detail {
	switch {
	case item.Available:
		return Detail{Item: item, State: AlreadyAvailable}
	case item.Requested:
		return Detail{Item: item, State: AlreadyRequested}
	default:
		return Detail{Item: item, State: Requestable}
	}
}

// filterKind narrows a result list to one media kind in place.
func filterKind(items []model.MediaItem, kind model.MediaKind) []model.MediaItem {
	filtered := items[:0]
	for _, item := range items {
		if item.Kind == kind {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
