package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"seerrbot/internal/model"
	"seerrbot/internal/overseerr"
	"seerrbot/internal/store"
)

// DefaultInterval is how often pending requests are checked when the
// configuration does not say otherwise.
const DefaultInterval = 10 * time.Minute

// checkTimeout bounds one full availability pass.
const checkTimeout = 5 * time.Minute

// NotifyFunc delivers an availability notice for one pending entry.
// elapsed is the humanized wait since the request was made.
type NotifyFunc func(ctx context.Context, n model.PendingNotification, elapsed string) error

// Tracker periodically checks every pending notification against the
// media server and delivers a notice the first time a title is seen
// available. Delivery is best effort: an entry is removed once its
// notification has been attempted, whether or not delivery succeeded.
type Tracker struct {
	store    store.Store
	api      overseerr.API
	notify   NotifyFunc
	interval time.Duration
	log      zerolog.Logger

	triggerCh chan struct{}
	stopCh    chan struct{}
	inFlight  atomic.Bool
	mu        sync.Mutex
	running   bool
}

// New creates a tracker over the given store and client. An interval
// of zero or below applies DefaultInterval.
func New(s store.Store, api overseerr.API, notify NotifyFunc, interval time.Duration, log zerolog.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Tracker{
		store:     s,
		api:       api,
		notify:    notify,
		interval:  interval,
		log:       log.With().Str("component", "tracker").Logger(),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling goroutine. The first pass runs right
// away, so a restart catches up on anything that became available
// while the process was down.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.mu.Unlock()

	go t.run()
}

// Stop halts the polling goroutine. A pass already in flight finishes
// on its own.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}

	close(t.stopCh)
	t.running = false
}

// Trigger requests an immediate pass without waiting for the ticker.
// It never blocks; a pass already queued absorbs the trigger.
func (t *Tracker) Trigger() {
	select {
	case t.triggerCh <- struct{}{}:
	default:
	}
}

// run is the polling loop.
func (t *Tracker) run() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.Check()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.Check()
		case <-t.triggerCh:
			t.Check()
		}
	}
}

// Check runs one availability pass over every pending entry. Passes
// never overlap: a call while one is still running returns
// immediately.
func (t *Tracker) Check() {
	if !t.inFlight.CompareAndSwap(false, true) {
		t.log.Debug().Msg("availability pass already running, skipping")
		return
	}
	defer t.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	pending, err := t.store.All(ctx)
	if err != nil {
		t.log.Error().Err(err).Msg("reading pending notifications failed")
		return
	}
	if len(pending) == 0 {
		return
	}

	// One lookup per distinct edition, even when several users are
	// waiting on the same title.
	type lookup struct {
		kind   model.MediaKind
		tmdbID int
		is4K   bool
	}
	groups := make(map[lookup][]model.PendingNotification)
	var order []lookup
	for _, n := range pending {
		k := lookup{kind: n.Kind, tmdbID: n.TmdbID, is4K: n.Is4K}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], n)
	}

	delivered := 0
	for _, k := range order {
		item, err := t.api.GetMediaByID(ctx, k.kind, k.tmdbID, k.is4K)
		if err != nil {
			if overseerr.IsConnectionError(err) {
				t.log.Warn().Err(err).Msg("media server unreachable, abandoning this pass")
				return
			}
			t.log.Warn().
				Str("kind", string(k.kind)).
				Int("tmdb_id", k.tmdbID).
				Err(err).
				Msg("availability lookup failed")
			continue
		}

		for _, n := range groups[k] {
			if item.Available {
				t.deliver(ctx, n)
				delivered++
				continue
			}
			if item.Status != n.LastStatus {
				if err := t.store.SetLastStatus(ctx, n.Key(), item.Status); err != nil {
					t.log.Debug().Err(err).Msg("recording status change failed")
				}
			}
		}
	}

	t.log.Debug().
		Int("pending", len(pending)).
		Int("lookups", len(order)).
		Int("delivered", delivered).
		Msg("availability pass finished")
}

// deliver sends the notification and removes the entry. The entry is
// removed even when delivery fails, so one broken recipient is not
// retried forever.
func (t *Tracker) deliver(ctx context.Context, n model.PendingNotification) {
	elapsed := FormatElapsed(time.Since(n.RequestedAt))

	if err := t.notify(ctx, n, elapsed); err != nil {
		t.log.Error().
			Str("user_id", n.UserID).
			Str("title", n.Title).
			Err(err).
			Msg("delivering availability notice failed")
	} else {
		t.log.Info().
			Str("user_id", n.UserID).
			Str("title", n.Title).
			Str("waited", elapsed).
			Msg("availability notice delivered")
	}

	if err := t.store.Remove(ctx, n.Key()); err != nil {
		t.log.Error().
			Str("user_id", n.UserID).
			Str("title", n.Title).
			Err(err).
			Msg("removing delivered entry failed")
	}
}
