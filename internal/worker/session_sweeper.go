package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SessionStore is the part of the quiz service the sweeper needs.
type SessionStore interface {
	Sweep(idle time.Duration) int
	Count() int
}

// SessionSweeper periodically closes quiz sessions nobody has touched for
// longer than the idle window.
type SessionSweeper struct {
	store    SessionStore
	idle     time.Duration
	interval time.Duration
	log      zerolog.Logger
}

// NewSessionSweeper creates a new SessionSweeper. The sweep runs every
// idle/4, but never more often than once a second.
func NewSessionSweeper(store SessionStore, idle time.Duration, log zerolog.Logger) *SessionSweeper {
	interval := idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &SessionSweeper{
		store:    store,
		idle:     idle,
		interval: interval,
		log:      log.With().Str("component", "session_sweeper").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (w *SessionSweeper) Start(ctx context.Context) {
	w.log.Info().Dur("idle", w.idle).Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single sweep and returns how many sessions it closed.
func (w *SessionSweeper) RunOnce() int {
	n := w.store.Sweep(w.idle)
	if n > 0 {
		w.log.Info().Int("swept", n).Int("live", w.store.Count()).Msg("Idle quiz sessions closed")
	}
	return n
}
