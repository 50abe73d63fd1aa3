package quiz

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// QuestionSource supplies the raw question bank for a language key.
// It must return an error when it cannot deliver, never a partial bank.
type QuestionSource interface {
	Fetch(ctx context.Context, language string) ([]RawQuestion, error)
}

const subscriberBuffer = 8

// Engine is the only authority over one quiz session. Presentation code
// calls its operations and renders Snapshots; it never edits state itself.
type Engine struct {
	source QuestionSource
	rng    Rand
	log    zerolog.Logger

	mu          sync.Mutex
	session     *Session
	generation  uint64
	cancelFetch context.CancelFunc
	subscribers map[int]chan Snapshot
	nextSubID   int
}

// NewEngine creates an engine in the initial Loading state.
func NewEngine(source QuestionSource, rng Rand, log zerolog.Logger) *Engine {
	if rng == nil {
		rng = NewRand()
	}
	return &Engine{
		source:      source,
		rng:         rng,
		log:         log.With().Str("component", "quiz_engine").Logger(),
		session:     NewLoadingSession(""),
		subscribers: make(map[int]chan Snapshot),
	}
}

// LoadSession replaces the session with a Loading one and fetches the bank
// in the background. Any earlier fetch still in flight is superseded and
// its result discarded. The returned channel is closed once this fetch has
// resolved, whether it was applied or discarded.
func (e *Engine) LoadSession(ctx context.Context, language string) <-chan struct{} {
	// The fetch outlives the caller's request.
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	e.mu.Lock()
	if e.cancelFetch != nil {
		e.cancelFetch()
	}
	e.generation++
	gen := e.generation
	e.cancelFetch = cancel
	e.session = NewLoadingSession(language)
	e.publishLocked()
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		raw, err := e.source.Fetch(fetchCtx, language)
		e.resolve(gen, language, raw, err)
	}()

	return done
}

func (e *Engine) resolve(gen uint64, language string, raw []RawQuestion, fetchErr error) {
	var (
		bank     []Question
		rejected []Rejected
	)
	if fetchErr == nil {
		bank, rejected = ConvertBank(raw)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation {
		e.log.Debug().Str("language", language).Msg("Discarding superseded question bank fetch")
		return
	}
	e.cancelFetch = nil

	if fetchErr != nil {
		e.log.Warn().Err(fetchErr).Str("language", language).Msg("Question bank unavailable")
		e.session.Fail(fmt.Errorf("%w: %w", ErrSourceUnavailable, fetchErr))
		e.publishLocked()
		return
	}

	for _, r := range rejected {
		e.log.Warn().Err(r.Err).Int("index", r.Index).Str("language", language).Msg("Dropping malformed question")
	}

	e.session.Begin(bank, e.rng)
	e.log.Info().
		Str("language", language).
		Int("questions", len(bank)).
		Int("dropped", len(rejected)).
		Msg("Quiz session ready")
	e.publishLocked()
}

// SelectAnswer chooses an option for the current question. It is ignored
// while loading, after finishing, or when a selection is already pending.
func (e *Engine) SelectAnswer(key OptionKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.SelectAnswer(key) {
		return false
	}
	e.publishLocked()
	return true
}

// Advance moves on from an answered question.
func (e *Engine) Advance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Advance() {
		return false
	}
	e.publishLocked()
	return true
}

// Restart reshuffles the already loaded bank into a brand new session.
func (e *Engine) Restart() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, ok := e.session.Restart(e.rng)
	if !ok {
		return false
	}
	e.session = next
	e.publishLocked()
	return true
}

// Snapshot returns the current read-only state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Snapshot()
}

// Subscribe returns a channel receiving a Snapshot after every change.
// A slow reader only misses intermediate snapshots, never the latest one.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = ch
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if sub, ok := e.subscribers[id]; ok {
				delete(e.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close abandons any in-flight fetch and closes all subscriptions.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancelFetch != nil {
		e.cancelFetch()
		e.cancelFetch = nil
	}
	// Invalidate the pending fetch so it cannot publish.
	e.generation++
	for id, ch := range e.subscribers {
		delete(e.subscribers, id)
		close(ch)
	}
}

func (e *Engine) publishLocked() {
	if len(e.subscribers) == 0 {
		return
	}
	snap := e.session.Snapshot()
	for _, ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest queued snapshot to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
