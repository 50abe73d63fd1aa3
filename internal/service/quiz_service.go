package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examprep/mcq-backend/internal/config"
	"github.com/examprep/mcq-backend/internal/quiz"
)

// Common quiz service errors.
var (
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrTokenInvalid    = errors.New("invalid session token")
)

// Claims identifies the quiz session a browser is playing.
type Claims struct {
	jwt.RegisteredClaims
	SessionID uuid.UUID `json:"sid"`
}

// Ticket is handed to the presentation layer when a quiz starts.
type Ticket struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LanguageLister reports the language keys a question store can serve.
type LanguageLister interface {
	Languages(ctx context.Context) ([]string, error)
}

type entry struct {
	engine   *quiz.Engine
	lastSeen atomic.Int64 // unix nanos
}

func (e *entry) touch(now time.Time) {
	e.lastSeen.Store(now.UnixNano())
}

// QuizService keeps one independent quiz engine per browser session.
type QuizService struct {
	cfg     *config.Config
	source  quiz.QuestionSource
	lister  LanguageLister
	newRand func() quiz.Rand
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
}

// NewQuizService creates a new QuizService.
func NewQuizService(cfg *config.Config, source quiz.QuestionSource, log zerolog.Logger) *QuizService {
	return &QuizService{
		cfg:      cfg,
		source:   source,
		newRand:  quiz.NewRand,
		log:      log.With().Str("component", "quiz_service").Logger(),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// WithRand replaces the randomness used by new engines. Intended for tests.
func (s *QuizService) WithRand(newRand func() quiz.Rand) *QuizService {
	s.newRand = newRand
	return s
}

// WithLanguageLister makes Languages ask the question store instead of
// relying on QUIZ_LANGUAGES alone.
func (s *QuizService) WithLanguageLister(lister LanguageLister) *QuizService {
	s.lister = lister
	return s
}

// Languages returns the playable language keys. With a lister the store is
// authoritative; if it fails the configured keys are returned.
func (s *QuizService) Languages(ctx context.Context) []string {
	if s.lister != nil {
		languages, err := s.lister.Languages(ctx)
		if err == nil {
			return languages
		}
		s.log.Warn().Err(err).Msg("Listing languages failed, using configured keys")
	}
	out := make([]string, len(s.cfg.Languages))
	copy(out, s.cfg.Languages)
	return out
}

// ResolveLanguage normalizes a requested key, falling back to the default.
func (s *QuizService) ResolveLanguage(language string) string {
	language = config.NormalizeLanguage(language)
	if language == "" {
		return s.cfg.DefaultLanguage
	}
	return language
}

// Start creates a new engine, issues its token, and begins loading the bank.
// The returned channel closes when the initial fetch has resolved.
func (s *QuizService) Start(ctx context.Context, language string) (*Ticket, <-chan struct{}, error) {
	id := uuid.New()
	now := s.now()

	ticket, err := s.issueToken(id, now)
	if err != nil {
		return nil, nil, err
	}

	e := &entry{engine: quiz.NewEngine(s.source, s.newRand(), s.log.With().Str("session_id", id.String()).Logger())}
	e.touch(now)

	s.mu.Lock()
	s.sessions[id] = e
	s.mu.Unlock()

	language = s.ResolveLanguage(language)
	done := e.engine.LoadSession(ctx, language)

	s.log.Info().Str("session_id", id.String()).Str("language", language).Msg("Quiz session started")
	return ticket, done, nil
}

// Load switches an existing session to a (possibly different) language bank.
func (s *QuizService) Load(ctx context.Context, id uuid.UUID, language string) (<-chan struct{}, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.engine.LoadSession(ctx, s.ResolveLanguage(language)), nil
}

// Select forwards an answer selection. The bool reports whether it applied.
func (s *QuizService) Select(id uuid.UUID, key quiz.OptionKey) (quiz.Snapshot, bool, error) {
	e, err := s.lookup(id)
	if err != nil {
		return quiz.Snapshot{}, false, err
	}
	applied := e.engine.SelectAnswer(key)
	return e.engine.Snapshot(), applied, nil
}

// Advance forwards an advance action.
func (s *QuizService) Advance(id uuid.UUID) (quiz.Snapshot, bool, error) {
	e, err := s.lookup(id)
	if err != nil {
		return quiz.Snapshot{}, false, err
	}
	applied := e.engine.Advance()
	return e.engine.Snapshot(), applied, nil
}

// Restart forwards a restart action.
func (s *QuizService) Restart(id uuid.UUID) (quiz.Snapshot, bool, error) {
	e, err := s.lookup(id)
	if err != nil {
		return quiz.Snapshot{}, false, err
	}
	applied := e.engine.Restart()
	return e.engine.Snapshot(), applied, nil
}

// Snapshot returns the current state of a session.
func (s *QuizService) Snapshot(id uuid.UUID) (quiz.Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return quiz.Snapshot{}, err
	}
	return e.engine.Snapshot(), nil
}

// Subscribe streams snapshots of a session until the returned func is called
// or the session is swept.
func (s *QuizService) Subscribe(id uuid.UUID) (<-chan quiz.Snapshot, func(), error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := e.engine.Subscribe()
	return ch, cancel, nil
}

// Touch marks a session as active, e.g. while a stream is open.
func (s *QuizService) Touch(id uuid.UUID) {
	_, _ = s.lookup(id)
}

// ValidateToken parses and validates a session token.
func (s *QuizService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.SessionID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing session id", ErrTokenInvalid)
	}
	return claims, nil
}

// Sweep closes and forgets sessions idle for longer than idle.
func (s *QuizService) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle).UnixNano()

	s.mu.Lock()
	var stale []*entry
	for id, e := range s.sessions {
		if e.lastSeen.Load() < cutoff {
			stale = append(stale, e)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, e := range stale {
		e.engine.Close()
	}
	return len(stale)
}

// Count returns the number of live sessions.
func (s *QuizService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close shuts down every engine.
func (s *QuizService) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*entry)
	s.mu.Unlock()

	for _, e := range sessions {
		e.engine.Close()
	}
}

func (s *QuizService) lookup(id uuid.UUID) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.touch(s.now())
	return e, nil
}

func (s *QuizService) issueToken(id uuid.UUID, now time.Time) (*Ticket, error) {
	expires := now.Add(s.cfg.SessionTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		SessionID: id,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Ticket{SessionID: id, Token: signed, ExpiresAt: expires}, nil
}
