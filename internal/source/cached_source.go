package source

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examprep/mcq-backend/internal/config"
	"github.com/examprep/mcq-backend/internal/quiz"
)

// CachedSource is a Redis read-through cache in front of another source.
// Redis failures never fail a fetch; they fall through to the inner source.
type CachedSource struct {
	inner quiz.QuestionSource
	rdb   *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedSource wraps inner with a Redis cache.
func NewCachedSource(inner quiz.QuestionSource, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedSource {
	return &CachedSource{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
		log:   log.With().Str("component", "bank_cache").Logger(),
	}
}

// Fetch implements quiz.QuestionSource.
func (s *CachedSource) Fetch(ctx context.Context, language string) ([]quiz.RawQuestion, error) {
	key := config.CacheKey.QuestionBankKey(language)

	cached, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if raw, decodeErr := DecodeBank(cached); decodeErr == nil {
			return raw, nil
		}
		s.log.Warn().Str("language", language).Msg("Corrupt cached bank, refetching")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Str("language", language).Msg("Redis read failed, bypassing cache")
	}

	raw, err := s.inner.Fetch(ctx, language)
	if err != nil {
		return nil, err
	}

	s.store(ctx, language, raw)
	return raw, nil
}

// Prewarm loads the given languages into Redis ahead of traffic.
func (s *CachedSource) Prewarm(ctx context.Context, languages []string) error {
	var errs []error
	for _, language := range languages {
		raw, err := s.inner.Fetch(ctx, language)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.store(ctx, language, raw)
		s.log.Info().Str("language", language).Int("questions", len(raw)).Msg("Bank cache prewarmed")
	}
	return errors.Join(errs...)
}

// Invalidate drops a cached bank.
func (s *CachedSource) Invalidate(ctx context.Context, language string) error {
	return s.rdb.Del(ctx, config.CacheKey.QuestionBankKey(language)).Err()
}

func (s *CachedSource) store(ctx context.Context, language string, raw []quiz.RawQuestion) {
	if raw == nil {
		// Store an empty bank as [] so it is not mistaken for a corrupt entry.
		raw = []quiz.RawQuestion{}
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.QuestionBankKey(language), payload, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("language", language).Msg("Failed to cache bank")
	}
}
