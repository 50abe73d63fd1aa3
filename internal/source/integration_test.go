//go:build integration
// +build integration

package source_test

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examprep/mcq-backend/internal/config"
	"github.com/examprep/mcq-backend/internal/quiz"
	"github.com/examprep/mcq-backend/internal/source"
)

// These tests expect a migrated database (cmd/migrate up) and a Redis
// instance reachable through DATABASE_URL and REDIS_URL.

func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func sampleBank() []quiz.RawQuestion {
	return []quiz.RawQuestion{
		{Question: "Q1", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "OptionB"},
		{Question: "Q2", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "OptionA"},
	}
}

func TestPostgresSource_ReplaceAndFetch(t *testing.T) {
	ctx := context.Background()
	src := source.NewPostgresSource(integrationPool(t))

	if err := src.ReplaceBank(ctx, "it_lang", sampleBank()); err != nil {
		t.Fatalf("replace bank: %v", err)
	}

	raw, err := src.Fetch(ctx, "it_lang")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(raw) != 2 || raw[0].Question != "Q1" {
		t.Errorf("expected stored order to be preserved, got %+v", raw)
	}

	if _, err := src.Fetch(ctx, "no_such_lang"); !errors.Is(err, source.ErrBankNotFound) {
		t.Errorf("expected ErrBankNotFound, got %v", err)
	}

	languages, err := src.Languages(ctx)
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	if !slices.Contains(languages, "it_lang") {
		t.Errorf("expected imported language to be listed, got %v", languages)
	}
}

func TestCachedSource_ServesFromRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	rdb.Del(ctx, config.CacheKey.QuestionBankKey("it_lang"))

	inner := &countingSource{bank: sampleBank()}
	cached := source.NewCachedSource(inner, rdb, time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		raw, err := cached.Fetch(ctx, "it_lang")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(raw) != 2 {
			t.Fatalf("expected 2 records, got %d", len(raw))
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected a single inner fetch, got %d", inner.calls)
	}

	if err := cached.Invalidate(ctx, "it_lang"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}

func TestCachedSource_NullEntryIsRefetched(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	key := config.CacheKey.QuestionBankKey("it_null")
	if err := rdb.Set(ctx, key, "null", time.Minute).Err(); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	t.Cleanup(func() { rdb.Del(context.Background(), key) })

	inner := &countingSource{bank: sampleBank()}
	cached := source.NewCachedSource(inner, rdb, time.Minute, zerolog.Nop())

	raw, err := cached.Fetch(ctx, "it_null")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(raw) != 2 || inner.calls != 1 {
		t.Errorf("expected null entry to be bypassed, got %d records after %d inner fetches", len(raw), inner.calls)
	}

	stored, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	if string(stored) == "null" {
		t.Error("expected the null entry to be replaced")
	}
}

type countingSource struct {
	bank  []quiz.RawQuestion
	calls int
}

func (c *countingSource) Fetch(ctx context.Context, language string) ([]quiz.RawQuestion, error) {
	c.calls++
	return c.bank, nil
}
