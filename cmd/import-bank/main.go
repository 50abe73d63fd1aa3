package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/examprep/mcq-backend/internal/config"
	"github.com/examprep/mcq-backend/internal/database"
	"github.com/examprep/mcq-backend/internal/logger"
	"github.com/examprep/mcq-backend/internal/quiz"
	"github.com/examprep/mcq-backend/internal/source"
)

func main() {
	var (
		file     string
		language string
		dryRun   bool
	)
	flag.StringVar(&file, "file", "", "Path to a <language>_mcq.json bank file")
	flag.StringVar(&language, "lang", "", "Language key (defaults to the file name prefix)")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate the file without writing to the database")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if file == "" {
		fmt.Println("Usage: import-bank -file assets/english_mcq.json [-lang english] [-dry-run]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if language == "" {
		language = strings.TrimSuffix(filepath.Base(file), "_mcq.json")
	}
	language = config.NormalizeLanguage(language)

	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read bank file")
	}
	raw, err := source.DecodeBank(data)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to decode bank file")
	}

	valid := filterValid(raw, func(r quiz.Rejected) {
		log.Warn().Err(r.Err).Int("index", r.Index).Msg("Skipping malformed question")
	})
	fmt.Printf("%s: %d records, %d valid\n", language, len(raw), len(valid))
	if dryRun {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	pg := source.NewPostgresSource(pool)
	if err := pg.ReplaceBank(ctx, language, valid); err != nil {
		log.Fatal().Err(err).Str("language", language).Msg("Failed to import bank")
	}

	// Drop the cached copy so servers pick up the new bank.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, cached bank not invalidated")
	} else if rdb != nil {
		defer rdb.Close()
		cached := source.NewCachedSource(pg, rdb, cfg.BankCacheTTL, log)
		if err := cached.Invalidate(ctx, language); err != nil {
			log.Warn().Err(err).Str("language", language).Msg("Failed to invalidate cached bank")
		}
	}

	log.Info().Str("language", language).Int("questions", len(valid)).Msg("Bank imported")
}

// filterValid keeps the records that convert into a Question, in order.
func filterValid(raw []quiz.RawQuestion, onReject func(quiz.Rejected)) []quiz.RawQuestion {
	_, rejected := quiz.ConvertBank(raw)
	skip := make(map[int]bool, len(rejected))
	for _, r := range rejected {
		skip[r.Index] = true
		onReject(r)
	}

	valid := make([]quiz.RawQuestion, 0, len(raw)-len(rejected))
	for i, r := range raw {
		if !skip[i] {
			valid = append(valid, r)
		}
	}
	return valid
}
