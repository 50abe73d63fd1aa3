package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examprep/mcq-backend/internal/quiz"
)

// PostgresSource reads banks from the questions table.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a PostgresSource.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Fetch implements quiz.QuestionSource. A language with no rows is reported
// as ErrBankNotFound only when the language itself is unknown.
func (s *PostgresSource) Fetch(ctx context.Context, language string) ([]quiz.RawQuestion, error) {
	var known bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM languages WHERE code = $1)`, language,
	).Scan(&known); err != nil {
		return nil, fmt.Errorf("check language: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrBankNotFound, language)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT prompt, option_a, option_b, option_c, option_d, correct_option
		 FROM questions WHERE language = $1
		 ORDER BY order_num, id`, language,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}

	raw, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.RawQuestion, error) {
		var q quiz.RawQuestion
		err := row.Scan(&q.Question, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer)
		return q, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan questions: %w", err)
	}

	if raw == nil {
		raw = []quiz.RawQuestion{}
	}
	return raw, nil
}

// ReplaceBank swaps every question of a language inside one transaction.
// It is used by the bank import tool.
func (s *PostgresSource) ReplaceBank(ctx context.Context, language string, raw []quiz.RawQuestion) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO languages (code) VALUES ($1) ON CONFLICT (code) DO NOTHING`, language,
	); err != nil {
		return fmt.Errorf("upsert language: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE language = $1`, language); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}

	rows := make([][]any, len(raw))
	for i, q := range raw {
		rows[i] = []any{language, q.Question, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, i}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"language", "prompt", "option_a", "option_b", "option_c", "option_d", "correct_option", "order_num"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy questions: %w", err)
	}

	return tx.Commit(ctx)
}

// Languages lists the language codes present in the database.
func (s *PostgresSource) Languages(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT code FROM languages ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query languages: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
