package question

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizroom/quizroom/internal/domain"
	"github.com/quizroom/quizroom/internal/errors"
)

type Config struct {
	DB *pgxpool.Pool
}

// Store is the question source: a read-mostly pool of four-option
// questions drawn randomly at session creation.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(c Config) *Store {
	return &Store{db: c.DB}
}

// Init creates the questions table if missing and seeds the default
// question set when the pool is empty.
func (s *Store) Init(ctx context.Context) error {
	const createStmt = `
CREATE TABLE IF NOT EXISTS questions (
	question_id   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	prompt        TEXT NOT NULL,
	option_1      TEXT NOT NULL,
	option_2      TEXT NOT NULL,
	option_3      TEXT NOT NULL,
	option_4      TEXT NOT NULL,
	correct_option INT NOT NULL CHECK (correct_option BETWEEN 1 AND 4)
);`

	if _, err := s.db.Exec(ctx, createStmt); err != nil {
		return fmt.Errorf("create questions table: %w", err)
	}

	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM questions;`).Scan(&count); err != nil {
		return fmt.Errorf("count questions: %w", err)
	}

	if count > 0 {
		slog.InfoContext(ctx, fmt.Sprintf("question: %d questions available", count))
		return nil
	}

	if err := s.seed(ctx); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}

	slog.InfoContext(ctx, fmt.Sprintf("question: seeded %d default questions", len(seedQuestions)))
	return nil
}

func (s *Store) seed(ctx context.Context) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const insStmt = `
INSERT INTO questions (prompt, option_1, option_2, option_3, option_4, correct_option)
VALUES ($1, $2, $3, $4, $5, $6);`

	for _, q := range seedQuestions {
		_, err = tx.Exec(ctx, insStmt, q.Prompt, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.CorrectOption)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Random draws count questions in random order. A pool smaller than
// the requested count is an invalid-argument error, never a silent
// truncation.
func (s *Store) Random(ctx context.Context, count int) ([]domain.Question, error) {
	const stmt = `
SELECT question_id, prompt, option_1, option_2, option_3, option_4, correct_option
FROM questions
ORDER BY RANDOM()
LIMIT $1;`

	rows, err := s.db.Query(ctx, stmt, count)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}

	questions, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Question, error) {
		var q domain.Question
		if err := r.Scan(&q.ID, &q.Prompt, &q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3], &q.CorrectOption); err != nil {
			return domain.Question{}, err
		}
		return q, nil
	})
	if err != nil {
		return nil, err
	}

	if len(questions) < count {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("question pool has %d questions, %d requested", len(questions), count))
	}

	return questions, nil
}
