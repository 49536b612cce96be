package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"levelup-gatekeeper/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store keeps the attempt ledger and the passed-quiz set in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) RecordAttempt(ctx context.Context, rec domain.AttemptRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (guild_id, user_id, quiz_name, created_at) VALUES ($1, $2, $3, $4)`,
		rec.GuildID, rec.UserID, rec.QuizName, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *Store) LastAttempt(ctx context.Context, guildID, userID, quizName string) (time.Time, bool, error) {
	var last time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT created_at FROM quiz_attempts
		 WHERE guild_id = $1 AND user_id = $2 AND quiz_name = $3
		 ORDER BY created_at DESC LIMIT 1`,
		guildID, userID, quizName).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load last attempt: %w", err)
	}
	return last.UTC(), true, nil
}

func (s *Store) AddPassed(ctx context.Context, guildID, userID, quizName string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO passed_quizzes (guild_id, user_id, quiz_name) VALUES ($1, $2, $3)
		 ON CONFLICT (guild_id, user_id, quiz_name) DO NOTHING`,
		guildID, userID, quizName)
	if err != nil {
		return false, fmt.Errorf("insert passed quiz: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Passed(ctx context.Context, guildID, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT quiz_name FROM passed_quizzes WHERE guild_id = $1 AND user_id = $2 ORDER BY quiz_name`,
		guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("load passed quizzes: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan passed quiz: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
