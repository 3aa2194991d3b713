package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-quiz-session/internal/domain"
)

// ResultStore persists submitted quiz results. It satisfies session.ResultSender
// for deployments without a remote scoring service.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SendResult(ctx context.Context, _ domain.SessionContext, sub domain.ResultSubmission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_results (id, quiz_id, user_id, answers) VALUES ($1, $2, $3, $4::jsonb)`,
		uuid.New(), sub.QuizID, sub.UserID, string(answers))
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// CountResults reports how many results a user has submitted for a quiz.
func (s *ResultStore) CountResults(ctx context.Context, quizID, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM quiz_results WHERE quiz_id=$1 AND user_id=$2`, quizID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}
