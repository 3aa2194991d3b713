package memory

import (
	"context"
	"sync"

	"lms-quiz-session/internal/domain"
)

// ResultRecorder keeps submitted results in memory. It is the sender used when
// no scoring endpoint or database is configured.
type ResultRecorder struct {
	mu      sync.Mutex
	results []domain.ResultSubmission
}

func NewResultRecorder() *ResultRecorder {
	return &ResultRecorder{}
}

func (r *ResultRecorder) SendResult(ctx context.Context, _ domain.SessionContext, sub domain.ResultSubmission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, sub)
	return nil
}

// Results returns a copy of everything recorded so far.
func (r *ResultRecorder) Results() []domain.ResultSubmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ResultSubmission(nil), r.results...)
}
