package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"lms-quiz-session/internal/domain"
)

// ResultSender delivers a finished session to the scoring backend.
type ResultSender interface {
	SendResult(ctx context.Context, sc domain.SessionContext, submission domain.ResultSubmission) error
}

// Outcome is what the lifecycle learns from a submission: whether the remote save succeeded.
type Outcome struct {
	Saved  bool
	Reason string
}

// ResultAdapter converts a ledger into the scorer's wire format and turns every
// transport failure into an Outcome. There is no retry.
type ResultAdapter struct {
	sender ResultSender
	logger zerolog.Logger
}

func NewResultAdapter(sender ResultSender, logger zerolog.Logger) *ResultAdapter {
	return &ResultAdapter{
		sender: sender,
		logger: logger.With().Str("component", "result_adapter").Logger(),
	}
}

// BuildSubmission maps question prompt to selected answer text.
// Unanswered questions are left out.
func BuildSubmission(quiz domain.Quiz, userID string, answers map[string]string) domain.ResultSubmission {
	payload := make(map[string]string, len(answers))
	for _, q := range quiz.Questions {
		answerID, ok := answers[q.ID]
		if !ok {
			continue
		}
		if a, ok := q.FindAnswer(answerID); ok {
			payload[q.Prompt] = a.Text
		}
	}
	return domain.ResultSubmission{
		QuizID:  quiz.ID,
		UserID:  userID,
		Answers: payload,
	}
}

// Submit sends the answers and reports the outcome. It never returns an error.
func (a *ResultAdapter) Submit(ctx context.Context, sc domain.SessionContext, quiz domain.Quiz, answers map[string]string) (out Outcome) {
	logger := a.logger.With().Str("quiz_id", quiz.ID).Str("user_id", sc.UserID).Logger()
	if a.sender == nil {
		logger.Warn().Msg("no result sender configured; results kept local")
		return Outcome{Reason: "no result sender configured"}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("result sender panicked")
			out = Outcome{Reason: fmt.Sprintf("sender panic: %v", r)}
		}
	}()

	if err := a.sender.SendResult(ctx, sc, BuildSubmission(quiz, sc.UserID, answers)); err != nil {
		logger.Warn().Err(err).Msg("result submission failed")
		return Outcome{Reason: err.Error()}
	}
	logger.Info().Int("answered", len(answers)).Msg("result submitted")
	return Outcome{Saved: true}
}
