package session

import (
	"lms-quiz-session/internal/domain"
)

// Ledger records at most one selected answer per question of a quiz.
type Ledger struct {
	questions map[string]domain.Question
	answers   map[string]string
}

// NewLedger builds an empty ledger accepting only the questions of quiz.
func NewLedger(quiz domain.Quiz) *Ledger {
	questions := make(map[string]domain.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = q
	}
	return &Ledger{
		questions: questions,
		answers:   make(map[string]string),
	}
}

// Select inserts or replaces the answer for questionID.
func (l *Ledger) Select(questionID, answerID string) error {
	q, ok := l.questions[questionID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if _, ok := q.FindAnswer(answerID); !ok {
		return domain.ErrAnswerNotFound
	}
	l.answers[questionID] = answerID
	return nil
}

// Get returns the answer recorded for questionID.
func (l *Ledger) Get(questionID string) (string, bool) {
	answerID, ok := l.answers[questionID]
	return answerID, ok
}

// Len is the number of answered questions.
func (l *Ledger) Len() int { return len(l.answers) }

// Snapshot returns a copy of the recorded answers.
func (l *Ledger) Snapshot() map[string]string {
	out := make(map[string]string, len(l.answers))
	for k, v := range l.answers {
		out[k] = v
	}
	return out
}

// Score counts correct answers against quiz. Unanswered questions count as incorrect.
func (l *Ledger) Score(quiz domain.Quiz) domain.Score {
	score := domain.Score{Total: len(quiz.Questions)}
	for _, q := range quiz.Questions {
		answerID, ok := l.answers[q.ID]
		if !ok {
			continue
		}
		if a, ok := q.FindAnswer(answerID); ok && a.IsCorrect {
			score.Correct++
		}
	}
	return score
}
