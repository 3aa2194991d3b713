package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-quiz-session/internal/domain"
)

const waitFor = 2 * time.Second

type recordingSender struct {
	mu    sync.Mutex
	err   error
	block chan struct{}
	sent  []domain.ResultSubmission
}

func (r *recordingSender) SendResult(ctx context.Context, _ domain.SessionContext, sub domain.ResultSubmission) error {
	var ctxErr error
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			ctxErr = ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sub)
	if ctxErr != nil {
		return ctxErr
	}
	return r.err
}

func (r *recordingSender) submissions() []domain.ResultSubmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ResultSubmission(nil), r.sent...)
}

func twoQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:               "quiz-1",
		Title:            "Onboarding basics",
		TimeLimitMinutes: 1,
		Questions: []domain.Question{
			{
				ID:     "q1",
				Prompt: "Which team owns payroll?",
				Answers: []domain.Answer{
					{ID: "a", Text: "Finance", IsCorrect: true},
					{ID: "b", Text: "Marketing"},
				},
			},
			{
				ID:     "q2",
				Prompt: "How many vacation days?",
				Answers: []domain.Answer{
					{ID: "c", Text: "25", IsCorrect: true},
					{ID: "d", Text: "10"},
				},
			},
		},
	}
}

func newTestSession(t *testing.T, sender ResultSender) (*Session, *ManualClock) {
	t.Helper()
	clock := NewManualClock()
	s := New(domain.SessionContext{UserID: "u1", Token: "tok"}, Options{
		Clock:  clock,
		Sender: sender,
		Logger: zerolog.Nop(),
	})
	t.Cleanup(s.Close)
	return s, clock
}

// startQuiz chooses quiz and runs the countdown to completion.
func startQuiz(t *testing.T, s *Session, clock *ManualClock, quiz domain.Quiz) {
	t.Helper()
	require.NoError(t, s.ChooseQuiz(quiz))
	for i := 0; i < CountdownStart; i++ {
		clock.Tick()
	}
	require.Eventually(t, func() bool {
		return s.Phase() == domain.PhaseInProgress
	}, waitFor, time.Millisecond)
}

func waitPhase(t *testing.T, s *Session, phase domain.Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Phase() == phase }, waitFor, time.Millisecond)
}

func TestScenarioOneCorrectOfTwo(t *testing.T) {
	sender := &recordingSender{}
	s, clock := newTestSession(t, sender)
	startQuiz(t, s, clock, twoQuestionQuiz())

	require.NoError(t, s.SelectAnswer("q1", "a"))
	require.NoError(t, s.Next())
	require.NoError(t, s.SelectAnswer("q2", "d"))
	require.NoError(t, s.Submit())
	waitPhase(t, s, domain.PhaseResults)

	score, err := s.Score()
	require.NoError(t, err)
	assert.Equal(t, domain.Score{Correct: 1, Total: 2}, score)

	outcome, ok := s.Outcome()
	require.True(t, ok)
	assert.True(t, outcome.Saved)

	subs := sender.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "quiz-1", subs[0].QuizID)
	assert.Equal(t, "u1", subs[0].UserID)
	assert.Equal(t, map[string]string{
		"Which team owns payroll?": "Finance",
		"How many vacation days?":  "10",
	}, subs[0].Answers)
}

func TestScoreTotalIgnoresUnanswered(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	startQuiz(t, s, clock, twoQuestionQuiz())

	require.NoError(t, s.Next())
	require.NoError(t, s.Submit())
	waitPhase(t, s, domain.PhaseResults)

	score, err := s.Score()
	require.NoError(t, err)
	assert.Equal(t, domain.Score{Correct: 0, Total: 2}, score)
}

func TestSubmissionFailureStillReachesResults(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{err: errors.New("scorer unavailable")})
	startQuiz(t, s, clock, twoQuestionQuiz())

	require.NoError(t, s.SelectAnswer("q1", "a"))
	require.NoError(t, s.Next())
	require.NoError(t, s.Submit())
	waitPhase(t, s, domain.PhaseResults)

	score, err := s.Score()
	require.NoError(t, err)
	assert.Equal(t, domain.Score{Correct: 1, Total: 2}, score)

	outcome, ok := s.Outcome()
	require.True(t, ok)
	assert.False(t, outcome.Saved)
	assert.Contains(t, outcome.Reason, "scorer unavailable")
	assert.False(t, *s.Snapshot().Saved)
}

func TestSubmitOnlyOnLastQuestion(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	startQuiz(t, s, clock, twoQuestionQuiz())

	assert.ErrorIs(t, s.Submit(), domain.ErrNotLastQuestion)
	assert.Equal(t, domain.PhaseInProgress, s.Phase())
}

func TestAnswersFrozenAfterSubmit(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	s, clock := newTestSession(t, sender)
	startQuiz(t, s, clock, twoQuestionQuiz())

	require.NoError(t, s.SelectAnswer("q1", "a"))
	require.NoError(t, s.Next())
	require.NoError(t, s.Submit())
	assert.Equal(t, domain.PhaseSubmitting, s.Phase())

	assert.ErrorIs(t, s.SelectAnswer("q1", "b"), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.Previous(), domain.ErrInvalidTransition)
	assert.Equal(t, map[string]string{"q1": "a"}, s.Snapshot().Answered)

	close(sender.block)
	waitPhase(t, s, domain.PhaseResults)
	assert.ErrorIs(t, s.SelectAnswer("q2", "c"), domain.ErrInvalidTransition)
	assert.Equal(t, map[string]string{"q1": "a"}, s.Snapshot().Answered)
}

func TestTimerSaturatesAtZero(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	startQuiz(t, s, clock, twoQuestionQuiz())
	assert.Equal(t, 60, s.Snapshot().RemainingSeconds)

	for i := 0; i < 61; i++ {
		clock.Tick()
	}
	require.Eventually(t, func() bool {
		return s.Snapshot().RemainingSeconds == 0
	}, waitFor, time.Millisecond)

	clock.Tick()
	assert.Equal(t, 0, s.Snapshot().RemainingSeconds)
	// no auto-submit on timeout
	assert.Equal(t, domain.PhaseInProgress, s.Phase())
	require.NoError(t, s.SelectAnswer("q1", "a"))
}

func TestTimerFrozenOutsideInProgress(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	s, clock := newTestSession(t, sender)
	startQuiz(t, s, clock, twoQuestionQuiz())

	clock.Tick()
	clock.Tick()
	require.Eventually(t, func() bool {
		return s.Snapshot().RemainingSeconds == 58
	}, waitFor, time.Millisecond)

	require.NoError(t, s.Next())
	require.NoError(t, s.Submit())
	frozen := s.Snapshot().RemainingSeconds

	for i := 0; i < 5; i++ {
		clock.Tick()
	}
	assert.Equal(t, frozen, s.Snapshot().RemainingSeconds)

	close(sender.block)
	waitPhase(t, s, domain.PhaseResults)
	clock.Tick()
	assert.Equal(t, frozen, s.Snapshot().RemainingSeconds)
}

func TestResetDuringCountdownRestartsAtThree(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	require.NoError(t, s.ChooseQuiz(twoQuestionQuiz()))
	clock.Tick()
	clock.Tick()
	require.Eventually(t, func() bool {
		return s.Snapshot().CountdownSeconds == 1
	}, waitFor, time.Millisecond)

	s.Reset()
	assert.Equal(t, domain.PhaseSelecting, s.Phase())
	require.Eventually(t, func() bool { return clock.Active() == 0 }, waitFor, time.Millisecond)

	require.NoError(t, s.ChooseQuiz(twoQuestionQuiz()))
	snap := s.Snapshot()
	assert.Equal(t, domain.PhaseCountdown, snap.Phase)
	assert.Equal(t, CountdownStart, snap.CountdownSeconds)
}

func TestResetStopsTimerSource(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	startQuiz(t, s, clock, twoQuestionQuiz())
	require.Eventually(t, func() bool { return clock.Active() == 1 }, waitFor, time.Millisecond)

	s.Reset()
	require.Eventually(t, func() bool { return clock.Active() == 0 }, waitFor, time.Millisecond)
	assert.Equal(t, domain.Snapshot{Phase: domain.PhaseSelecting, CountdownSeconds: CountdownStart}, s.Snapshot())
}

func TestChooseQuizOnlyFromSelecting(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	startQuiz(t, s, clock, twoQuestionQuiz())

	assert.ErrorIs(t, s.ChooseQuiz(twoQuestionQuiz()), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.ChooseQuiz(domain.Quiz{ID: "empty"}), domain.ErrInvalidQuiz)
}

func TestChooseQuizRejectsInvalidContent(t *testing.T) {
	cases := map[string]func(q *domain.Quiz){
		"zero time limit":     func(q *domain.Quiz) { q.TimeLimitMinutes = 0 },
		"negative time limit": func(q *domain.Quiz) { q.TimeLimitMinutes = -3 },
		"no questions":        func(q *domain.Quiz) { q.Questions = nil },
		"question without answers": func(q *domain.Quiz) {
			q.Questions[1].Answers = nil
		},
		"blank prompt": func(q *domain.Quiz) { q.Questions[0].Prompt = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s, clock := newTestSession(t, &recordingSender{})
			quiz := twoQuestionQuiz()
			quiz.Questions = append([]domain.Question(nil), quiz.Questions...)
			mutate(&quiz)

			assert.ErrorIs(t, s.ChooseQuiz(quiz), domain.ErrInvalidQuiz)
			assert.Equal(t, domain.PhaseSelecting, s.Phase())
			assert.Equal(t, 0, clock.Active())
		})
	}
}

func TestRetakeBuildsNewAttempt(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	startQuiz(t, s, clock, twoQuestionQuiz())
	require.NoError(t, s.SelectAnswer("q1", "a"))
	first := s.Snapshot().SessionID
	require.NoError(t, s.Next())
	require.NoError(t, s.Submit())
	waitPhase(t, s, domain.PhaseResults)

	s.Reset()
	startQuiz(t, s, clock, twoQuestionQuiz())
	snap := s.Snapshot()
	assert.NotEqual(t, first, snap.SessionID)
	assert.Equal(t, 0, snap.Cursor)
	assert.Empty(t, snap.Answered)
}

func TestHighlightFollowsNavigation(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	startQuiz(t, s, clock, twoQuestionQuiz())

	require.NoError(t, s.SelectAnswer("q1", "b"))
	assert.Equal(t, "b", s.Snapshot().Highlight)

	require.NoError(t, s.Next())
	assert.Equal(t, "", s.Snapshot().Highlight)

	require.NoError(t, s.Previous())
	assert.Equal(t, "b", s.Snapshot().Highlight)

	require.NoError(t, s.Next())
	require.NoError(t, s.JumpTo(0))
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Cursor)
	assert.Equal(t, "b", snap.Highlight)
}

func TestJumpToRejectsUnvisited(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	startQuiz(t, s, clock, twoQuestionQuiz())

	assert.ErrorIs(t, s.JumpTo(1), domain.ErrJumpAhead)
	assert.Equal(t, 0, s.Snapshot().Cursor)
}

func TestForeignQuestionRejected(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	startQuiz(t, s, clock, twoQuestionQuiz())

	assert.ErrorIs(t, s.SelectAnswer("q9", "a"), domain.ErrQuestionNotFound)
	assert.ErrorIs(t, s.SelectAnswer("q1", "z"), domain.ErrAnswerNotFound)
	assert.Empty(t, s.Snapshot().Answered)
}

func TestEventsBeforeStartAreRejected(t *testing.T) {
	s, _ := newTestSession(t, &recordingSender{})

	assert.ErrorIs(t, s.Next(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.SelectAnswer("q1", "a"), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.Submit(), domain.ErrInvalidTransition)
	_, err := s.Score()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, s.ChooseQuiz(twoQuestionQuiz()))
	assert.ErrorIs(t, s.Next(), domain.ErrInvalidTransition)
}

func TestSubscribeReceivesTicks(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	updates, cancel := s.Subscribe()
	defer cancel()

	initial := <-updates
	assert.Equal(t, domain.PhaseSelecting, initial.Phase)

	require.NoError(t, s.ChooseQuiz(twoQuestionQuiz()))
	assert.Equal(t, domain.PhaseCountdown, (<-updates).Phase)

	clock.Tick()
	snap := <-updates
	assert.Equal(t, 2, snap.CountdownSeconds)
}

func TestCloseReleasesSubscribersAndClocks(t *testing.T) {
	s, clock := newTestSession(t, &recordingSender{})
	updates, _ := s.Subscribe()
	<-updates
	require.NoError(t, s.ChooseQuiz(twoQuestionQuiz()))

	s.Close()
	for range updates {
	}
	require.Eventually(t, func() bool { return clock.Active() == 0 }, waitFor, time.Millisecond)
	assert.ErrorIs(t, s.ChooseQuiz(twoQuestionQuiz()), domain.ErrInvalidTransition)
}

func TestResetDuringSubmittingCancelsSend(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	s, clock := newTestSession(t, sender)
	startQuiz(t, s, clock, twoQuestionQuiz())
	require.NoError(t, s.Next())
	require.NoError(t, s.Submit())

	s.Reset()
	assert.Equal(t, domain.PhaseSelecting, s.Phase())
	// the cancelled send completes in the background and must not revive the attempt
	require.Eventually(t, func() bool { return len(sender.submissions()) == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, domain.PhaseSelecting, s.Phase())
}
