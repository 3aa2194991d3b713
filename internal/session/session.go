package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lms-quiz-session/internal/domain"
)

const defaultSubmitTimeout = 10 * time.Second

// Options configures a Session.
type Options struct {
	Clock         Clock
	Sender        ResultSender
	SubmitTimeout time.Duration
	Logger        zerolog.Logger
}

// Session drives one user's quiz screen through
// Selecting -> Countdown -> InProgress -> Submitting -> Results.
// Every event (user input, tick, submission response) runs under mu,
// so handlers never interleave.
type Session struct {
	owner         domain.SessionContext
	clock         Clock
	adapter       *ResultAdapter
	submitTimeout time.Duration
	logger        zerolog.Logger

	mu          sync.Mutex
	phase       domain.Phase
	attempt     *attempt
	subscribers map[chan domain.Snapshot]struct{}
	closed      bool
}

// attempt is a single pass through one quiz. A new attempt is built on every
// chooseQuiz; callbacks from an older attempt are ignored.
type attempt struct {
	id        string
	quiz      domain.Quiz
	ledger    *Ledger
	cursor    *Cursor
	highlight string
	gate      *CountdownGate
	timer     *TimerSource

	final        map[string]string
	score        domain.Score
	outcome      *Outcome
	cancelSubmit context.CancelFunc
}

// New creates a session in the Selecting phase for owner.
func New(owner domain.SessionContext, opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	timeout := opts.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	logger := opts.Logger.With().Str("component", "quiz_session").Str("user_id", owner.UserID).Logger()
	return &Session{
		owner:         owner,
		clock:         clock,
		adapter:       NewResultAdapter(opts.Sender, logger),
		submitTimeout: timeout,
		logger:        logger,
		phase:         domain.PhaseSelecting,
		subscribers:   make(map[chan domain.Snapshot]struct{}),
	}
}

// Owner returns the user the session belongs to.
func (s *Session) Owner() domain.SessionContext { return s.owner }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ChooseQuiz starts a fresh attempt and enters the countdown.
func (s *Session) ChooseQuiz(quiz domain.Quiz) error {
	if err := quiz.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != domain.PhaseSelecting {
		return domain.ErrInvalidTransition
	}

	a := &attempt{
		id:     uuid.NewString(),
		quiz:   quiz,
		ledger: NewLedger(quiz),
		cursor: NewCursor(len(quiz.Questions)),
		gate:   newCountdownGate(s.clock),
		timer:  newTimerSource(s.clock),
	}
	s.attempt = a
	s.phase = domain.PhaseCountdown
	a.gate.start(func() { s.onCountdownTick(a) })

	s.logger.Info().
		Str("session_id", a.id).
		Str("quiz_id", quiz.ID).
		Int("questions", len(quiz.Questions)).
		Msg("quiz chosen, countdown started")
	s.broadcastLocked()
	return nil
}

func (s *Session) onCountdownTick(a *attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != a || s.phase != domain.PhaseCountdown {
		return
	}
	if a.gate.tick() {
		s.phase = domain.PhaseInProgress
		a.timer.start(a.quiz.TimeLimitSeconds(), func() { s.onTimerTick(a) })
		s.logger.Info().
			Str("session_id", a.id).
			Int("remaining_seconds", a.timer.Remaining()).
			Msg("quiz in progress")
	}
	s.broadcastLocked()
}

func (s *Session) onTimerTick(a *attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != a || s.phase != domain.PhaseInProgress {
		return
	}
	if a.timer.tick() {
		s.broadcastLocked()
	}
}

// Next moves to the following question and clears the highlight.
func (s *Session) Next() error {
	return s.navigate(func(a *attempt) error {
		if a.cursor.Next() {
			a.highlight = ""
		}
		return nil
	})
}

// Previous moves back one question and restores its recorded answer as highlight.
func (s *Session) Previous() error {
	return s.navigate(func(a *attempt) error {
		if a.cursor.Previous() {
			a.restoreHighlight()
		}
		return nil
	})
}

// JumpTo moves to an already visited question.
func (s *Session) JumpTo(index int) error {
	return s.navigate(func(a *attempt) error {
		if err := a.cursor.JumpTo(index); err != nil {
			return err
		}
		a.restoreHighlight()
		return nil
	})
}

func (s *Session) navigate(move func(a *attempt) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return domain.ErrInvalidTransition
	}
	if err := move(s.attempt); err != nil {
		return err
	}
	s.broadcastLocked()
	return nil
}

func (a *attempt) restoreHighlight() {
	q := a.quiz.Questions[a.cursor.Index()]
	a.highlight, _ = a.ledger.Get(q.ID)
}

// SelectAnswer records answerID for questionID. Only honored while in progress.
func (s *Session) SelectAnswer(questionID, answerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return domain.ErrInvalidTransition
	}
	a := s.attempt
	if err := a.ledger.Select(questionID, answerID); err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", a.id).
			Str("question_id", questionID).
			Str("answer_id", answerID).
			Msg("rejected answer selection")
		return err
	}
	if a.quiz.QuestionIndex(questionID) == a.cursor.Index() {
		a.highlight = answerID
	}
	s.broadcastLocked()
	return nil
}

// Submit freezes the answers and hands them to the result adapter. It is only
// allowed on the last question. The session reaches Results whatever the adapter reports.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return domain.ErrInvalidTransition
	}
	a := s.attempt
	if !a.cursor.AtLast() {
		return domain.ErrNotLastQuestion
	}

	a.timer.stop()
	a.final = a.ledger.Snapshot()
	a.score = a.ledger.Score(a.quiz)
	s.phase = domain.PhaseSubmitting

	ctx, cancel := context.WithTimeout(context.Background(), s.submitTimeout)
	a.cancelSubmit = cancel
	go func() {
		defer cancel()
		outcome := s.adapter.Submit(ctx, s.owner, a.quiz, a.final)
		s.onSubmitted(a, outcome)
	}()

	s.logger.Info().
		Str("session_id", a.id).
		Int("answered", len(a.final)).
		Int("remaining_seconds", a.timer.Remaining()).
		Msg("submitting results")
	s.broadcastLocked()
	return nil
}

func (s *Session) onSubmitted(a *attempt, outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != a || s.phase != domain.PhaseSubmitting {
		return
	}
	a.outcome = &outcome
	a.cancelSubmit = nil
	s.phase = domain.PhaseResults
	s.logger.Info().
		Str("session_id", a.id).
		Int("correct", a.score.Correct).
		Int("total", a.score.Total).
		Bool("saved", outcome.Saved).
		Msg("session results ready")
	s.broadcastLocked()
}

// Score returns the local score once answers are frozen.
func (s *Session) Score() (domain.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseSubmitting && s.phase != domain.PhaseResults {
		return domain.Score{}, domain.ErrInvalidTransition
	}
	return s.attempt.score, nil
}

// Outcome returns the submission outcome once Results is reached.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseResults || s.attempt.outcome == nil {
		return Outcome{}, false
	}
	return *s.attempt.outcome, true
}

// Reset abandons the current attempt from any phase, stops both clocks and
// returns to Selecting.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetLocked() {
		s.broadcastLocked()
	}
}

func (s *Session) resetLocked() bool {
	a := s.attempt
	if a == nil && s.phase == domain.PhaseSelecting {
		return false
	}
	if a != nil {
		a.gate.stop()
		a.timer.stop()
		if a.cancelSubmit != nil {
			a.cancelSubmit()
		}
		s.logger.Info().
			Str("session_id", a.id).
			Str("phase", s.phase.String()).
			Msg("session reset")
	}
	s.attempt = nil
	s.phase = domain.PhaseSelecting
	return true
}

// Close resets the session and releases all subscribers. The session cannot be reused.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.resetLocked()
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns the current externally visible state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every event, starting
// with the current state. The caller must invoke the returned cancel function.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// slow subscriber: drop the oldest snapshot, newest state wins
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Phase:            s.phase,
		CountdownSeconds: CountdownStart,
	}
	a := s.attempt
	if a == nil {
		return snap
	}

	snap.SessionID = a.id
	snap.QuizID = a.quiz.ID
	snap.QuizTitle = a.quiz.Title
	snap.Cursor = a.cursor.Index()
	snap.Total = a.cursor.Total()
	snap.CountdownSeconds = a.gate.Seconds()
	snap.RemainingSeconds = a.timer.Remaining()
	if s.phase == domain.PhaseCountdown {
		snap.RemainingSeconds = a.quiz.TimeLimitSeconds()
	}

	switch s.phase {
	case domain.PhaseInProgress:
		view := domain.NewQuestionView(a.quiz.Questions[a.cursor.Index()])
		snap.Question = &view
		snap.Highlight = a.highlight
		snap.Answered = a.ledger.Snapshot()
	case domain.PhaseSubmitting, domain.PhaseResults:
		snap.Answered = copyAnswers(a.final)
		score := a.score
		snap.Score = &score
		if a.outcome != nil {
			saved := a.outcome.Saved
			snap.Saved = &saved
		}
	}
	return snap
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
