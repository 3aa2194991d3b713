package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lms-quiz-session/internal/domain"
	"lms-quiz-session/internal/metrics"
	"lms-quiz-session/internal/session"
)

// SessionRepository abstracts where open quiz sessions live (in-memory, Redis-marked, etc).
// Sessions are keyed by user: one quiz screen per user.
type SessionRepository interface {
	GetOrCreate(userID string, create func() *session.Session) (*session.Session, bool)
	Get(userID string) (*session.Session, bool)
	// Delete removes userID's entry only if it still holds sess.
	Delete(userID string, sess *session.Session) bool
	Record(ctx context.Context, userID string, snap domain.Snapshot)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, userID string) ([]domain.Quiz, error)
}

// ServiceOptions configures the sessions the service creates.
type ServiceOptions struct {
	Sender        session.ResultSender
	Clock         session.Clock
	SubmitTimeout time.Duration
	Metrics       *metrics.Collectors
}

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	opts     ServiceOptions
	metrics  *metrics.Collectors
	base     zerolog.Logger
	logger   zerolog.Logger

	// connections attached to each open session
	connMu sync.Mutex
	conns  map[*session.Session]int
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, opts ServiceOptions, logger zerolog.Logger) *QuizService {
	if opts.Metrics != nil && opts.Sender != nil {
		opts.Sender = &countingSender{next: opts.Sender, metrics: opts.Metrics}
	}
	return &QuizService{
		sessions: store,
		quizzes:  quizzes,
		opts:     opts,
		metrics:  opts.Metrics,
		base:     logger,
		conns:    make(map[*session.Session]int),
		logger:   logger.With().Str("component", "quiz_service").Logger(),
	}
}

// Catalog lists the quizzes available to the user. A failing catalog is
// reported as an empty one.
func (s *QuizService) Catalog(ctx context.Context, sc domain.SessionContext) []domain.QuizSummary {
	quizzes, err := s.quizzes.ListQuizzes(ctx, sc.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", sc.UserID).Msg("catalog unavailable, showing empty catalog")
		if s.metrics != nil {
			s.metrics.CatalogFailures.Inc()
		}
		return []domain.QuizSummary{}
	}
	out := make([]domain.QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, q.Summary())
	}
	return out
}

// Open returns the user's session, creating one in the Selecting phase if needed.
// Every Open must be paired with an Abandon of the returned session.
func (s *QuizService) Open(_ context.Context, sc domain.SessionContext) *session.Session {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	sess, created := s.sessions.GetOrCreate(sc.UserID, func() *session.Session {
		return session.New(sc, session.Options{
			Clock:         s.opts.Clock,
			Sender:        s.opts.Sender,
			SubmitTimeout: s.opts.SubmitTimeout,
			Logger:        s.base,
		})
	})
	s.conns[sess]++
	if created && s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
	}
	return sess
}

// Choose loads quizID and starts its countdown.
func (s *QuizService) Choose(ctx context.Context, sc domain.SessionContext, quizID string) (domain.Snapshot, error) {
	sess, ok := s.sessions.Get(sc.UserID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := sess.ChooseQuiz(quiz); err != nil {
		return domain.Snapshot{}, err
	}
	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}
	return s.record(ctx, sc, sess), nil
}

// Next advances the cursor.
func (s *QuizService) Next(ctx context.Context, sc domain.SessionContext) (domain.Snapshot, error) {
	return s.apply(ctx, sc, (*session.Session).Next)
}

// Previous moves the cursor back.
func (s *QuizService) Previous(ctx context.Context, sc domain.SessionContext) (domain.Snapshot, error) {
	return s.apply(ctx, sc, (*session.Session).Previous)
}

// JumpTo moves the cursor to a visited question.
func (s *QuizService) JumpTo(ctx context.Context, sc domain.SessionContext, index int) (domain.Snapshot, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error { return sess.JumpTo(index) })
}

// SelectAnswer records an answer for a question.
func (s *QuizService) SelectAnswer(ctx context.Context, sc domain.SessionContext, questionID, answerID string) (domain.Snapshot, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error { return sess.SelectAnswer(questionID, answerID) })
}

// Submit freezes the answers and starts the result submission.
func (s *QuizService) Submit(ctx context.Context, sc domain.SessionContext) (domain.Snapshot, error) {
	return s.apply(ctx, sc, (*session.Session).Submit)
}

// Reset returns the session to quiz selection.
func (s *QuizService) Reset(ctx context.Context, sc domain.SessionContext) (domain.Snapshot, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error {
		sess.Reset()
		return nil
	})
}

// Abandon detaches one connection from sess. The last detach closes the session
// and drops it from the store; a session that was already replaced is left alone.
func (s *QuizService) Abandon(_ context.Context, sc domain.SessionContext, sess *session.Session) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	n, ok := s.conns[sess]
	if !ok {
		return
	}
	if n > 1 {
		s.conns[sess] = n - 1
		return
	}
	delete(s.conns, sess)
	sess.Close()
	if s.sessions.Delete(sc.UserID, sess) && s.metrics != nil {
		s.metrics.ActiveSessions.Dec()
	}
}

func (s *QuizService) apply(ctx context.Context, sc domain.SessionContext, event func(*session.Session) error) (domain.Snapshot, error) {
	sess, ok := s.sessions.Get(sc.UserID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	if err := event(sess); err != nil {
		return domain.Snapshot{}, err
	}
	return s.record(ctx, sc, sess), nil
}

func (s *QuizService) record(ctx context.Context, sc domain.SessionContext, sess *session.Session) domain.Snapshot {
	snap := sess.Snapshot()
	s.sessions.Record(ctx, sc.UserID, snap)
	return snap
}

// countingSender counts submission outcomes on the way to the real sender.
type countingSender struct {
	next    session.ResultSender
	metrics *metrics.Collectors
}

func (c *countingSender) SendResult(ctx context.Context, sc domain.SessionContext, sub domain.ResultSubmission) error {
	err := c.next.SendResult(ctx, sc, sub)
	outcome := metrics.OutcomeSaved
	if err != nil {
		outcome = metrics.OutcomeFailed
	}
	c.metrics.Submissions.WithLabelValues(outcome).Inc()
	return err
}
