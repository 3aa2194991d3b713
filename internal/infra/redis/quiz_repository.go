package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"lms-quiz-session/internal/domain"
	"lms-quiz-session/internal/infra/memory"
)

// QuizRepository caches full quiz documents in Redis and falls back to a loader on cache miss.
// Quizzes are stored as: SET quiz:{quizID} {json} EX ttl
// Redis errors are treated as misses; the loader stays the source of truth.
type QuizRepository struct {
	client *redis.Client
	loader memory.QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	logger zerolog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader memory.QuizLoader, ttl time.Duration, logger zerolog.Logger) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_quiz_cache").Logger(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}
		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.fill(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// ListQuizzes reads the user's catalog from the loader and refreshes the cache with it.
func (r *QuizRepository) ListQuizzes(ctx context.Context, userID string) ([]domain.Quiz, error) {
	quizzes, err := r.loader.ListQuizzes(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, quizzes...)
	return quizzes, nil
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, quizKey(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Str("quiz_id", quizID).Msg("quiz cache read failed")
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		r.logger.Warn().Err(err).Str("quiz_id", quizID).Msg("dropping undecodable cached quiz")
		_ = r.client.Del(ctx, quizKey(quizID)).Err()
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) fill(ctx context.Context, quizzes ...domain.Quiz) {
	if len(quizzes) == 0 {
		return
	}
	pipe := r.client.Pipeline()
	for _, quiz := range quizzes {
		raw, err := json.Marshal(quiz)
		if err != nil {
			continue
		}
		pipe.Set(ctx, quizKey(quiz.ID), raw, r.ttlWithJitter())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn().Err(err).Int("quizzes", len(quizzes)).Msg("quiz cache write failed")
	}
}

func quizKey(quizID string) string {
	return "quiz:" + quizID
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
