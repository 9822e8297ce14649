package redis

import (
	"context"
	"log"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"edu-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches answer keys from the backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error)
}

// AnswerKeyRepository caches answer keys in Redis (hash per quiz) and falls back to a loader on cache miss.
// Keys are stored as: HSET quiz:{quizID}:answers {questionID} {correctOption}
type AnswerKeyRepository struct {
	client *redis.Client
	loader AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewAnswerKeyRepository(client *redis.Client, loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	redisKey := r.answersKey(quizID)

	if key, ok := r.fromCache(ctx, quizID, redisKey); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(redisKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if key, ok := r.fromCache(ctx, quizID, redisKey); ok {
			return key, nil
		}

		key, err := r.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return domain.AnswerKey{}, err
		}

		fields := make(map[string]interface{}, key.Len())
		for _, entry := range key.Entries {
			fields[strconv.FormatInt(entry.QuestionID, 10)] = entry.CorrectOption
		}
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, redisKey)
		pipe.HSet(ctx, redisKey, fields)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, redisKey, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("cache answer key quiz=%d: %v", quizID, err)
		}

		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate drops the cached key of a quiz.
func (r *AnswerKeyRepository) Invalidate(ctx context.Context, quizID int64) error {
	return r.client.Del(ctx, r.answersKey(quizID)).Err()
}

func (r *AnswerKeyRepository) fromCache(ctx context.Context, quizID int64, redisKey string) (domain.AnswerKey, bool) {
	answers, err := r.client.HGetAll(ctx, redisKey).Result()
	if err != nil || len(answers) == 0 {
		return domain.AnswerKey{}, false
	}
	key, err := buildKeyFromCache(quizID, answers)
	if err != nil {
		return domain.AnswerKey{}, false
	}
	return key, true
}

func (r *AnswerKeyRepository) answersKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":answers"
}

// buildKeyFromCache restores the ascending question order the hash does not keep.
func buildKeyFromCache(quizID int64, answers map[string]string) (domain.AnswerKey, error) {
	entries := make([]domain.AnswerKeyEntry, 0, len(answers))
	for questionField, optionField := range answers {
		questionID, err := strconv.ParseInt(questionField, 10, 64)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		option, err := strconv.Atoi(optionField)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		entries = append(entries, domain.AnswerKeyEntry{QuestionID: questionID, CorrectOption: option})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QuestionID < entries[j].QuestionID
	})
	return domain.AnswerKey{QuizID: quizID, Entries: entries}, nil
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
