package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"edu-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches answer keys from the backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error)
}

// AnswerKeyRepository caches answer keys with TTL to avoid a query per submission.
type AnswerKeyRepository struct {
	loader AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedKey
}

type cachedKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyRepository(loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedKey),
	}
}

func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	if key, ok := r.lookup(quizID); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(cacheKey(quizID), func() (interface{}, error) {
		if key, ok := r.lookup(quizID); ok {
			return key, nil
		}

		key, err := r.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		if r.ttl <= 0 {
			return key, nil
		}

		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[quizID] = cachedKey{key: key, expiresAt: expiresAt}
		r.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate drops a cached key so the next lookup reloads it.
func (r *AnswerKeyRepository) Invalidate(_ context.Context, quizID int64) error {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.mu.Unlock()
	return nil
}

func (r *AnswerKeyRepository) lookup(quizID int64) (domain.AnswerKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.AnswerKey{}, false
	}
	return entry.key, true
}

// StaticAnswerKeyLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticAnswerKeyLoader struct {
	keys map[int64]domain.AnswerKey
}

func NewStaticAnswerKeyLoader(keys map[int64]domain.AnswerKey) *StaticAnswerKeyLoader {
	return &StaticAnswerKeyLoader{keys: keys}
}

func (l *StaticAnswerKeyLoader) LoadAnswerKey(_ context.Context, quizID int64) (domain.AnswerKey, error) {
	if key, ok := l.keys[quizID]; ok && key.Len() > 0 {
		return key, nil
	}
	return domain.AnswerKey{}, domain.ErrQuizNotFound
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func cacheKey(quizID int64) string {
	return "answer-key:" + strconv.FormatInt(quizID, 10)
}
