package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"edu-quiz-service/internal/domain"
)

func TestAnswerKeyRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		AnswerKeyLoader: NewStaticAnswerKeyLoader(map[int64]domain.AnswerKey{1: sampleKey()}),
	}
	repo := NewAnswerKeyRepository(loader, time.Minute)

	if _, err := repo.GetAnswerKey(context.Background(), 1); err != nil {
		t.Fatalf("get key: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	key, err := repo.GetAnswerKey(context.Background(), 1)
	if err != nil {
		t.Fatalf("get key 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if key.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", key.Len())
	}
}

func TestAnswerKeyRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		AnswerKeyLoader: NewStaticAnswerKeyLoader(map[int64]domain.AnswerKey{1: sampleKey()}),
	}
	repo := NewAnswerKeyRepository(loader, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetAnswerKey(context.Background(), 1)
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetAnswerKey(context.Background(), 1)
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}

	if err := repo.Invalidate(context.Background(), 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetAnswerKey(context.Background(), 1)
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestAnswerKeyRepositoryDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{AnswerKeyLoader: NewStaticAnswerKeyLoader(nil)}
	repo := NewAnswerKeyRepository(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := repo.GetAnswerKey(context.Background(), 5); !errors.Is(err, domain.ErrQuizNotFound) {
			t.Fatalf("expected ErrQuizNotFound, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected misses to reach the loader, calls %d", loader.calls)
	}
}

type countingLoader struct {
	AnswerKeyLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.AnswerKeyLoader.LoadAnswerKey(ctx, quizID)
}

func sampleKey() domain.AnswerKey {
	return domain.AnswerKey{
		QuizID: 1,
		Entries: []domain.AnswerKeyEntry{
			{QuestionID: 101, CorrectOption: 0},
			{QuestionID: 102, CorrectOption: 1},
			{QuestionID: 103, CorrectOption: 0},
		},
	}
}
