package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"edu-quiz-service/internal/domain"
)

// AnswerKeyRepository is a cache of answer keys consulted before the
// transaction opens. It only lets obviously wrong requests fail fast; the
// transaction reads the key again and that read is authoritative.
type AnswerKeyRepository interface {
	GetAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error)
	Invalidate(ctx context.Context, quizID int64) error
}

// SubmissionStore runs the writes of a submission in a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type SubmissionStore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx SubmissionTx) error) error
}

// SubmissionTx is the set of writes available inside the scoring transaction.
type SubmissionTx interface {
	// LoadAnswerKey reads the key ordered by question id and keeps the
	// questions from changing until the transaction ends.
	LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error)
	// LockResult creates the (user, quiz) result row if absent and locks it
	// for the rest of the transaction. It returns nil when no attempt existed
	// and domain.ErrUserNotFound when the user has no aggregate row.
	LockResult(ctx context.Context, userID, quizID int64, now time.Time) (*PreviousAttempt, error)
	// UpsertAnswers writes all answer rows with one set-based statement.
	UpsertAnswers(ctx context.Context, answers []domain.SubmittedAnswer) error
	UpsertResult(ctx context.Context, result domain.AttemptResult) error
	// IncrementPoints applies points = points + delta.
	IncrementPoints(ctx context.Context, userID int64, delta int) error
}

// Evaluator awards badges after a submission has committed.
type Evaluator interface {
	EvaluateAndAward(ctx context.Context, userID int64) []domain.BadgeAward
}

// SubmissionService scores quiz submissions and records attempts.
type SubmissionService struct {
	store       SubmissionStore
	keys        AnswerKeyRepository
	policy      PointsPolicy
	evaluator   Evaluator
	txTimeout   time.Duration
	evalTimeout time.Duration
	now         func() time.Time
}

// SubmissionOption customises a SubmissionService.
type SubmissionOption func(*SubmissionService)

// WithTxTimeout bounds how long the scoring transaction may run.
func WithTxTimeout(d time.Duration) SubmissionOption {
	return func(s *SubmissionService) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

// WithEvaluationTimeout bounds the badge evaluation that runs after commit.
func WithEvaluationTimeout(d time.Duration) SubmissionOption {
	return func(s *SubmissionService) {
		if d > 0 {
			s.evalTimeout = d
		}
	}
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) SubmissionOption {
	return func(s *SubmissionService) { s.now = now }
}

// NewSubmissionService wires the engine. keys and evaluator may be nil.
func NewSubmissionService(store SubmissionStore, keys AnswerKeyRepository, policy PointsPolicy, evaluator Evaluator, opts ...SubmissionOption) *SubmissionService {
	s := &SubmissionService{
		store:       store,
		keys:        keys,
		policy:      policy,
		evaluator:   evaluator,
		txTimeout:   10 * time.Second,
		evalTimeout: 5 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and scores a submission, records it atomically and then
// runs badge evaluation against the committed state.
//
// The answer key is read inside the transaction, so scoring always uses the
// questions as committed when the attempt is recorded. Validation errors
// (domain.ErrQuizNotFound, domain.ErrValidation, domain.ErrUserNotFound) leave
// nothing written. Any other error means the transaction was rolled back.
func (s *SubmissionService) Submit(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error) {
	hint, err := s.precheck(ctx, sub)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	now := s.now().UTC()

	// A started transaction must not be cut short by the caller going away.
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.txTimeout)
	defer cancel()

	var (
		key     domain.AnswerKey
		score   int
		awarded int
	)
	err = s.store.RunInTx(txCtx, func(ctx context.Context, tx SubmissionTx) error {
		awarded = 0
		var err error
		key, err = tx.LoadAnswerKey(ctx, sub.QuizID)
		if err != nil {
			return err
		}
		if err := validate(key, sub.Answers); err != nil {
			return err
		}
		score = key.Score(sub.Answers)

		previous, err := tx.LockResult(ctx, sub.UserID, sub.QuizID, now)
		if err != nil {
			return fmt.Errorf("lock result: %w", err)
		}
		if err := tx.UpsertAnswers(ctx, answerRows(sub, key, now)); err != nil {
			return fmt.Errorf("upsert answers: %w", err)
		}
		best := score
		if previous != nil && previous.BestMarks > best {
			best = previous.BestMarks
		}
		if err := tx.UpsertResult(ctx, domain.AttemptResult{
			UserID:        sub.UserID,
			QuizID:        sub.QuizID,
			MarksObtained: score,
			BestMarks:     best,
			SubmittedAt:   now,
		}); err != nil {
			return fmt.Errorf("upsert result: %w", err)
		}
		delta := s.policy.Award(previous, score)
		if delta > 0 {
			if err := tx.IncrementPoints(ctx, sub.UserID, delta); err != nil {
				return fmt.Errorf("increment points: %w", err)
			}
		}
		awarded = delta
		return nil
	})
	s.refreshCache(ctx, sub.QuizID, hint, key)
	if err != nil {
		if !isValidation(err) {
			log.Printf("submission rolled back user=%d quiz=%d: %v", sub.UserID, sub.QuizID, err)
		}
		return domain.SubmissionResult{}, err
	}

	if s.evaluator != nil {
		evalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.evalTimeout)
		s.evaluator.EvaluateAndAward(evalCtx, sub.UserID)
		cancel()
	}

	return domain.SubmissionResult{
		Score:          score,
		TotalQuestions: key.Len(),
		PointsAwarded:  awarded,
	}, nil
}

// precheck rejects requests that are wrong under the cached key before a
// transaction is opened. A cached key that disagrees with the request is
// reloaded once, so a rejection never rests on a stale entry. Cache failures
// are not fatal; the transaction validates again.
func (s *SubmissionService) precheck(ctx context.Context, sub domain.Submission) (*domain.AnswerKey, error) {
	if s.keys == nil {
		return nil, nil
	}
	key, err := s.keys.GetAnswerKey(ctx, sub.QuizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		return nil, err
	}
	if err != nil {
		log.Printf("answer key cache quiz=%d: %v", sub.QuizID, err)
		return nil, nil
	}
	if validate(key, sub.Answers) == nil {
		return &key, nil
	}

	if err := s.keys.Invalidate(ctx, sub.QuizID); err != nil {
		log.Printf("invalidate answer key quiz=%d: %v", sub.QuizID, err)
		return nil, nil
	}
	key, err = s.keys.GetAnswerKey(ctx, sub.QuizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, nil
	}
	if err := validate(key, sub.Answers); err != nil {
		return nil, err
	}
	return &key, nil
}

// refreshCache drops the cached key when the transaction saw different questions.
func (s *SubmissionService) refreshCache(ctx context.Context, quizID int64, hint *domain.AnswerKey, current domain.AnswerKey) {
	if s.keys == nil || hint == nil || hint.Equal(current) {
		return
	}
	if err := s.keys.Invalidate(context.WithoutCancel(ctx), quizID); err != nil {
		log.Printf("invalidate answer key quiz=%d: %v", quizID, err)
	}
}

func validate(key domain.AnswerKey, answers domain.AnswerSheet) error {
	if key.Len() == 0 {
		return domain.ErrQuizNotFound
	}
	if len(answers) != key.Len() {
		return &domain.AnswerCountError{Expected: key.Len(), Got: len(answers)}
	}
	return nil
}

func isValidation(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrQuizNotFound) ||
		errors.Is(err, domain.ErrUserNotFound)
}

func answerRows(sub domain.Submission, key domain.AnswerKey, now time.Time) []domain.SubmittedAnswer {
	rows := make([]domain.SubmittedAnswer, key.Len())
	for i, entry := range key.Entries {
		rows[i] = domain.SubmittedAnswer{
			UserID:          sub.UserID,
			QuizID:          sub.QuizID,
			QuestionID:      entry.QuestionID,
			SubmittedOption: sub.Answers[i],
			SubmittedAt:     now,
		}
	}
	return rows
}
