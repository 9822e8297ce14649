package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Store implements the submission, achievement and review persistence on top of bun.
type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for seeding and maintenance.
func (s *Store) DB() *bun.DB {
	return s.db
}

// RunInTx runs fn in a transaction that commits when fn returns nil and is
// rolled back on error or panic. The connection goes back to the pool either way.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.SubmissionTx) error) error {
	lockRows := s.db.Dialect().Name() == dialect.PG
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &submissionTx{tx: tx, lockRows: lockRows})
	})
}

type submissionTx struct {
	tx       bun.Tx
	lockRows bool
}

// LoadAnswerKey reads the key on the transaction. On Postgres the question
// rows are share-locked so edits wait until the attempt is recorded.
func (t *submissionTx) LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	return loadAnswerKey(ctx, t.tx, quizID, t.lockRows)
}

func (t *submissionTx) LockResult(ctx context.Context, userID, quizID int64, now time.Time) (*app.PreviousAttempt, error) {
	exists, err := t.tx.NewSelect().Model((*UserRow)(nil)).Where("id = ?", userID).Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	placeholder := &ResultRow{UserID: userID, QuizID: quizID, SubmittedAt: now}
	res, err := t.tx.NewInsert().
		Model(placeholder).
		On("CONFLICT (user_id, quiz_id) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if inserted, err := res.RowsAffected(); err == nil && inserted == 1 {
		// The new row is ours until commit.
		return nil, nil
	}

	var row ResultRow
	q := t.tx.NewSelect().
		Model(&row).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID)
	if t.lockRows {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return &app.PreviousAttempt{MarksObtained: row.MarksObtained, BestMarks: row.BestMarks}, nil
}

func (t *submissionTx) UpsertAnswers(ctx context.Context, answers []domain.SubmittedAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	rows := make([]AnswerRow, len(answers))
	for i, a := range answers {
		rows[i] = AnswerRow{
			UserID:          a.UserID,
			QuizID:          a.QuizID,
			QuestionID:      a.QuestionID,
			SubmittedOption: a.SubmittedOption,
			SubmittedAt:     a.SubmittedAt,
		}
	}
	_, err := t.tx.NewInsert().
		Model(&rows).
		On("CONFLICT (user_id, quiz_id, question_id) DO UPDATE").
		Set("submitted_option = EXCLUDED.submitted_option").
		Set("submitted_at = EXCLUDED.submitted_at").
		Returning("NULL").
		Exec(ctx)
	return err
}

func (t *submissionTx) UpsertResult(ctx context.Context, result domain.AttemptResult) error {
	row := &ResultRow{
		UserID:        result.UserID,
		QuizID:        result.QuizID,
		MarksObtained: result.MarksObtained,
		BestMarks:     result.BestMarks,
		SubmittedAt:   result.SubmittedAt,
	}
	_, err := t.tx.NewInsert().
		Model(row).
		On("CONFLICT (user_id, quiz_id) DO UPDATE").
		Set("marks_obtained = EXCLUDED.marks_obtained").
		Set("best_marks = EXCLUDED.best_marks").
		Set("submitted_at = EXCLUDED.submitted_at").
		Returning("NULL").
		Exec(ctx)
	return err
}

func (t *submissionTx) IncrementPoints(ctx context.Context, userID int64, delta int) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE users SET points = points + ? WHERE id = ?`, delta, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// LoadAnswerKey reads the answer key of a quiz ordered by question id.
func (s *Store) LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	return loadAnswerKey(ctx, s.db, quizID, false)
}

func loadAnswerKey(ctx context.Context, db bun.IDB, quizID int64, share bool) (domain.AnswerKey, error) {
	var rows []QuestionRow
	q := db.NewSelect().
		Model(&rows).
		Column("id", "correct_option").
		Where("quiz_id = ?", quizID).
		Order("id ASC")
	if share {
		q = q.For("SHARE")
	}
	if err := q.Scan(ctx); err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	if len(rows) == 0 {
		return domain.AnswerKey{}, domain.ErrQuizNotFound
	}
	key := domain.AnswerKey{QuizID: quizID, Entries: make([]domain.AnswerKeyEntry, len(rows))}
	for i, r := range rows {
		key.Entries[i] = domain.AnswerKeyEntry{QuestionID: r.ID, CorrectOption: r.CorrectOption}
	}
	return key, nil
}

func (s *Store) CountResults(ctx context.Context, userID int64) (int, error) {
	return s.db.NewSelect().Model((*ResultRow)(nil)).Where("user_id = ?", userID).Count(ctx)
}

func (s *Store) UserPoints(ctx context.Context, userID int64) (int, error) {
	var points int
	err := s.db.NewSelect().
		Model((*UserRow)(nil)).
		Column("points").
		Where("id = ?", userID).
		Scan(ctx, &points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	return points, err
}

func (s *Store) CountForums(ctx context.Context, userID int64) (int, error) {
	return s.db.NewSelect().Model((*ForumRow)(nil)).Where("user_id = ?", userID).Count(ctx)
}

func (s *Store) SumCommentUpvotes(ctx context.Context, userID int64) (int, error) {
	var sum int
	err := s.db.NewSelect().
		Model((*CommentRow)(nil)).
		ColumnExpr("COALESCE(SUM(upvotes), 0)").
		Where("user_id = ?", userID).
		Scan(ctx, &sum)
	return sum, err
}

func (s *Store) AwardBadge(ctx context.Context, userID, badgeID int64, at time.Time) (bool, error) {
	res, err := s.db.NewInsert().
		Model(&UserBadgeRow{UserID: userID, BadgeID: badgeID, AwardedAt: at}).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) ListBadgeAwards(ctx context.Context, userID int64) ([]domain.BadgeAward, error) {
	var rows []UserBadgeRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("awarded_at ASC", "badge_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	awards := make([]domain.BadgeAward, 0, len(rows))
	for _, r := range rows {
		badge, ok := domain.BadgeByID(r.BadgeID)
		if !ok {
			continue
		}
		awards = append(awards, domain.BadgeAward{UserID: r.UserID, Badge: badge, AwardedAt: r.AwardedAt})
	}
	return awards, nil
}

func (s *Store) GetResult(ctx context.Context, userID, quizID int64) (*domain.AttemptResult, error) {
	var row ResultRow
	err := s.db.NewSelect().
		Model(&row).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.AttemptResult{
		UserID:        row.UserID,
		QuizID:        row.QuizID,
		MarksObtained: row.MarksObtained,
		BestMarks:     row.BestMarks,
		SubmittedAt:   row.SubmittedAt,
	}, nil
}

func (s *Store) ReviewQuestions(ctx context.Context, userID, quizID int64) ([]domain.ReviewQuestion, error) {
	var questions []QuestionRow
	if err := s.db.NewSelect().Model(&questions).Where("quiz_id = ?", quizID).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	var answers []AnswerRow
	err := s.db.NewSelect().
		Model(&answers).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	submitted := make(map[int64]*int, len(answers))
	for _, a := range answers {
		submitted[a.QuestionID] = a.SubmittedOption
	}

	out := make([]domain.ReviewQuestion, len(questions))
	for i, q := range questions {
		out[i] = domain.ReviewQuestion{
			ID:              q.ID,
			Prompt:          q.Prompt,
			Options:         q.Options,
			CorrectOption:   q.CorrectOption,
			SubmittedOption: submitted[q.ID],
		}
	}
	return out, nil
}
