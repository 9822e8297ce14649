package postgres

import (
	"context"
	"fmt"

	"edu-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AnswerKeyLoader reads answer keys on a pgx pool kept apart from the
// transactional bun pool, so cache misses do not queue behind submissions.
type AnswerKeyLoader struct {
	pool *pgxpool.Pool
}

func NewAnswerKeyLoader(pool *pgxpool.Pool) *AnswerKeyLoader {
	return &AnswerKeyLoader{pool: pool}
}

func (l *AnswerKeyLoader) LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, correct_option FROM questions WHERE quiz_id=$1 ORDER BY id ASC`, quizID)
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	defer rows.Close()

	key := domain.AnswerKey{QuizID: quizID}
	for rows.Next() {
		var entry domain.AnswerKeyEntry
		if err := rows.Scan(&entry.QuestionID, &entry.CorrectOption); err != nil {
			return domain.AnswerKey{}, fmt.Errorf("scan answer key: %w", err)
		}
		key.Entries = append(key.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	if key.Len() == 0 {
		return domain.AnswerKey{}, domain.ErrQuizNotFound
	}
	return key, nil
}
