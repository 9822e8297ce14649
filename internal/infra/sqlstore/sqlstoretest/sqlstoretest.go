// Package sqlstoretest provides a migrated SQLite store and seed helpers for tests.
package sqlstoretest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"edu-quiz-service/internal/domain"
	"edu-quiz-service/internal/infra/sqlstore"
	"edu-quiz-service/internal/infra/sqlstore/migrations"
)

// NewStore opens a fresh SQLite database under t.TempDir and applies all migrations.
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quiz.db")
	db, err := sqlstore.Open(sqlstore.DriverSQLite, "file:"+path+"?_fk=1&_busy_timeout=5000", 1)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Apply(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqlstore.New(db)
}

// SeedUser inserts a user with zero points.
func SeedUser(t *testing.T, store *sqlstore.Store, userID int64) {
	t.Helper()
	user := &sqlstore.UserRow{ID: userID, Username: fmt.Sprintf("user-%d", userID)}
	if _, err := store.DB().NewInsert().Model(user).Exec(context.Background()); err != nil {
		t.Fatalf("seed user %d: %v", userID, err)
	}
}

// SeedQuiz inserts a quiz whose questions have the given correct options, in
// order. Question ids are quizID*100+1, quizID*100+2, ... and are returned.
func SeedQuiz(t *testing.T, store *sqlstore.Store, quizID int64, correct ...int) []int64 {
	t.Helper()
	ctx := context.Background()
	quiz := &sqlstore.QuizRow{ID: quizID, Title: fmt.Sprintf("Quiz %d", quizID)}
	if _, err := store.DB().NewInsert().Model(quiz).Exec(ctx); err != nil {
		t.Fatalf("seed quiz %d: %v", quizID, err)
	}
	ids := make([]int64, len(correct))
	for i, c := range correct {
		ids[i] = quizID*100 + int64(i) + 1
		q := &sqlstore.QuestionRow{
			ID:            ids[i],
			QuizID:        quizID,
			Prompt:        fmt.Sprintf("Question %d", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectOption: c,
		}
		if _, err := store.DB().NewInsert().Model(q).Exec(ctx); err != nil {
			t.Fatalf("seed question %d: %v", ids[i], err)
		}
	}
	return ids
}

// SeedForum inserts a forum started by userID.
func SeedForum(t *testing.T, store *sqlstore.Store, forumID, userID int64) {
	t.Helper()
	forum := &sqlstore.ForumRow{ID: forumID, UserID: userID, Title: fmt.Sprintf("Forum %d", forumID)}
	if _, err := store.DB().NewInsert().Model(forum).Exec(context.Background()); err != nil {
		t.Fatalf("seed forum %d: %v", forumID, err)
	}
}

// SeedComment inserts a comment by userID with the given upvotes.
func SeedComment(t *testing.T, store *sqlstore.Store, commentID, forumID, userID int64, upvotes int) {
	t.Helper()
	comment := &sqlstore.CommentRow{ID: commentID, ForumID: forumID, UserID: userID, Body: "reply", Upvotes: upvotes}
	if _, err := store.DB().NewInsert().Model(comment).Exec(context.Background()); err != nil {
		t.Fatalf("seed comment %d: %v", commentID, err)
	}
}

// Sheet builds an AnswerSheet from literal option indexes; -1 marks an
// unanswered question.
func Sheet(options ...int) domain.AnswerSheet {
	sheet := make(domain.AnswerSheet, len(options))
	for i, o := range options {
		if o == -1 {
			continue
		}
		v := o
		sheet[i] = &v
	}
	return sheet
}
