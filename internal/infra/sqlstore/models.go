package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRow holds the aggregate counters of a user.
type UserRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Username string `bun:"username,notnull"`
	Points   int    `bun:"points,notnull"`
}

type QuizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Title string `bun:"title,notnull"`
}

// QuestionRow stores a question and its answer key entry.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID            int64    `bun:"id,pk,autoincrement"`
	QuizID        int64    `bun:"quiz_id,notnull"`
	Prompt        string   `bun:"prompt,notnull"`
	Options       []string `bun:"options,notnull"`
	CorrectOption int      `bun:"correct_option,notnull"`
}

// AnswerRow is unique per (user_id, quiz_id, question_id).
type AnswerRow struct {
	bun.BaseModel `bun:"table:submitted_answers,alias:sa"`

	UserID          int64     `bun:"user_id,pk"`
	QuizID          int64     `bun:"quiz_id,pk"`
	QuestionID      int64     `bun:"question_id,pk"`
	SubmittedOption *int      `bun:"submitted_option"`
	SubmittedAt     time.Time `bun:"submitted_at,notnull"`
}

// ResultRow is unique per (user_id, quiz_id).
type ResultRow struct {
	bun.BaseModel `bun:"table:quiz_results,alias:qr"`

	UserID        int64     `bun:"user_id,pk"`
	QuizID        int64     `bun:"quiz_id,pk"`
	MarksObtained int       `bun:"marks_obtained,notnull"`
	BestMarks     int       `bun:"best_marks,notnull"`
	SubmittedAt   time.Time `bun:"submitted_at,notnull"`
}

type BadgeRow struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID        int64  `bun:"id,pk"`
	Name      string `bun:"name,notnull"`
	Category  string `bun:"category,notnull"`
	Tier      string `bun:"tier,notnull"`
	Threshold int    `bun:"threshold,notnull"`
}

// UserBadgeRow is unique per (user_id, badge_id).
type UserBadgeRow struct {
	bun.BaseModel `bun:"table:user_badges,alias:ub"`

	UserID    int64     `bun:"user_id,pk"`
	BadgeID   int64     `bun:"badge_id,pk"`
	AwardedAt time.Time `bun:"awarded_at,notnull"`
}

type ForumRow struct {
	bun.BaseModel `bun:"table:forums,alias:f"`

	ID     int64  `bun:"id,pk,autoincrement"`
	UserID int64  `bun:"user_id,notnull"`
	Title  string `bun:"title,notnull"`
}

type CommentRow struct {
	bun.BaseModel `bun:"table:comments,alias:c"`

	ID      int64  `bun:"id,pk,autoincrement"`
	ForumID int64  `bun:"forum_id,notnull"`
	UserID  int64  `bun:"user_id,notnull"`
	Body    string `bun:"body,notnull"`
	Upvotes int    `bun:"upvotes,notnull"`
}
