package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			identity, timestamp, json := columnTypes(db)
			stmts := []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
					id %s,
					username VARCHAR(255) NOT NULL UNIQUE,
					points INTEGER NOT NULL DEFAULT 0
				)`, identity),
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS quizzes (
					id %s,
					title VARCHAR(255) NOT NULL
				)`, identity),
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS questions (
					id %s,
					quiz_id BIGINT NOT NULL REFERENCES quizzes (id) ON DELETE CASCADE,
					prompt TEXT NOT NULL,
					options %s NOT NULL,
					correct_option INTEGER NOT NULL
				)`, identity, json),
				`CREATE INDEX IF NOT EXISTS questions_quiz_id_idx ON questions (quiz_id, id)`,
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS submitted_answers (
					user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
					quiz_id BIGINT NOT NULL REFERENCES quizzes (id) ON DELETE CASCADE,
					question_id BIGINT NOT NULL REFERENCES questions (id) ON DELETE CASCADE,
					submitted_option INTEGER,
					submitted_at %s NOT NULL,
					PRIMARY KEY (user_id, quiz_id, question_id)
				)`, timestamp),
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS quiz_results (
					user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
					quiz_id BIGINT NOT NULL REFERENCES quizzes (id) ON DELETE CASCADE,
					marks_obtained INTEGER NOT NULL,
					best_marks INTEGER NOT NULL DEFAULT 0,
					submitted_at %s NOT NULL,
					PRIMARY KEY (user_id, quiz_id)
				)`, timestamp),
				`CREATE TABLE IF NOT EXISTS badges (
					id BIGINT PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					category VARCHAR(64) NOT NULL,
					tier VARCHAR(16) NOT NULL,
					threshold INTEGER NOT NULL
				)`,
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS user_badges (
					user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
					badge_id BIGINT NOT NULL REFERENCES badges (id),
					awarded_at %s NOT NULL,
					PRIMARY KEY (user_id, badge_id)
				)`, timestamp),
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS forums (
					id %s,
					user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
					title VARCHAR(255) NOT NULL
				)`, identity),
				`CREATE INDEX IF NOT EXISTS forums_user_id_idx ON forums (user_id)`,
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS comments (
					id %s,
					forum_id BIGINT NOT NULL REFERENCES forums (id) ON DELETE CASCADE,
					user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
					body TEXT NOT NULL,
					upvotes INTEGER NOT NULL DEFAULT 0
				)`, identity),
				`CREATE INDEX IF NOT EXISTS comments_user_id_idx ON comments (user_id)`,
			}
			for _, stmt := range stmts {
				if _, err := db.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			for _, table := range []string{"comments", "forums", "user_badges", "badges", "quiz_results", "submitted_answers", "questions", "quizzes", "users"} {
				if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
