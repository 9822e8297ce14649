package app_test

import (
	"context"
	"errors"
	"testing"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"edu-quiz-service/internal/infra/sqlstore/sqlstoretest"
)

func TestGetResultBeforeAndAfterSubmission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.PolicyPerSubmission)
	sqlstoretest.SeedUser(t, env.store, 1)
	sqlstoretest.SeedQuiz(t, env.store, 1, 0, 1, 0)
	reviews := app.NewReviewService(env.store)

	before, err := reviews.GetResult(ctx, 1, 1)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if before.ResultFound || before.TotalQuestions != 3 {
		t.Fatalf("expected no result yet, got %+v", before)
	}

	res, err := env.service.Submit(ctx, domain.Submission{UserID: 1, QuizID: 1, Answers: sqlstoretest.Sheet(0, 1, 0)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 3 || res.TotalQuestions != 3 {
		t.Fatalf("unexpected submission result %+v", res)
	}

	after, err := reviews.GetResult(ctx, 1, 1)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if !after.ResultFound || after.Score != 3 || after.SubmittedAt == nil {
		t.Fatalf("expected stored result, got %+v", after)
	}
	if len(after.Questions) != 3 {
		t.Fatalf("expected 3 reviewed questions, got %d", len(after.Questions))
	}
	for i, q := range after.Questions {
		if q.SubmittedOption == nil || *q.SubmittedOption != q.CorrectOption {
			t.Fatalf("question %d: submitted %v, correct %d", i, q.SubmittedOption, q.CorrectOption)
		}
	}
}

func TestGetResultUnknownQuiz(t *testing.T) {
	env := newTestEnv(t, app.PolicyPerSubmission)
	_, err := app.NewReviewService(env.store).GetResult(context.Background(), 1, 9)
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
