package app

import (
	"context"

	"edu-quiz-service/internal/domain"
)

// ResultReader serves the read side of quiz attempts.
type ResultReader interface {
	// GetResult returns nil when the user has no attempt for the quiz.
	GetResult(ctx context.Context, userID, quizID int64) (*domain.AttemptResult, error)
	// ReviewQuestions lists the quiz questions by id ascending with the user's answers attached.
	ReviewQuestions(ctx context.Context, userID, quizID int64) ([]domain.ReviewQuestion, error)
}

// ReviewService builds the result review of a user's attempt.
type ReviewService struct {
	reader ResultReader
}

func NewReviewService(reader ResultReader) *ReviewService {
	return &ReviewService{reader: reader}
}

// GetResult reports whether an attempt exists and, if so, its score and the
// questions with the submitted answers.
func (s *ReviewService) GetResult(ctx context.Context, userID, quizID int64) (domain.ResultReview, error) {
	questions, err := s.reader.ReviewQuestions(ctx, userID, quizID)
	if err != nil {
		return domain.ResultReview{}, err
	}
	if len(questions) == 0 {
		return domain.ResultReview{}, domain.ErrQuizNotFound
	}

	result, err := s.reader.GetResult(ctx, userID, quizID)
	if err != nil {
		return domain.ResultReview{}, err
	}
	if result == nil {
		return domain.ResultReview{ResultFound: false, TotalQuestions: len(questions)}, nil
	}

	submittedAt := result.SubmittedAt
	return domain.ResultReview{
		ResultFound:    true,
		Score:          result.MarksObtained,
		BestScore:      result.BestMarks,
		TotalQuestions: len(questions),
		SubmittedAt:    &submittedAt,
		Questions:      questions,
	}, nil
}
