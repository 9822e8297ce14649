package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound is returned when a quiz does not exist or has no questions.
	ErrQuizNotFound = errors.New("quiz not found or has no questions")
	// ErrUserNotFound is returned when the aggregate row of a user is missing.
	ErrUserNotFound = errors.New("user not found")
	// ErrValidation marks request problems that are detected before any write.
	ErrValidation = errors.New("invalid submission")
	// ErrInvalidAnswerFormat is returned when the answers field is not an array.
	ErrInvalidAnswerFormat = fmt.Errorf("%w: answers must be an array of option indexes or nulls", ErrValidation)
)

// AnswerCountError reports a submission whose length differs from the answer key.
type AnswerCountError struct {
	Expected int
	Got      int
}

func (e *AnswerCountError) Error() string {
	return fmt.Sprintf("expected %d answers, got %d", e.Expected, e.Got)
}

func (e *AnswerCountError) Unwrap() error {
	return ErrValidation
}
