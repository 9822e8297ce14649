package domain

import "time"

// AnswerKeyEntry is the correct option of a single question.
type AnswerKeyEntry struct {
	QuestionID    int64 `json:"questionId"`
	CorrectOption int   `json:"correctOption"`
}

// AnswerKey is the ordered answer key of a quiz. Entries are sorted by
// QuestionID ascending, and answers[i] of a submission is scored against
// entry i.
type AnswerKey struct {
	QuizID  int64            `json:"quizId"`
	Entries []AnswerKeyEntry `json:"entries"`
}

// Len returns the number of questions in the key.
func (k AnswerKey) Len() int {
	return len(k.Entries)
}

// Equal reports whether both keys list the same questions with the same answers.
func (k AnswerKey) Equal(other AnswerKey) bool {
	if k.QuizID != other.QuizID || len(k.Entries) != len(other.Entries) {
		return false
	}
	for i := range k.Entries {
		if k.Entries[i] != other.Entries[i] {
			return false
		}
	}
	return true
}

// Score counts the positions where the submitted option equals the correct one.
// Unanswered positions never match.
func (k AnswerKey) Score(answers AnswerSheet) int {
	score := 0
	for i, entry := range k.Entries {
		if i >= len(answers) {
			break
		}
		if answers[i] != nil && *answers[i] == entry.CorrectOption {
			score++
		}
	}
	return score
}

// SubmittedAnswer is the stored answer of one user to one question of a quiz.
type SubmittedAnswer struct {
	UserID          int64
	QuizID          int64
	QuestionID      int64
	SubmittedOption *int
	SubmittedAt     time.Time
}

// AttemptResult is the single scored attempt of a user for a quiz.
type AttemptResult struct {
	UserID        int64     `json:"userId"`
	QuizID        int64     `json:"quizId"`
	MarksObtained int       `json:"marksObtained"`
	BestMarks     int       `json:"bestMarks"`
	SubmittedAt   time.Time `json:"submissionTime"`
}

// Submission is the validated input of a quiz submission.
type Submission struct {
	UserID  int64
	QuizID  int64
	Answers AnswerSheet
}

// SubmissionResult is returned to the caller once the attempt is committed.
type SubmissionResult struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
	PointsAwarded  int `json:"pointsAwarded"`
}

// ReviewQuestion is a question of a quiz with the user's stored answer attached.
type ReviewQuestion struct {
	ID              int64    `json:"id"`
	Prompt          string   `json:"prompt"`
	Options         []string `json:"options"`
	CorrectOption   int      `json:"correctOption"`
	SubmittedOption *int     `json:"submittedOption"`
}

// ResultReview is the read model behind the result endpoint.
type ResultReview struct {
	ResultFound    bool             `json:"resultFound"`
	Score          int              `json:"score"`
	BestScore      int              `json:"bestScore"`
	TotalQuestions int              `json:"totalQuestions"`
	SubmittedAt    *time.Time       `json:"submissionTime,omitempty"`
	Questions      []ReviewQuestion `json:"questions,omitempty"`
}
