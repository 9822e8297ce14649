package app

import "fmt"

// DefaultPointsPerCorrectAnswer is the number of points a correct answer is worth.
const DefaultPointsPerCorrectAnswer = 5

// PointsPolicy decides how many points a committed attempt is worth.
// previous is the stored attempt before this submission, nil on the first one.
type PointsPolicy interface {
	Name() string
	Award(previous *PreviousAttempt, score int) int
}

// PreviousAttempt is the stored attempt state read under the result row lock.
type PreviousAttempt struct {
	MarksObtained int
	BestMarks     int
}

// PerSubmissionPolicy awards score×perCorrect on every submission with a
// positive score. Retaking a quiz therefore accumulates points.
type PerSubmissionPolicy struct {
	PerCorrect int
}

func (p PerSubmissionPolicy) Name() string { return PolicyPerSubmission }

func (p PerSubmissionPolicy) Award(_ *PreviousAttempt, score int) int {
	if score <= 0 {
		return 0
	}
	return score * p.PerCorrect
}

// BestScorePolicy awards only the improvement over the best stored score.
type BestScorePolicy struct {
	PerCorrect int
}

func (p BestScorePolicy) Name() string { return PolicyBestScore }

func (p BestScorePolicy) Award(previous *PreviousAttempt, score int) int {
	best := 0
	if previous != nil {
		best = previous.BestMarks
	}
	if score <= best {
		return 0
	}
	return (score - best) * p.PerCorrect
}

const (
	PolicyPerSubmission = "per_submission"
	PolicyBestScore     = "best_score"
)

// NewPointsPolicy resolves a policy by its configured name.
func NewPointsPolicy(name string, perCorrect int) (PointsPolicy, error) {
	if perCorrect <= 0 {
		perCorrect = DefaultPointsPerCorrectAnswer
	}
	switch name {
	case "", PolicyPerSubmission:
		return PerSubmissionPolicy{PerCorrect: perCorrect}, nil
	case PolicyBestScore:
		return BestScorePolicy{PerCorrect: perCorrect}, nil
	default:
		return nil, fmt.Errorf("unknown points policy %q", name)
	}
}
