package domain

import (
	"errors"
	"fmt"
)

const (
	MinScore = 1
	MaxScore = 5

	// QualificationThreshold is inclusive: a score of exactly 3 qualifies.
	QualificationThreshold = 3
)

var ErrInvalidScore = errors.New("invalid relevance score")

type ScoreResult struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

func (r ScoreResult) Valid() bool {
	return r.Score >= MinScore && r.Score <= MaxScore
}

// Qualifies reports whether the result clears the threshold. Invalid results
// never qualify.
func (r ScoreResult) Qualifies() bool {
	return r.Valid() && r.Score >= QualificationThreshold
}

func ValidateScore(r ScoreResult) error {
	if !r.Valid() {
		return fmt.Errorf("%w: %d outside [%d,%d]", ErrInvalidScore, r.Score, MinScore, MaxScore)
	}
	return nil
}
