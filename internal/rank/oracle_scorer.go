package rank

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/oracle"
)

const relevancePrompt = `Compare the following job description with the provided resume.
Evaluate how well the candidate's resume matches the job requirements.
Give a relevance score from 1 to 5, where:
1 = Very poor match
2 = Weak match
3 = Moderate match
4 = Strong match
5 = Excellent match

Return strictly JSON: { "score": number, "reasoning": "string" }

Job Description: %s
Resume: %s`

type OracleScorer struct {
	Oracle oracle.Completer
}

type relevanceResponse struct {
	Score     *float64 `json:"score"`
	Reasoning string   `json:"reasoning"`
}

func (s OracleScorer) Score(ctx context.Context, profile, snippet string) (domain.ScoreResult, error) {
	out, err := s.Oracle.Complete(ctx, oracle.Prompt{
		User: fmt.Sprintf(relevancePrompt, snippet, profile),
	})
	if err != nil {
		return domain.ScoreResult{}, err
	}
	return ParseRelevance(out)
}

// ParseRelevance decodes a relevance reply. Missing, fractional and
// out-of-range scores are rejected; they are never clamped.
func ParseRelevance(raw string) (domain.ScoreResult, error) {
	js, err := oracle.ExtractJSONObject(raw)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	var resp relevanceResponse
	if err := json.Unmarshal([]byte(js), &resp); err != nil {
		return domain.ScoreResult{}, fmt.Errorf("%w: %v", oracle.ErrMalformedResponse, err)
	}
	if resp.Score == nil {
		return domain.ScoreResult{}, fmt.Errorf("%w: missing score", oracle.ErrMalformedResponse)
	}
	if *resp.Score != math.Trunc(*resp.Score) {
		return domain.ScoreResult{}, fmt.Errorf("%w: non-integer score %v", domain.ErrInvalidScore, *resp.Score)
	}

	res := domain.ScoreResult{
		Score:     int(*resp.Score),
		Rationale: strings.TrimSpace(resp.Reasoning),
	}
	if err := domain.ValidateScore(res); err != nil {
		return domain.ScoreResult{}, err
	}
	return res, nil
}
