package rank

import (
	"context"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/oracle"
)

// Scorer rates how well a posting snippet matches a candidate profile on a
// 1..5 scale.
type Scorer interface {
	Score(ctx context.Context, profile, snippet string) (domain.ScoreResult, error)
}

// New picks the scorer named by scoring.provider.
func New(cfg config.Config, o oracle.Completer) Scorer {
	if cfg.Scoring.Provider == config.ScoringKeywords {
		return KeywordScorer{Cfg: cfg}
	}
	return OracleScorer{Oracle: o}
}
