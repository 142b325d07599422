package rank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/oracle"
)

type completerFunc func(ctx context.Context, p oracle.Prompt) (string, error)

func (f completerFunc) Complete(ctx context.Context, p oracle.Prompt) (string, error) {
	return f(ctx, p)
}

func TestParseRelevance(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    domain.ScoreResult
		wantErr error
	}{
		{name: "plain", raw: `{"score": 4, "reasoning": "good fit"}`, want: domain.ScoreResult{Score: 4, Rationale: "good fit"}},
		{name: "fenced", raw: "```json\n{\"score\": 3, \"reasoning\": \" ok \"}\n```", want: domain.ScoreResult{Score: 3, Rationale: "ok"}},
		{name: "integral float", raw: `{"score": 5.0, "reasoning": "x"}`, want: domain.ScoreResult{Score: 5, Rationale: "x"}},
		{name: "fraction", raw: `{"score": 3.5, "reasoning": "x"}`, wantErr: domain.ErrInvalidScore},
		{name: "too high", raw: `{"score": 6, "reasoning": "x"}`, wantErr: domain.ErrInvalidScore},
		{name: "zero", raw: `{"score": 0, "reasoning": "x"}`, wantErr: domain.ErrInvalidScore},
		{name: "missing score", raw: `{"reasoning": "x"}`, wantErr: oracle.ErrMalformedResponse},
		{name: "string score", raw: `{"score": "4"}`, wantErr: oracle.ErrMalformedResponse},
		{name: "prose", raw: `I think it is a 4`, wantErr: oracle.ErrMalformedResponse},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRelevance(tc.raw)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOracleScorerPrompt(t *testing.T) {
	var got oracle.Prompt
	s := OracleScorer{Oracle: completerFunc(func(_ context.Context, p oracle.Prompt) (string, error) {
		got = p
		return `{"score": 2, "reasoning": "weak"}`, nil
	})}

	res, err := s.Score(context.Background(), "Go engineer", "Java role")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.False(t, res.Qualifies())
	assert.Contains(t, got.User, "Job Description: Java role")
	assert.Contains(t, got.User, "Resume: Go engineer")
}

func TestOracleScorerPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	s := OracleScorer{Oracle: completerFunc(func(context.Context, oracle.Prompt) (string, error) {
		return "", boom
	})}
	_, err := s.Score(context.Background(), "p", "s")
	assert.ErrorIs(t, err, boom)
}

func keywordCfg() config.Config {
	var cfg config.Config
	cfg.Scoring.Provider = config.ScoringKeywords
	cfg.Scoring.Bands = []int{2, 4, 6, 9}
	cfg.Scoring.TitleRules = []config.Rule{{Tag: "backend", Weight: 2, Any: []string{"backend"}}}
	cfg.Scoring.KeywordRules = []config.Rule{{Tag: "cloud", Weight: 2, Any: []string{"aws", "kubernetes"}}}
	cfg.Scoring.Penalties = []config.Penalty{{Reason: "clearance", Weight: -5, Any: []string{"clearance"}}}
	return cfg
}

func TestKeywordScorer(t *testing.T) {
	testCases := []struct {
		name    string
		profile string
		snippet string
		want    int
	}{
		{name: "nothing matches", profile: "", snippet: "Retail associate", want: 1},
		{name: "one rule", profile: "", snippet: "Backend developer", want: 2},
		{name: "rules and skills", profile: "postgres, grpc", snippet: "Backend on AWS with Postgres and gRPC", want: 4},
		{name: "penalty", profile: "", snippet: "Backend on AWS, clearance required", want: 1},
		{name: "caps at five", profile: "go, sql, redis, kafka, grpc", snippet: "backend aws go sql redis kafka grpc", want: 5},
	}

	s := KeywordScorer{Cfg: keywordCfg()}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := s.Score(context.Background(), tc.profile, tc.snippet)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Score)
			assert.True(t, res.Valid())
			assert.NotEmpty(t, res.Rationale)
		})
	}
}

func TestBucket(t *testing.T) {
	bands := []int{2, 4, 6, 9}
	assert.Equal(t, 1, bucket(-3, bands))
	assert.Equal(t, 1, bucket(1, bands))
	assert.Equal(t, 2, bucket(2, bands))
	assert.Equal(t, 3, bucket(4, bands))
	assert.Equal(t, 4, bucket(8, bands))
	assert.Equal(t, 5, bucket(100, bands))
	assert.Equal(t, 1, bucket(100, nil))
}

func TestNewPicksProvider(t *testing.T) {
	cfg := keywordCfg()
	_, ok := New(cfg, nil).(KeywordScorer)
	assert.True(t, ok)

	cfg.Scoring.Provider = config.ScoringLLM
	_, ok = New(cfg, nil).(OracleScorer)
	assert.True(t, ok)
}
