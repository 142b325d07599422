package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/pipeline"
	pipelinemocks "jobflow-engine/internal/pipeline/mocks"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

var profile = domain.Profile{Summary: "Backend engineer", Skills: "Go, Postgres"}

const profileText = "Backend engineer Go, Postgres"

// recorder captures everything a run emits.
type recorder struct {
	phases   []pipeline.Phase
	logs     []pipeline.LogEntry
	progress []domain.RunProgress
}

func (r *recorder) OnPhaseChange(p pipeline.Phase)  { r.phases = append(r.phases, p) }
func (r *recorder) OnLog(e pipeline.LogEntry)       { r.logs = append(r.logs, e) }
func (r *recorder) OnProgress(p domain.RunProgress) { r.progress = append(r.progress, p) }

func posting(company, title string) domain.Posting {
	return domain.Posting{
		Title:    title,
		Company:  company,
		Location: "Remote",
		Snippet:  title + " at " + company,
		Link:     "https://jobs.example/" + company,
	}
}

// fivePostings returns A..E; A and C are already tracked.
func fivePostings() ([]domain.Posting, []string) {
	ps := []domain.Posting{
		posting("Acme", "SRE"),
		posting("Bolt", "Go Engineer"),
		posting("Cask", "Platform Engineer"),
		posting("Dune", "Java Developer"),
		posting("Echo", "Staff Engineer"),
	}
	tracked := []string{ps[0].IdentityKey(), ps[2].IdentityKey(), "other::role"}
	return ps, tracked
}

func newOrchestrator(disc pipeline.Discoverer, sc pipeline.Scorer, dr pipeline.Drafter, st pipeline.TrackingStore) *pipeline.Orchestrator {
	n := 0
	return pipeline.New(pipeline.Deps{
		Discovery: disc,
		Scorer:    sc,
		Drafter:   dr,
		Store:     st,
		Now:       func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("auto-%d", n)
		},
		NewRunID: func() string { return "run-1" },
	})
}

func TestRunScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	sc := pipelinemocks.NewMockScorer(ctrl)
	dr := pipelinemocks.NewMockDrafter(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	ps, tracked := fivePostings()
	q := domain.Query{Keywords: "go", Location: "Remote"}

	var appended []domain.JobRecord
	gomock.InOrder(
		st.EXPECT().IdentityKeys(gomock.Any()).Return(tracked, nil),
		disc.EXPECT().Search(gomock.Any(), q.Normalized()).Return(ps, nil),
		sc.EXPECT().Score(gomock.Any(), profileText, ps[1].Snippet).Return(domain.ScoreResult{Score: 4, Rationale: "solid"}, nil),
		sc.EXPECT().Score(gomock.Any(), profileText, ps[3].Snippet).Return(domain.ScoreResult{Score: 2, Rationale: "wrong stack"}, nil),
		sc.EXPECT().Score(gomock.Any(), profileText, ps[4].Snippet).Return(domain.ScoreResult{Score: 5, Rationale: "great"}, nil),
		dr.EXPECT().Draft(gomock.Any(), domain.DraftRequest{Company: "Bolt", Role: "Go Engineer", Description: ps[1].Snippet, Skills: "Go, Postgres"}).Return("Dear Hiring Manager, Bolt", nil),
		st.EXPECT().AppendJob(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, rec domain.JobRecord) error {
			appended = append(appended, rec)
			return nil
		}),
		dr.EXPECT().Draft(gomock.Any(), gomock.Any()).Return("Dear Hiring Manager, Echo", nil),
		st.EXPECT().AppendJob(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, rec domain.JobRecord) error {
			appended = append(appended, rec)
			return nil
		}),
	)

	rec := &recorder{}
	rep, err := newOrchestrator(disc, sc, dr, st).Run(context.Background(), pipeline.Params{Query: q, Profile: profile, Observer: rec})
	require.NoError(t, err)

	assert.Equal(t, pipeline.PhaseDone, rep.Phase)
	assert.Equal(t, domain.RunProgress{Found: 5, Scored: 3, Qualified: 2, Drafted: 2}, rep.Progress)
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, []pipeline.Phase{
		pipeline.PhaseDiscovering,
		pipeline.PhaseDeduplicating,
		pipeline.PhaseScoringAndFiltering,
		pipeline.PhaseSynthesizing,
		pipeline.PhaseDone,
	}, rec.phases)

	require.Len(t, appended, 2)
	assert.Equal(t, appended, rep.Records)
	assert.Equal(t, domain.JobRecord{
		ID:          "auto-1",
		Company:     "Bolt",
		Role:        "Go Engineer",
		Location:    "Remote",
		Status:      domain.StatusDraft,
		CreatedDate: "2026-03-14",
		Description: ps[1].Snippet,
		CoverLetter: "Dear Hiring Manager, Bolt",
		ApplyLink:   "https://jobs.example/Bolt",
		Origin:      domain.OriginApplication,
	}, appended[0])
	assert.Equal(t, "Echo", appended[1].Company)

	// one entry per transition, the dedup summary, and one per item outcome
	assert.Len(t, rec.logs, 5+1+3+2)
	assert.Contains(t, rec.logs[2].Message, "Removed 2 duplicates")
	assert.Contains(t, rec.logs[len(rec.logs)-1].Message, "found=5 scored=3 qualified=2 drafted=2")

	assert.Equal(t, domain.RunProgress{}, rec.progress[0])
	assert.Equal(t, rep.Progress, rec.progress[len(rec.progress)-1])
}

func TestRunPartialSynthesisFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	sc := pipelinemocks.NewMockScorer(ctrl)
	dr := pipelinemocks.NewMockDrafter(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	ps, tracked := fivePostings()
	st.EXPECT().IdentityKeys(gomock.Any()).Return(tracked, nil)
	disc.EXPECT().Search(gomock.Any(), gomock.Any()).Return(ps, nil)
	sc.EXPECT().Score(gomock.Any(), gomock.Any(), ps[1].Snippet).Return(domain.ScoreResult{Score: 4}, nil)
	sc.EXPECT().Score(gomock.Any(), gomock.Any(), ps[3].Snippet).Return(domain.ScoreResult{Score: 2}, nil)
	sc.EXPECT().Score(gomock.Any(), gomock.Any(), ps[4].Snippet).Return(domain.ScoreResult{Score: 5}, nil)
	dr.EXPECT().Draft(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req domain.DraftRequest) (string, error) {
		if req.Company == "Echo" {
			return "", errors.New("oracle timeout")
		}
		return "Dear Hiring Manager,", nil
	}).Times(2)
	st.EXPECT().AppendJob(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	rec := &recorder{}
	rep, err := newOrchestrator(disc, sc, dr, st).Run(context.Background(), pipeline.Params{Profile: profile, Observer: rec})
	require.NoError(t, err)

	assert.Equal(t, pipeline.PhaseDone, rep.Phase)
	assert.Equal(t, domain.RunProgress{Found: 5, Scored: 3, Qualified: 2, Drafted: 1}, rep.Progress)
	require.Len(t, rep.Records, 1)
	assert.Equal(t, "Bolt", rep.Records[0].Company)

	var failed []pipeline.LogEntry
	for _, e := range rec.logs {
		if e.Level == pipeline.LevelWarn {
			failed = append(failed, e)
		}
	}
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Message, "Staff Engineer @ Echo")
	assert.Contains(t, failed[0].Message, "oracle timeout")
}

func TestRunDiscoveryFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	sc := pipelinemocks.NewMockScorer(ctrl)
	dr := pipelinemocks.NewMockDrafter(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	boom := errors.New("oracle unreachable")
	st.EXPECT().IdentityKeys(gomock.Any()).Return(nil, nil)
	disc.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, boom)
	// no Score, Draft or AppendJob expectations: any call fails the test

	rec := &recorder{}
	rep, err := newOrchestrator(disc, sc, dr, st).Run(context.Background(), pipeline.Params{Profile: profile, Observer: rec})

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrDiscovery)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, err, rep.Err)
	assert.Equal(t, pipeline.PhaseAborted, rep.Phase)
	assert.Equal(t, domain.RunProgress{}, rep.Progress)
	assert.Empty(t, rep.Records)
	assert.Equal(t, []pipeline.Phase{pipeline.PhaseDiscovering, pipeline.PhaseAborted}, rec.phases)

	last := rec.logs[len(rec.logs)-1]
	assert.Equal(t, pipeline.LevelError, last.Level)
	assert.Equal(t, pipeline.PhaseAborted, last.Phase)
	assert.Contains(t, last.Message, "oracle unreachable")

	var errorLines int
	for _, e := range rec.logs {
		if e.Level == pipeline.LevelError {
			errorLines++
		}
	}
	assert.Equal(t, 1, errorLines)
}

func TestRunSnapshotFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	st.EXPECT().IdentityKeys(gomock.Any()).Return(nil, errors.New("db locked"))

	rep, err := newOrchestrator(disc, nil, nil, st).Run(context.Background(), pipeline.Params{})
	assert.ErrorIs(t, err, pipeline.ErrSnapshot)
	assert.Equal(t, pipeline.PhaseAborted, rep.Phase)
	assert.Equal(t, domain.RunProgress{}, rep.Progress)
}

func TestRunBoundaryScoreQualifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	sc := pipelinemocks.NewMockScorer(ctrl)
	dr := pipelinemocks.NewMockDrafter(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	p := posting("Acme", "SRE")
	st.EXPECT().IdentityKeys(gomock.Any()).Return(nil, nil)
	disc.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.Posting{p}, nil)
	sc.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ScoreResult{Score: 3, Rationale: "moderate"}, nil)
	dr.EXPECT().Draft(gomock.Any(), gomock.Any()).Return("Dear Hiring Manager,", nil).Times(1)
	st.EXPECT().AppendJob(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	rep, err := newOrchestrator(disc, sc, dr, st).Run(context.Background(), pipeline.Params{Profile: profile})
	require.NoError(t, err)
	assert.Equal(t, domain.RunProgress{Found: 1, Scored: 1, Qualified: 1, Drafted: 1}, rep.Progress)
}

func TestRunInvalidScoresNeverQualify(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	sc := pipelinemocks.NewMockScorer(ctrl)
	dr := pipelinemocks.NewMockDrafter(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	ps := []domain.Posting{posting("A", "One"), posting("B", "Two"), posting("C", "Three")}
	st.EXPECT().IdentityKeys(gomock.Any()).Return(nil, nil)
	disc.EXPECT().Search(gomock.Any(), gomock.Any()).Return(ps, nil)
	gomock.InOrder(
		sc.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ScoreResult{Score: 7}, nil),
		sc.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ScoreResult{}, errors.New("malformed")),
		sc.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ScoreResult{Score: 0}, nil),
	)
	dr.EXPECT().Draft(gomock.Any(), gomock.Any()).Times(0)

	rec := &recorder{}
	rep, err := newOrchestrator(disc, sc, dr, st).Run(context.Background(), pipeline.Params{Observer: rec})
	require.NoError(t, err)
	assert.Equal(t, pipeline.PhaseDone, rep.Phase)
	assert.Equal(t, domain.RunProgress{Found: 3, Scored: 3}, rep.Progress)
	assert.NotContains(t, rec.phases, pipeline.PhaseSynthesizing)
	assert.Contains(t, rec.logs[4].Message, "invalid relevance score")
}

func TestRunEmptyDiscoveryFinishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	st.EXPECT().IdentityKeys(gomock.Any()).Return(nil, nil)
	disc.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, nil)

	rec := &recorder{}
	rep, err := newOrchestrator(disc, nil, nil, st).Run(context.Background(), pipeline.Params{Observer: rec})
	require.NoError(t, err)
	assert.Equal(t, pipeline.PhaseDone, rep.Phase)
	assert.Equal(t, domain.RunProgress{}, rep.Progress)
	assert.Equal(t, []pipeline.Phase{pipeline.PhaseDiscovering, pipeline.PhaseDeduplicating, pipeline.PhaseDone}, rec.phases)
}

func TestRunDropsRepeatsWithinBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	sc := pipelinemocks.NewMockScorer(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	a := posting("Acme", "SRE")
	again := posting(" ACME ", "sre ")
	st.EXPECT().IdentityKeys(gomock.Any()).Return(nil, nil)
	disc.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.Posting{a, again}, nil)
	sc.EXPECT().Score(gomock.Any(), gomock.Any(), a.Snippet).Return(domain.ScoreResult{Score: 1}, nil).Times(1)

	rep, err := newOrchestrator(disc, sc, nil, st).Run(context.Background(), pipeline.Params{})
	require.NoError(t, err)
	assert.Equal(t, domain.RunProgress{Found: 2, Scored: 1}, rep.Progress)
}

func TestRunCommitFailureIsSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	sc := pipelinemocks.NewMockScorer(ctrl)
	dr := pipelinemocks.NewMockDrafter(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	st.EXPECT().IdentityKeys(gomock.Any()).Return(nil, nil)
	disc.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.Posting{posting("Acme", "SRE")}, nil)
	sc.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ScoreResult{Score: 5}, nil)
	dr.EXPECT().Draft(gomock.Any(), gomock.Any()).Return("Dear Hiring Manager,", nil)
	st.EXPECT().AppendJob(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	rec := &recorder{}
	rep, err := newOrchestrator(disc, sc, dr, st).Run(context.Background(), pipeline.Params{Observer: rec})
	require.NoError(t, err)
	assert.Equal(t, domain.RunProgress{Found: 1, Scored: 1, Qualified: 1}, rep.Progress)
	assert.Empty(t, rep.Records)

	var sawCommit bool
	for _, e := range rec.logs {
		if e.Level == pipeline.LevelWarn {
			assert.Contains(t, e.Message, pipeline.ErrCommit.Error())
			sawCommit = true
		}
	}
	assert.True(t, sawCommit)
}

func TestRunWhitespaceDraftIsAFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	disc := pipelinemocks.NewMockDiscoverer(ctrl)
	sc := pipelinemocks.NewMockScorer(ctrl)
	dr := pipelinemocks.NewMockDrafter(ctrl)
	st := pipelinemocks.NewMockTrackingStore(ctrl)

	st.EXPECT().IdentityKeys(gomock.Any()).Return(nil, nil)
	disc.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.Posting{posting("Acme", "SRE")}, nil)
	sc.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ScoreResult{Score: 4}, nil)
	dr.EXPECT().Draft(gomock.Any(), gomock.Any()).Return("   \n", nil)
	st.EXPECT().AppendJob(gomock.Any(), gomock.Any()).Times(0)

	rep, err := newOrchestrator(disc, sc, dr, st).Run(context.Background(), pipeline.Params{})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Progress.Drafted)
}

// ── fakes for the idempotence check ──

type memStore struct {
	mu   sync.Mutex
	recs []domain.JobRecord
}

func (s *memStore) IdentityKeys(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.recs))
	for _, r := range s.recs {
		keys = append(keys, r.IdentityKey())
	}
	return keys, nil
}

func (s *memStore) AppendJob(_ context.Context, rec domain.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.IdentityKey() == rec.IdentityKey() {
			return errors.New("duplicate")
		}
	}
	s.recs = append(s.recs, rec)
	return nil
}

type fixedDiscovery []domain.Posting

func (f fixedDiscovery) Search(context.Context, domain.Query) ([]domain.Posting, error) {
	return f, nil
}

type scoreBySnippet map[string]int

func (s scoreBySnippet) Score(_ context.Context, _, snippet string) (domain.ScoreResult, error) {
	return domain.ScoreResult{Score: s[snippet], Rationale: "table"}, nil
}

type letterDrafter struct{ calls int }

func (d *letterDrafter) Draft(_ context.Context, req domain.DraftRequest) (string, error) {
	d.calls++
	return "Dear Hiring Manager, " + req.Company, nil
}

func TestRunIsIdempotent(t *testing.T) {
	ps, _ := fivePostings()
	scores := scoreBySnippet{}
	for i, s := range []int{4, 4, 2, 2, 5} {
		scores[ps[i].Snippet] = s
	}
	store := &memStore{}
	drafter := &letterDrafter{}
	o := newOrchestrator(fixedDiscovery(ps), scores, drafter, store)

	first, err := o.Run(context.Background(), pipeline.Params{Profile: profile})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Progress.Drafted)
	require.Len(t, store.recs, 3)

	second, err := o.Run(context.Background(), pipeline.Params{Profile: profile})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Progress.Qualified)
	assert.Equal(t, 0, second.Progress.Drafted)
	assert.Len(t, store.recs, 3)
	assert.Equal(t, 3, drafter.calls)
	assert.LessOrEqual(t, second.Progress.Scored, second.Progress.Found-3)
}

func TestRunProgressIsMonotonic(t *testing.T) {
	ps, _ := fivePostings()
	scores := scoreBySnippet{}
	for i, s := range []int{1, 3, 5, 2, 4} {
		scores[ps[i].Snippet] = s
	}
	rec := &recorder{}
	_, err := newOrchestrator(fixedDiscovery(ps), scores, &letterDrafter{}, &memStore{}).
		Run(context.Background(), pipeline.Params{Observer: rec})
	require.NoError(t, err)

	for i := 1; i < len(rec.progress); i++ {
		prev, cur := rec.progress[i-1], rec.progress[i]
		assert.GreaterOrEqual(t, cur.Found, prev.Found)
		assert.GreaterOrEqual(t, cur.Scored, prev.Scored)
		assert.GreaterOrEqual(t, cur.Qualified, prev.Qualified)
		assert.GreaterOrEqual(t, cur.Drafted, prev.Drafted)
		assert.LessOrEqual(t, cur.Drafted, cur.Qualified)
		assert.LessOrEqual(t, cur.Qualified, cur.Scored)
	}
}
