// Package pipeline runs one automated application pass: discover, drop
// already-tracked postings, score, filter, draft cover letters and commit the
// results as Draft job records.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"jobflow-engine/internal/domain"
)

const (
	recordIDPrefix     = "auto-"
	defaultDescription = "Found via automated search."
	maxRationaleRunes  = 80
)

type Deps struct {
	Discovery Discoverer
	Scorer    Scorer
	Drafter   Drafter
	Store     TrackingStore

	// Optional; tests pin these.
	Now      func() time.Time
	NewID    func() string
	NewRunID func() string
}

type Orchestrator struct {
	d Deps
}

func New(d Deps) *Orchestrator {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = func() string { return recordIDPrefix + uuid.NewString() }
	}
	if d.NewRunID == nil {
		d.NewRunID = shortuuid.New
	}
	return &Orchestrator{d: d}
}

type Params struct {
	Query    domain.Query
	Profile  domain.Profile
	Observer Observer
	// RunID is generated when empty.
	RunID string
}

type Report struct {
	RunID      string             `json:"run_id"`
	Query      domain.Query       `json:"query"`
	Phase      Phase              `json:"phase"`
	Progress   domain.RunProgress `json:"progress"`
	Records    []domain.JobRecord `json:"records,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Err        error              `json:"-"`
}

type scoredPosting struct {
	posting domain.Posting
	result  domain.ScoreResult
}

// run holds the mutable state of one pass. Only the goroutine inside Run
// touches it.
type run struct {
	o        *Orchestrator
	id       string
	query    domain.Query
	profile  domain.Profile
	obs      Observer
	phase    Phase
	progress domain.RunProgress
}

// Run executes one pass to Done or Aborted. Postings are handled one at a
// time in discovery order. Only a discovery (or snapshot) failure is returned
// as an error; per-posting failures are logged and skipped.
func (o *Orchestrator) Run(ctx context.Context, p Params) (Report, error) {
	r := &run{
		o:       o,
		id:      p.RunID,
		query:   p.Query.Normalized(),
		profile: p.Profile,
		obs:     p.Observer,
		phase:   PhaseIdle,
	}
	if r.id == "" {
		r.id = o.d.NewRunID()
	}
	if r.obs == nil {
		r.obs = ObserverFuncs{}
	}

	rep := Report{RunID: r.id, Query: r.query, StartedAt: o.d.Now()}
	r.obs.OnProgress(r.progress)

	// ── Discovering ──
	r.transition(PhaseDiscovering, LevelInfo, "Searching for %q in %q (%s)...", r.query.Keywords, r.query.Location, r.query.Domain)

	keys, err := o.d.Store.IdentityKeys(ctx)
	if err != nil {
		return r.abort(rep, fmt.Errorf("%w: %w", ErrSnapshot, err))
	}
	index := NewDedupIndex(keys)

	postings, err := o.d.Discovery.Search(ctx, r.query)
	if err != nil {
		return r.abort(rep, fmt.Errorf("%w: %w", ErrDiscovery, err))
	}
	r.setProgress(r.progress.WithFound(len(postings)))

	// ── Deduplicating ──
	r.transition(PhaseDeduplicating, LevelInfo, "Found %d postings; checking against %d tracked jobs", len(postings), index.Len())
	unique, tracked, repeated := dedupe(postings, index)
	r.logf(LevelInfo, "Removed %d duplicates (%d already tracked, %d repeated in results); %d unique", tracked+repeated, tracked, repeated, len(unique))
	if len(unique) == 0 {
		return r.finish(rep, nil, "No new postings to score.")
	}

	// ── ScoringAndFiltering ──
	r.transition(PhaseScoringAndFiltering, LevelInfo, "Scoring %d postings for relevance", len(unique))
	qualified := r.score(ctx, unique)
	if len(qualified) == 0 {
		return r.finish(rep, nil, "No postings cleared the relevance threshold.")
	}

	// ── Synthesizing ──
	r.transition(PhaseSynthesizing, LevelInfo, "Drafting cover letters for %d qualified postings", len(qualified))
	records := r.synthesize(ctx, qualified)

	return r.finish(rep, records, "")
}

// dedupe drops postings already in the snapshot and postings whose key
// repeats an earlier one in the same batch. Order is preserved.
func dedupe(postings []domain.Posting, index *DedupIndex) (unique []domain.Posting, tracked, repeated int) {
	seen := make(map[string]struct{}, len(postings))
	for _, p := range postings {
		key := p.IdentityKey()
		if index.Exists(key) {
			tracked++
			continue
		}
		if _, dup := seen[key]; dup {
			repeated++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}
	return unique, tracked, repeated
}

func (r *run) score(ctx context.Context, postings []domain.Posting) []scoredPosting {
	profileText := r.profile.ScoringText()

	var qualified []scoredPosting
	for _, p := range postings {
		snippet := p.Snippet
		if strings.TrimSpace(snippet) == "" {
			snippet = p.Title
		}

		res, err := r.o.d.Scorer.Score(ctx, profileText, snippet)
		r.setProgress(r.progress.IncScored())
		if err == nil {
			err = domain.ValidateScore(res)
		}
		if err != nil {
			r.logf(LevelWarn, "Rejected %s: %v", describe(p), fmt.Errorf("%w: %w", ErrScoring, err))
			continue
		}

		if !res.Qualifies() {
			r.logf(LevelInfo, "Rejected %s: score %d/5. %s", describe(p), res.Score, shorten(res.Rationale))
			continue
		}
		qualified = append(qualified, scoredPosting{posting: p, result: res})
		r.setProgress(r.progress.IncQualified())
		r.logf(LevelInfo, "Qualified %s: score %d/5. %s", describe(p), res.Score, shorten(res.Rationale))
	}
	return qualified
}

func (r *run) synthesize(ctx context.Context, qualified []scoredPosting) []domain.JobRecord {
	skills := r.profile.DraftSkills()

	var records []domain.JobRecord
	for _, sp := range qualified {
		p := sp.posting

		letter, err := r.o.d.Drafter.Draft(ctx, domain.DraftRequest{
			Company:     p.Company,
			Role:        p.Title,
			Description: p.Snippet,
			Skills:      skills,
		})
		if err == nil && strings.TrimSpace(letter) == "" {
			err = fmt.Errorf("empty cover letter")
		}
		if err != nil {
			r.logf(LevelWarn, "Qualified but draft failed for %s: %v", describe(p), fmt.Errorf("%w: %w", ErrSynthesis, err))
			continue
		}

		rec := r.newRecord(p, letter)
		if err := r.o.d.Store.AppendJob(ctx, rec); err != nil {
			r.logf(LevelWarn, "Drafted but not saved %s: %v", describe(p), fmt.Errorf("%w: %w", ErrCommit, err))
			continue
		}
		records = append(records, rec)
		r.setProgress(r.progress.IncDrafted())
		r.logf(LevelInfo, "Saved %s as %s (id=%s)", describe(p), rec.Status, rec.ID)
	}
	return records
}

func (r *run) newRecord(p domain.Posting, letter string) domain.JobRecord {
	loc := strings.TrimSpace(p.Location)
	if loc == "" {
		loc = r.query.Location
	}
	desc := strings.TrimSpace(p.Snippet)
	if desc == "" {
		desc = defaultDescription
	}
	return domain.JobRecord{
		ID:          r.o.d.NewID(),
		Company:     p.Company,
		Role:        p.Title,
		Location:    loc,
		Status:      domain.StatusDraft,
		CreatedDate: r.o.d.Now().Format("2006-01-02"),
		Description: desc,
		CoverLetter: strings.TrimSpace(letter),
		ApplyLink:   p.Link,
		Origin:      domain.OriginApplication,
	}
}

func (r *run) finish(rep Report, records []domain.JobRecord, reason string) (Report, error) {
	msg := "Run complete: " + r.progress.String()
	if reason != "" {
		msg = reason + " " + msg
	}
	r.transition(PhaseDone, LevelInfo, "%s", msg)

	rep.Phase = r.phase
	rep.Progress = r.progress
	rep.Records = records
	rep.FinishedAt = r.o.d.Now()
	return rep, nil
}

func (r *run) abort(rep Report, err error) (Report, error) {
	r.transition(PhaseAborted, LevelError, "Run aborted: %v", err)

	rep.Phase = r.phase
	rep.Progress = r.progress
	rep.FinishedAt = r.o.d.Now()
	rep.Err = err
	return rep, err
}

// transition moves to the next phase and writes that phase's single log line.
func (r *run) transition(to Phase, level LogLevel, format string, args ...any) {
	if err := ValidateTransition(r.phase, to); err != nil {
		// Transitions are fixed in Run; reaching this is a bug.
		panic("pipeline: " + err.Error())
	}
	r.phase = to
	r.obs.OnPhaseChange(to)
	r.logf(level, format, args...)
}

func (r *run) logf(level LogLevel, format string, args ...any) {
	e := LogEntry{
		At:      r.o.d.Now(),
		Phase:   r.phase,
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	}
	log.Printf("[pipeline] run=%s phase=%s level=%s msg=%q", r.id, e.Phase, e.Level, e.Message)
	r.obs.OnLog(e)
}

func (r *run) setProgress(p domain.RunProgress) {
	r.progress = p
	r.obs.OnProgress(p)
}

func describe(p domain.Posting) string {
	return fmt.Sprintf("%s @ %s", p.Title, p.Company)
}

func shorten(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	rs := []rune(s)
	if len(rs) <= maxRationaleRunes {
		return s
	}
	return string(rs[:maxRationaleRunes]) + "..."
}
