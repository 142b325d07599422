// engine/internal/rank/yaml_scorer.go
package rank

import (
	"context"
	"fmt"
	"strings"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
)

// KeywordScorer scores offline from the configured rules plus the profile's
// skill terms. The raw total is bucketed into 1..5 by scoring.bands.
type KeywordScorer struct {
	Cfg config.Config
}

func (s KeywordScorer) Score(_ context.Context, profile, snippet string) (domain.ScoreResult, error) {
	text := " " + strings.ToLower(snippet) + " "

	raw := 0
	var tags []string

	applyRules := func(rules []config.Rule) {
		for _, r := range rules {
			for _, needle := range r.Any {
				n := strings.ToLower(needle)
				if strings.Contains(text, n) {
					raw += r.Weight
					tags = append(tags, r.Tag)
					break
				}
			}
		}
	}

	applyRules(s.Cfg.Scoring.TitleRules)
	applyRules(s.Cfg.Scoring.KeywordRules)

	for _, term := range skillTerms(profile) {
		if strings.Contains(text, term) {
			raw++
			tags = append(tags, term)
		}
	}

	var penalties []string
	for _, p := range s.Cfg.Scoring.Penalties {
		for _, needle := range p.Any {
			n := strings.ToLower(needle)
			if strings.Contains(text, n) {
				raw += p.Weight
				penalties = append(penalties, p.Reason)
				break
			}
		}
	}

	res := domain.ScoreResult{
		Score:     bucket(raw, s.Cfg.Scoring.Bands),
		Rationale: rationale(raw, uniq(tags), penalties),
	}
	return res, nil
}

// bucket maps a raw total onto 1..5; bands hold the minimum totals for 2..5.
func bucket(raw int, bands []int) int {
	score := domain.MinScore
	for i, b := range bands {
		if i+2 > domain.MaxScore {
			break
		}
		if raw >= b {
			score = i + 2
		}
	}
	return score
}

// skillTerms splits a free-text skills line on commas, semicolons and newlines.
func skillTerms(profile string) []string {
	fields := strings.FieldsFunc(strings.ToLower(profile), func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '|'
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		// Single letters ("c", "r") match nearly everything.
		if len(f) < 2 {
			continue
		}
		out = append(out, f)
	}
	return uniq(out)
}

func rationale(raw int, tags, penalties []string) string {
	var b strings.Builder
	if len(tags) == 0 {
		b.WriteString("no matching keywords")
	} else {
		b.WriteString("matched " + strings.Join(tags, ", "))
	}
	if len(penalties) > 0 {
		b.WriteString("; penalized for " + strings.Join(penalties, ", "))
	}
	fmt.Fprintf(&b, " (raw=%d)", raw)
	return b.String()
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
