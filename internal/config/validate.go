package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

var knownSources = map[string]bool{
	SourceLLM:        true,
	SourceAdzuna:     true,
	SourceGreenhouse: true,
	SourceLever:      true,
	SourceSmartRec:   true,
	SourceWorkday:    true,
}

// NormalizeAndValidate returns a normalized copy of cfg plus everything wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	sources := trimList(out.Discovery.Sources)
	for i := range sources {
		sources[i] = strings.ToLower(sources[i])
	}
	out.Discovery.Sources = sources
	out.Oracle.BaseURL = strings.TrimSpace(out.Oracle.BaseURL)
	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))
	out.Scoring.Provider = strings.ToLower(strings.TrimSpace(out.Scoring.Provider))

	// ---- Validation rules ----

	if len(out.Discovery.Sources) == 0 {
		res.addErr("discovery.sources must name at least one source")
	}
	for _, s := range out.Discovery.Sources {
		if !knownSources[s] {
			res.addErr("discovery.sources: unknown source %q", s)
		}
	}
	if out.Discovery.MaxResults <= 0 {
		res.addErr("discovery.max_results must be > 0")
	} else if out.Discovery.MaxResults > 50 {
		res.addWarn("discovery.max_results is %d; every posting costs one scoring call.", out.Discovery.MaxResults)
	}

	for _, s := range out.Discovery.Sources {
		if s == SourceAdzuna {
			if strings.TrimSpace(out.Discovery.Adzuna.AppID) == "" || strings.TrimSpace(out.Discovery.Adzuna.AppKey) == "" {
				res.addErr("discovery.adzuna.app_id and app_key are required when the adzuna source is enabled")
			}
		}
		if b := out.boards(s); b != nil && len(b.Companies) == 0 {
			res.addWarn("%s source is enabled but discovery.%s.companies is empty.", s, s)
		}
	}
	for i, c := range out.Discovery.Workday.Companies {
		if u, err := url.Parse(strings.TrimSpace(c.Slug)); err != nil || u.Host == "" {
			res.addErr("discovery.workday.companies[%d].slug must be the board URL", i)
		}
	}
	// Cover letters always need the oracle.
	if strings.TrimSpace(out.Oracle.Model) == "" {
		res.addErr("oracle.model is required")
	}
	if out.Oracle.TimeoutSeconds <= 0 {
		res.addErr("oracle.timeout_seconds must be > 0")
	}
	if out.Oracle.RequestsPerSecond <= 0 {
		res.addErr("oracle.requests_per_second must be > 0")
	}

	switch out.Scoring.Provider {
	case ScoringLLM, ScoringKeywords:
	default:
		res.addErr("scoring.provider must be %q or %q", ScoringLLM, ScoringKeywords)
	}
	if out.Scoring.Provider == ScoringKeywords {
		if len(out.Scoring.Bands) != 4 {
			res.addErr("scoring.bands must have exactly 4 thresholds (scores 2..5)")
		} else {
			for i := 1; i < len(out.Scoring.Bands); i++ {
				if out.Scoring.Bands[i] <= out.Scoring.Bands[i-1] {
					res.addErr("scoring.bands must be strictly increasing")
					break
				}
			}
		}
		if len(out.Scoring.TitleRules) == 0 && len(out.Scoring.KeywordRules) == 0 && strings.TrimSpace(out.Profile.Skills) == "" {
			res.addWarn("keyword scoring has no rules and no profile skills; every posting will score 1.")
		}
	}

	switch out.Store.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(out.Store.DatabaseURL) == "" {
			res.addErr("store.database_url is required when store.driver=postgres")
		}
	default:
		res.addErr("store.driver must be %q or %q", DriverSQLite, DriverPostgres)
	}

	if out.Pipeline.LogCapacity <= 0 {
		res.addErr("pipeline.log_capacity must be > 0")
	}
	if strings.TrimSpace(out.Profile.Summary) == "" && strings.TrimSpace(out.Profile.Skills) == "" {
		res.addWarn("profile is empty; relevance scores will be meaningless.")
	}

	return out, res
}
