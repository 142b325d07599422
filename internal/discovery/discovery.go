// Package discovery turns one search query into a finite batch of postings,
// fanning out over the configured sources.
package discovery

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/oracle"
)

const (
	defaultTitle   = "Job Opportunity"
	unknownCompany = "Unknown Company"
	httpTimeout    = 20 * time.Second
	userAgent      = "JobFlow/1.0 (+local)"
)

// Source is one place postings come from. limit is a hint; the client caps
// the merged batch anyway.
type Source interface {
	Name() string
	Search(ctx context.Context, q domain.Query, limit int) ([]domain.Posting, error)
}

type Client struct {
	sources    []Source
	maxResults int
}

func NewClient(maxResults int, sources ...Source) *Client {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Client{sources: sources, maxResults: maxResults}
}

// FromConfig builds a client with the sources listed in discovery.sources,
// in that order.
func FromConfig(cfg config.Config, o oracle.Completer) (*Client, error) {
	hc := &http.Client{Timeout: httpTimeout}
	lim := NewHostLimiter(2, 2)

	var sources []Source
	for _, name := range cfg.Discovery.Sources {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case config.SourceLLM:
			sources = append(sources, &LLMSource{Oracle: o, Model: cfg.Oracle.DiscoveryModel})
		case config.SourceAdzuna:
			a := cfg.Discovery.Adzuna
			sources = append(sources, &AdzunaSource{
				BaseURL: a.BaseURL,
				AppID:   a.AppID,
				AppKey:  a.AppKey,
				Country: a.Country,
				Client:  hc,
				Limiter: lim,
			})
		case config.SourceGreenhouse:
			g := cfg.Discovery.Greenhouse
			sources = append(sources, &GreenhouseSource{
				BaseURL:   g.BaseURL,
				Companies: cleanCompanies(g.Companies),
				Client:    hc,
				Limiter:   lim,
			})
		case config.SourceLever:
			l := cfg.Discovery.Lever
			sources = append(sources, &LeverSource{
				BaseURL:   l.BaseURL,
				Companies: cleanCompanies(l.Companies),
				Client:    hc,
				Limiter:   lim,
			})
		case config.SourceSmartRec:
			sr := cfg.Discovery.SmartRecruiters
			sources = append(sources, &SmartRecruitersSource{
				BaseURL:   sr.BaseURL,
				Companies: cleanCompanies(sr.Companies),
				Client:    hc,
				Limiter:   lim,
			})
		case config.SourceWorkday:
			sources = append(sources, &WorkdaySource{
				Companies: cleanCompanies(cfg.Discovery.Workday.Companies),
				Client:    hc,
				Limiter:   lim,
			})
		default:
			return nil, fmt.Errorf("discovery: unknown source %q", name)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("discovery: no sources configured")
	}
	return NewClient(cfg.Discovery.MaxResults, sources...), nil
}

// Search runs every source concurrently. Any source failure fails the whole
// search. Results keep source order so a run is reproducible.
func (c *Client) Search(ctx context.Context, q domain.Query) ([]domain.Posting, error) {
	q = q.Normalized()
	batches := make([][]domain.Posting, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			start := time.Now()
			ps, err := src.Search(gctx, q, c.maxResults)
			if err != nil {
				log.Printf("[discovery:%s] search failed after %s: %v", src.Name(), time.Since(start).Round(time.Millisecond), err)
				return fmt.Errorf("%s: %w", src.Name(), err)
			}
			for j := range ps {
				if ps[j].Source == "" {
					ps[j].Source = src.Name()
				}
			}
			batches[i] = ps
			log.Printf("[discovery:%s] found=%d took=%s", src.Name(), len(ps), time.Since(start).Round(time.Millisecond))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Posting
	for _, b := range batches {
		for _, p := range b {
			if len(out) >= c.maxResults {
				return out, nil
			}
			out = append(out, cleanPosting(p, q))
		}
	}
	return out, nil
}

func cleanPosting(p domain.Posting, q domain.Query) domain.Posting {
	p.Title = CleanText(p.Title)
	if p.Title == "" {
		p.Title = defaultTitle
	}
	p.Company = CleanText(p.Company)
	if p.Company == "" {
		p.Company = unknownCompany
	}
	p.Location = NormalizeLocation(p.Location)
	if p.Location == "" {
		p.Location = q.Location
	}
	p.Snippet = CleanText(p.Snippet)
	p.Link = CanonicalizeURL(p.Link)
	return p
}
