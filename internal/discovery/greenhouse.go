package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
)

const greenhouseBaseURL = "https://boards.greenhouse.io"

// GreenhouseSource scrapes the configured Greenhouse job boards and keeps
// the postings that answer the query.
type GreenhouseSource struct {
	BaseURL   string
	Companies []config.Company
	Client    *http.Client
	Limiter   *HostLimiter
}

func (s *GreenhouseSource) Name() string { return "greenhouse" }

type boardJob struct {
	company string
	title   string
	url     string
}

// Search tolerates individual boards being down, but fails when every board does.
func (s *GreenhouseSource) Search(ctx context.Context, q domain.Query, limit int) ([]domain.Posting, error) {
	if len(s.Companies) == 0 {
		return nil, nil
	}

	var (
		out  []domain.Posting
		errs []error
	)
	for _, co := range s.Companies {
		jobs, err := s.fetchBoard(ctx, co)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[discovery:greenhouse] board=%s err=%v", co.Slug, err)
			errs = append(errs, fmt.Errorf("%s: %w", co.Slug, err))
			continue
		}

		for _, j := range jobs {
			p, err := s.hydrate(ctx, j)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				// keep the minimal entry from the board listing
				log.Printf("[discovery:greenhouse] hydrate url=%s err=%v", j.url, err)
			}
			if !matchesQuery(q, p.Title, p.Location, p.Snippet) {
				continue
			}
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}

	if len(errs) == len(s.Companies) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (s *GreenhouseSource) base() string {
	if s.BaseURL == "" {
		return greenhouseBaseURL
	}
	return strings.TrimRight(s.BaseURL, "/")
}

func (s *GreenhouseSource) get(ctx context.Context, u string) (*goquery.Document, error) {
	res, err := fetch(ctx, s.Client, s.Limiter, u, "text/html")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return goquery.NewDocumentFromReader(res.Body)
}

func (s *GreenhouseSource) fetchBoard(ctx context.Context, co config.Company) ([]boardJob, error) {
	boardURL := fmt.Sprintf("%s/%s", s.base(), co.Slug)
	doc, err := s.get(ctx, boardURL)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	base, err := url.Parse(boardURL)
	if err != nil {
		return nil, err
	}

	// Boards link to /<slug>/jobs/<id> or absolute /jobs/<id>
	seen := map[string]bool{}
	var jobs []boardJob
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Host != base.Host || !strings.Contains(abs.Path, "/jobs/") {
			return
		}
		jobID := extractJobID(abs.Path)
		if jobID == "" || seen[jobID] {
			return
		}
		seen[jobID] = true

		title := CleanText(a.Text())
		if looksLikeJunkTitle(title) {
			// the job page h1 has the real title
			title = ""
		}
		jobs = append(jobs, boardJob{company: co.Name, title: title, url: abs.String()})
	})
	return jobs, nil
}

func (s *GreenhouseSource) hydrate(ctx context.Context, j boardJob) (domain.Posting, error) {
	p := domain.Posting{
		Title:   j.title,
		Company: j.company,
		Link:    j.url,
		Source:  s.Name(),
	}
	doc, err := s.get(ctx, j.url)
	if err != nil {
		return p, err
	}

	if p.Title == "" {
		p.Title = CleanText(doc.Find("h1").First().Text())
	}
	p.Location = CleanText(doc.Find(".location").First().Text())
	if sel := doc.Find("#content").First(); sel.Length() > 0 {
		if h, err := sel.Html(); err == nil {
			p.Snippet = Snippet(HTMLToText(h))
		}
	}
	return p, nil
}

func extractJobID(path string) string {
	parts := strings.Split(path, "/jobs/")
	if len(parts) < 2 {
		return ""
	}
	id := ""
	for _, r := range parts[1] {
		if r < '0' || r > '9' {
			break
		}
		id += string(r)
	}
	return id
}

func looksLikeJunkTitle(t string) bool {
	l := strings.ToLower(t)
	return l == "" || strings.Contains(l, "view") || strings.Contains(l, "apply")
}
