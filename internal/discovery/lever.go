package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
)

const leverBaseURL = "https://api.lever.co"

// LeverSource reads the public Lever postings API for the configured
// companies and keeps the postings that answer the query.
type LeverSource struct {
	BaseURL   string
	Companies []config.Company
	Client    *http.Client
	Limiter   *HostLimiter
}

func (s *LeverSource) Name() string { return "lever" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	ApplyURL   string `json:"applyUrl"`
	Categories struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
	Description      string `json:"description"` // html
	DescriptionPlain string `json:"descriptionPlain"`
}

func (s *LeverSource) Search(ctx context.Context, q domain.Query, limit int) ([]domain.Posting, error) {
	return searchCompanies(ctx, s.Name(), s.Companies, q, limit, s.fetchCompany)
}

func (s *LeverSource) base() string {
	if s.BaseURL == "" {
		return leverBaseURL
	}
	return strings.TrimRight(s.BaseURL, "/")
}

func (s *LeverSource) fetchCompany(ctx context.Context, co config.Company) ([]domain.Posting, error) {
	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", s.base(), url.PathEscape(co.Slug))

	res, err := fetch(ctx, s.Client, s.Limiter, apiURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("lever: %w", err)
	}
	defer res.Body.Close()

	var postings []leverPosting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, fmt.Errorf("lever decode: %w", err)
	}

	out := make([]domain.Posting, 0, len(postings))
	for _, p := range postings {
		if p.ID == "" || p.HostedURL == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		desc := strings.TrimSpace(p.DescriptionPlain)
		if desc == "" {
			desc = HTMLToText(p.Description)
		}
		link := p.ApplyURL
		if link == "" {
			link = p.HostedURL
		}
		out = append(out, domain.Posting{
			Title:    CleanText(p.Text),
			Company:  co.Name,
			Location: NormalizeLocation(p.Categories.Location),
			Snippet:  Snippet(CleanText(desc)),
			Link:     link,
			Source:   s.Name(),
		})
	}
	return out, nil
}
