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

const (
	smartRecBaseURL  = "https://api.smartrecruiters.com"
	smartRecJobsURL  = "https://jobs.smartrecruiters.com"
	smartRecPageSize = 100
	smartRecMaxPages = 3
)

// SmartRecruitersSource reads the public SmartRecruiters postings API. The
// keywords are sent as q so the board does the first cut.
type SmartRecruitersSource struct {
	BaseURL   string
	Companies []config.Company
	Client    *http.Client
	Limiter   *HostLimiter
}

func (s *SmartRecruitersSource) Name() string { return "smartrecruiters" }

type smartRecPage struct {
	Content    []smartRecPosting `json:"content"`
	TotalFound int               `json:"totalFound"`
}

type smartRecPosting struct {
	ID       string `json:"id"`
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Location struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
	Department       smartRecLabel `json:"department"`
	Function         smartRecLabel `json:"function"`
	ExperienceLevel  smartRecLabel `json:"experienceLevel"`
	TypeOfEmployment smartRecLabel `json:"typeOfEmployment"`
}

type smartRecLabel struct {
	Label string `json:"label"`
}

func (s *SmartRecruitersSource) Search(ctx context.Context, q domain.Query, limit int) ([]domain.Posting, error) {
	return searchCompanies(ctx, s.Name(), s.Companies, q, limit, func(ctx context.Context, co config.Company) ([]domain.Posting, error) {
		return s.fetchCompany(ctx, co, q.Keywords)
	})
}

func (s *SmartRecruitersSource) base() string {
	if s.BaseURL == "" {
		return smartRecBaseURL
	}
	return strings.TrimRight(s.BaseURL, "/")
}

func (s *SmartRecruitersSource) fetchCompany(ctx context.Context, co config.Company, keywords string) ([]domain.Posting, error) {
	endpoint := fmt.Sprintf("%s/v1/companies/%s/postings", s.base(), url.PathEscape(co.Slug))

	var out []domain.Posting
	for page := 0; page < smartRecMaxPages; page++ {
		params := url.Values{}
		params.Set("limit", fmt.Sprint(smartRecPageSize))
		params.Set("offset", fmt.Sprint(page*smartRecPageSize))
		if kw := strings.TrimSpace(keywords); kw != "" {
			params.Set("q", kw)
		}

		res, err := fetch(ctx, s.Client, s.Limiter, endpoint+"?"+params.Encode(), "application/json")
		if err != nil {
			return nil, fmt.Errorf("smartrecruiters: %w", err)
		}
		var pr smartRecPage
		err = json.NewDecoder(res.Body).Decode(&pr)
		res.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("smartrecruiters decode: %w", err)
		}

		for _, p := range pr.Content {
			if posting, ok := s.toPosting(co, p); ok {
				out = append(out, posting)
			}
		}
		if len(pr.Content) < smartRecPageSize || (page+1)*smartRecPageSize >= pr.TotalFound {
			break
		}
	}
	return out, nil
}

func (s *SmartRecruitersSource) toPosting(co config.Company, p smartRecPosting) (domain.Posting, bool) {
	title := CleanText(p.Name)
	id := strings.TrimSpace(p.ID)
	if id == "" {
		id = strings.TrimSpace(p.UUID)
	}
	if title == "" || id == "" {
		return domain.Posting{}, false
	}

	var locParts []string
	if p.Location.Remote {
		locParts = append(locParts, "Remote")
	}
	locParts = append(locParts, p.Location.City, p.Location.Region, strings.ToUpper(p.Location.Country))

	// The listing carries no description; the labels are what there is to score.
	var facts []string
	for _, l := range []smartRecLabel{p.Function, p.Department, p.ExperienceLevel, p.TypeOfEmployment} {
		if v := CleanText(l.Label); v != "" {
			facts = append(facts, v)
		}
	}

	return domain.Posting{
		Title:    title,
		Company:  co.Name,
		Location: NormalizeLocation(strings.Join(locParts, ", ")),
		Snippet:  Snippet(strings.Join(facts, ". ")),
		Link:     fmt.Sprintf("%s/%s/%s", smartRecJobsURL, url.PathEscape(co.Slug), url.PathEscape(id)),
		Source:   s.Name(),
	}, true
}
