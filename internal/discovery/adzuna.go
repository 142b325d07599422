package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"jobflow-engine/internal/domain"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3
)

var errAdzunaCredentials = errors.New("adzuna app_id/app_key not set")

// adzunaCategories maps our domain names onto Adzuna category tags.
var adzunaCategories = map[string]string{
	"technology":  "it-jobs",
	"engineering": "engineering-jobs",
	"finance":     "accounting-finance-jobs",
	"healthcare":  "healthcare-nursing-jobs",
	"marketing":   "pr-advertising-marketing-jobs",
	"sales":       "sales-jobs",
	"education":   "teaching-jobs",
	"legal":       "legal-jobs",
	"logistics":   "logistics-warehouse-jobs",
	"hospitality": "hospitality-catering-jobs",
}

// AdzunaSource queries the Adzuna public search API.
type AdzunaSource struct {
	BaseURL string
	AppID   string
	AppKey  string
	Country string // "us", "gb", "fr", …
	Client  *http.Client
	Limiter *HostLimiter
}

func (s *AdzunaSource) Name() string { return "adzuna" }

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Company     adzunaCompany  `json:"company"`
	Location    adzunaLocation `json:"location"`
	RedirectURL string         `json:"redirect_url"`
	Created     string         `json:"created"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Search pages through results until limit is reached, a short page comes
// back, or adzunaMaxPages is hit.
func (s *AdzunaSource) Search(ctx context.Context, q domain.Query, limit int) ([]domain.Posting, error) {
	if s.AppID == "" || s.AppKey == "" {
		return nil, errAdzunaCredentials
	}
	pageSize := adzunaPageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	var out []domain.Posting
	for page := 1; page <= adzunaMaxPages; page++ {
		batch, err := s.fetchPage(ctx, q, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		out = append(out, batch...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if len(batch) < pageSize {
			break
		}
	}
	return out, nil
}

func (s *AdzunaSource) fetchPage(ctx context.Context, q domain.Query, page, pageSize int) ([]domain.Posting, error) {
	base := s.BaseURL
	if base == "" {
		base = adzunaBaseURL
	}
	country := s.Country
	if country == "" {
		country = "us"
	}
	endpoint := fmt.Sprintf("%s/%s/search/%d", strings.TrimRight(base, "/"), country, page)

	params := url.Values{}
	params.Set("app_id", s.AppID)
	params.Set("app_key", s.AppKey)
	params.Set("results_per_page", strconv.Itoa(pageSize))
	params.Set("what", q.Keywords)
	if q.Location != "" {
		params.Set("where", q.Location)
	}
	if cat, ok := adzunaCategories[strings.ToLower(q.Domain)]; ok {
		params.Set("category", cat)
	}
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	reqURL := endpoint + "?" + params.Encode()
	resp, err := fetch(ctx, s.Client, s.Limiter, reqURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("adzuna: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	ps := make([]domain.Posting, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		ps = append(ps, domain.Posting{
			Title:    HTMLToText(r.Title),
			Company:  r.Company.DisplayName,
			Location: r.Location.DisplayName,
			Snippet:  Snippet(HTMLToText(r.Description)),
			Link:     r.RedirectURL,
			Source:   s.Name(),
		})
	}
	return ps, nil
}
