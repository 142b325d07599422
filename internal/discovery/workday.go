package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
)

const workdayPageSize = 20

var errWorkdayBlocked = errors.New("workday board is behind a bot challenge")

// WorkdaySource queries Workday career sites through their JSON jobs
// endpoint. Each company slug is the public board URL, e.g.
// https://acme.wd5.myworkdayjobs.com/en-US/External.
type WorkdaySource struct {
	Companies []config.Company
	Client    *http.Client // only its Transport and Timeout are used
	Limiter   *HostLimiter

	mu      sync.Mutex
	blocked map[string]bool
}

func (s *WorkdaySource) Name() string { return "workday" }

type workdayBoard struct {
	origin string // scheme://host
	tenant string
	site   string
	locale string
}

type workdayRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type workdayResponse struct {
	Total       int `json:"total"`
	JobPostings []struct {
		Title         string `json:"title"`
		ExternalPath  string `json:"externalPath"`
		LocationsText string `json:"locationsText"`
	} `json:"jobPostings"`
}

func (s *WorkdaySource) Search(ctx context.Context, q domain.Query, limit int) ([]domain.Posting, error) {
	return searchCompanies(ctx, s.Name(), s.Companies, q, limit, func(ctx context.Context, co config.Company) ([]domain.Posting, error) {
		return s.fetchCompany(ctx, co, q.Keywords, limit)
	})
}

// parseWorkdayBoard splits https://<tenant>.wdN.myworkdayjobs.com/[locale/]<site>.
func parseWorkdayBoard(raw string) (workdayBoard, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return workdayBoard{}, err
	}
	if u.Host == "" {
		return workdayBoard{}, fmt.Errorf("board url %q has no host", raw)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	tenant, _, _ := strings.Cut(u.Host, ".")

	segs := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segs) == 0 {
		return workdayBoard{}, fmt.Errorf("board url %q has no site", raw)
	}
	b := workdayBoard{origin: u.Scheme + "://" + u.Host, tenant: tenant, site: segs[len(segs)-1]}
	if len(segs) > 1 && isLocale(segs[0]) {
		b.locale = segs[0]
	}
	return b, nil
}

func isLocale(s string) bool {
	lang, region, ok := strings.Cut(s, "-")
	return ok && len(lang) == 2 && len(region) == 2
}

func (b workdayBoard) jobsEndpoint() string {
	return fmt.Sprintf("%s/wday/cxs/%s/%s/jobs", b.origin, b.tenant, b.site)
}

func (b workdayBoard) jobURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || strings.HasPrefix(path, "http") {
		return path
	}
	prefix := b.origin
	if b.locale != "" {
		prefix += "/" + b.locale
	}
	return prefix + "/" + b.site + "/" + strings.TrimLeft(path, "/")
}

func (s *WorkdaySource) isBlocked(host string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked[host]
}

func (s *WorkdaySource) markBlocked(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blocked == nil {
		s.blocked = map[string]bool{}
	}
	s.blocked[host] = true
}

// session returns a client with its own cookie jar; Workday hands out the
// CSRF token as a cookie on the board page.
func (s *WorkdaySource) session() *http.Client {
	jar, _ := cookiejar.New(nil)
	hc := &http.Client{Jar: jar, Timeout: httpTimeout}
	if s.Client != nil {
		hc.Transport = s.Client.Transport
		if s.Client.Timeout > 0 {
			hc.Timeout = s.Client.Timeout
		}
	}
	return hc
}

func (s *WorkdaySource) fetchCompany(ctx context.Context, co config.Company, keywords string, limit int) ([]domain.Posting, error) {
	b, err := parseWorkdayBoard(co.Slug)
	if err != nil {
		return nil, err
	}
	if s.isBlocked(b.origin) {
		return nil, errWorkdayBlocked
	}

	hc := s.session()
	csrf, err := s.bootstrap(ctx, hc, co.Slug)
	if errors.Is(err, errWorkdayBlocked) {
		s.markBlocked(b.origin)
		return nil, err
	}
	// some tenants work without the token, so a missing cookie is not fatal

	size := workdayPageSize
	if limit > 0 && limit < size {
		size = limit
	}
	payload, _ := json.Marshal(workdayRequest{
		AppliedFacets: map[string]any{},
		Limit:         size,
		SearchText:    strings.TrimSpace(keywords),
	})

	endpoint := b.jobsEndpoint()
	if err := s.Limiter.WaitURL(ctx, endpoint); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", b.origin)
	req.Header.Set("Referer", co.Slug)
	if b.locale != "" {
		req.Header.Set("Accept-Language", b.locale)
	}
	if csrf != "" {
		req.Header.Set("X-Calypso-Csrf-Token", csrf)
	}

	res, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("workday jobs: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(res.Body, 200))
		return nil, fmt.Errorf("workday status %d: %s", res.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	var wr workdayResponse
	if err := json.NewDecoder(res.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("workday decode: %w", err)
	}

	out := make([]domain.Posting, 0, len(wr.JobPostings))
	for _, p := range wr.JobPostings {
		title := CleanText(p.Title)
		link := b.jobURL(p.ExternalPath)
		if title == "" || link == "" {
			continue
		}
		// the listing has no description; scoring falls back to the title
		out = append(out, domain.Posting{
			Title:    title,
			Company:  co.Name,
			Location: NormalizeLocation(p.LocationsText),
			Link:     link,
			Source:   s.Name(),
		})
	}
	return out, nil
}

// bootstrap loads the board page to collect session cookies and returns
// the CSRF token if one was set.
func (s *WorkdaySource) bootstrap(ctx context.Context, hc *http.Client, boardURL string) (string, error) {
	if err := s.Limiter.WaitURL(ctx, boardURL); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, boardURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	res, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	preview, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if looksChallenged(res, string(preview)) {
		return "", errWorkdayBlocked
	}

	u, _ := url.Parse(boardURL)
	for _, c := range hc.Jar.Cookies(u) {
		if c.Name == "CALYPSO_CSRF_TOKEN" {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("no CALYPSO_CSRF_TOKEN cookie (status %d)", res.StatusCode)
}

func looksChallenged(res *http.Response, preview string) bool {
	if res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if strings.Contains(strings.ToLower(res.Header.Get("Server")), "cloudflare") && res.Header.Get("Cf-Ray") != "" {
		return true
	}
	low := strings.ToLower(preview)
	return strings.Contains(low, "/cdn-cgi/challenge") || strings.Contains(low, "checking your browser")
}
