package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
)

const companyWorkers = 4

// cleanCompanies drops entries without a slug and names the rest.
func cleanCompanies(in []config.Company) []config.Company {
	out := make([]config.Company, 0, len(in))
	for _, c := range in {
		slug := strings.TrimSpace(c.Slug)
		if slug == "" {
			continue
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = slug
		}
		out = append(out, config.Company{Slug: slug, Name: name})
	}
	return out
}

type companyFetch func(ctx context.Context, co config.Company) ([]domain.Posting, error)

// searchCompanies fetches every company's board with a few workers and
// merges the matches in company order, so concurrency never changes the
// batch. One company failing is logged and skipped; all of them failing
// is the source failing.
func searchCompanies(ctx context.Context, source string, companies []config.Company, q domain.Query, limit int, fetch companyFetch) ([]domain.Posting, error) {
	if len(companies) == 0 {
		return nil, nil
	}

	batches := make([][]domain.Posting, len(companies))
	errs := make([]error, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(companyWorkers)
	for i, co := range companies {
		g.Go(func() error {
			ps, err := fetch(gctx, co)
			if err != nil {
				log.Printf("[discovery:%s] company=%q slug=%q err=%v", source, co.Name, co.Slug, err)
				errs[i] = fmt.Errorf("%s: %w", co.Slug, err)
				return nil
			}
			batches[i] = ps
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		out    []domain.Posting
		failed []error
	)
	for i, batch := range batches {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		for _, p := range batch {
			if !matchesQuery(q, p.Title, p.Location, p.Snippet) {
				continue
			}
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	if len(failed) == len(companies) {
		return nil, errors.Join(failed...)
	}
	return out, nil
}
