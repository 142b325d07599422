package discovery

import (
	"strings"

	"jobflow-engine/internal/domain"
)

// matchesQuery decides whether a scraped posting answers the query. Sources
// that search server-side (adzuna, llm) don't need it.
func matchesQuery(q domain.Query, title, location, desc string) bool {
	return matchesKeywords(q.Keywords, title+" "+desc) && passesLocation(q.Location, location, title, desc)
}

func matchesKeywords(keywords, text string) bool {
	terms := strings.Fields(strings.ToLower(keywords))
	if len(terms) == 0 {
		return true
	}
	text = strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func passesLocation(want, location, title, desc string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return true
	}
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		// unknown location: let the scorer decide
		return true
	}

	// treat any mention of "remote" as remote-ish
	isRemote := strings.Contains(loc, "remote") || strings.Contains(strings.ToLower(title), "remote")
	if isRemote {
		return true
	}

	for _, part := range strings.Split(want, ",") {
		part = strings.TrimSpace(part)
		if part != "" && strings.Contains(loc, part) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(desc), want)
}
