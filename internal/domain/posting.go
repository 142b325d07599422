package domain

import "strings"

// DefaultDomain is the industry used when a search does not name one.
const DefaultDomain = "Technology"

type Query struct {
	Keywords string `json:"keywords"`
	Location string `json:"location"`
	Domain   string `json:"domain"`
}

// Normalized trims the query fields and fills in the default domain.
func (q Query) Normalized() Query {
	q.Keywords = strings.TrimSpace(q.Keywords)
	q.Location = strings.TrimSpace(q.Location)
	q.Domain = strings.TrimSpace(q.Domain)
	if q.Domain == "" {
		q.Domain = DefaultDomain
	}
	return q
}

// Posting is one discovered opening. It only lives for the duration of a run.
type Posting struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Snippet  string `json:"snippet"`
	Link     string `json:"link"`
	Source   string `json:"source"` // llm/adzuna/greenhouse
}

func (p Posting) IdentityKey() string {
	return IdentityKey(p.Company, p.Title)
}

// IdentityKey builds the company::role key used for dedup and store uniqueness.
func IdentityKey(company, role string) string {
	return normalizeKeyPart(company) + "::" + normalizeKeyPart(role)
}

func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
