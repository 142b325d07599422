package discovery

import (
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippetRunes = 600

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

var remoteAliases = map[string]bool{
	"anywhere":       true,
	"work from home": true,
	"wfh":            true,
	"distributed":    true,
	"fully remote":   true,
	"100% remote":    true,
}

// NormalizeLocation tidies a location list: prefixes dropped, duplicates
// removed case-insensitively, remote synonyms folded into "Remote".
func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	for _, prefix := range []string{"Location:", "Locations:", "LOCATION:", "LOCATIONS:"} {
		loc = strings.TrimSpace(strings.TrimPrefix(loc, prefix))
	}
	if loc == "" {
		return ""
	}

	seen := map[string]bool{}
	var out []string
	for _, p := range strings.FieldsFunc(loc, func(r rune) bool { return r == ',' || r == ';' || r == '|' }) {
		p = CleanText(p)
		if remoteAliases[strings.ToLower(p)] {
			p = "Remote"
		}
		k := strings.ToLower(p)
		if p == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// HTMLToText flattens a description fragment to one line of text. Block
// elements are separated by a space so words don't run together.
func HTMLToText(h string) string {
	if !strings.Contains(h, "<") && !strings.Contains(h, "&") {
		return CleanText(h)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(h))
	if err != nil {
		return CleanText(h)
	}
	doc.Find("p, li, br, div, h1, h2, h3, h4, h5, tr").Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})
	return CleanText(doc.Text())
}

// Snippet trims text to a scoring-sized excerpt on a word boundary.
func Snippet(text string) string {
	text = CleanText(text)
	if utf8.RuneCountInString(text) <= maxSnippetRunes {
		return text
	}
	r := []rune(text)[:maxSnippetRunes]
	cut := string(r)
	if i := strings.LastIndexByte(cut, ' '); i > maxSnippetRunes/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

var trackingParams = map[string]bool{
	"gclid": true, "fbclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true, "mkt_tok": true,
	"gh_src": true, "lever-source": true, "lever-origin": true,
	"ref": true, "src": true, "trk": true,
}

// CanonicalizeURL lowercases scheme and host, drops the fragment and the
// tracking parameters job boards append, and sorts the rest. Greenhouse
// links keep only gh_jid; Lever links need no query at all.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	switch {
	case strings.HasSuffix(u.Host, "greenhouse.io"):
		keep := url.Values{}
		if v := q.Get("gh_jid"); v != "" {
			keep.Set("gh_jid", v)
		}
		q = keep
	case strings.HasSuffix(u.Host, "lever.co"):
		q = url.Values{}
	default:
		for k := range q {
			lk := strings.ToLower(k)
			if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
				q.Del(k)
			}
		}
	}
	for _, vals := range q {
		sort.Strings(vals)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
