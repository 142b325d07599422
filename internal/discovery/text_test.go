package discovery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"jobflow-engine/internal/domain"
)

func TestHTMLToText(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "  just  text ", want: "just text"},
		{name: "paragraphs", input: "<p>Hello</p><p>World &amp; co</p>", want: "Hello World & co"},
		{name: "list", input: "<ul><li>Go</li><li>SQL</li></ul>", want: "Go SQL"},
		{name: "inline", input: "Use <b>Go</b>daily", want: "Use Godaily"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTMLToText(tc.input))
		})
	}
}

func TestSnippet(t *testing.T) {
	short := "small text"
	assert.Equal(t, short, Snippet(short))

	long := strings.Repeat("word ", 300)
	s := Snippet(long)
	assert.True(t, strings.HasSuffix(s, "…"))
	assert.LessOrEqual(t, len([]rune(s)), maxSnippetRunes+1)
}

func TestNormalizeLocation(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{input: "Location: Austin,  TX, austin", want: "Austin, TX"},
		{input: "   ", want: ""},
		{input: "Anywhere", want: "Remote"},
		{input: "New York; Work from home | remote", want: "New York, Remote"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeLocation(tc.input))
		})
	}
}

func TestCanonicalizeURL(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "tracking", input: "HTTPS://Jobs.Example.com/a?utm_campaign=x&id=2&gclid=9#apply", want: "https://jobs.example.com/a?id=2"},
		{name: "greenhouse", input: "https://boards.greenhouse.io/acme/jobs/1?gh_jid=1&gh_src=abc", want: "https://boards.greenhouse.io/acme/jobs/1?gh_jid=1"},
		{name: "lever", input: "https://jobs.lever.co/acme/9?lever-source=x", want: "https://jobs.lever.co/acme/9"},
		{name: "empty", input: "  ", want: ""},
		{name: "relative", input: "/jobs/1", want: "/jobs/1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanonicalizeURL(tc.input))
		})
	}
}

func TestMatchesQuery(t *testing.T) {
	q := func(k, l string) domain.Query { return domain.Query{Keywords: k, Location: l} }
	assert.True(t, matchesQuery(q("", ""), "Anything", "", ""))
	assert.True(t, matchesQuery(q("golang rust", ""), "Rust Developer", "", ""))
	assert.False(t, matchesQuery(q("golang", ""), "Chef", "", "cooking"))
	assert.True(t, matchesQuery(q("", "Austin, TX"), "Dev", "Austin", ""))
	assert.True(t, matchesQuery(q("", "Austin"), "Dev", "Remote", ""))
	assert.False(t, matchesQuery(q("", "Austin"), "Dev", "Berlin", ""))
	assert.True(t, matchesQuery(q("", "Austin"), "Dev", "", ""))
}
