package domain

import "fmt"

// RunProgress is the per-run counter set. Values are never mutated in place;
// each step returns the next value.
type RunProgress struct {
	Found     int `json:"found"`
	Scored    int `json:"scored"`
	Qualified int `json:"qualified"`
	Drafted   int `json:"drafted"`
}

func (p RunProgress) WithFound(n int) RunProgress {
	p.Found = n
	return p
}

func (p RunProgress) IncScored() RunProgress {
	p.Scored++
	return p
}

func (p RunProgress) IncQualified() RunProgress {
	p.Qualified++
	return p
}

func (p RunProgress) IncDrafted() RunProgress {
	p.Drafted++
	return p
}

func (p RunProgress) String() string {
	return fmt.Sprintf("found=%d scored=%d qualified=%d drafted=%d", p.Found, p.Scored, p.Qualified, p.Drafted)
}
