package domain

import "strings"

const defaultSkills = "general professional skills"

// Profile is the candidate summary the scorer and drafter work from.
type Profile struct {
	Summary string `json:"summary" yaml:"summary"`
	Skills  string `json:"skills" yaml:"skills"`
}

// ScoringText is what the relevance scorer compares a posting against.
func (p Profile) ScoringText() string {
	return strings.TrimSpace(p.Summary + " " + p.Skills)
}

func (p Profile) DraftSkills() string {
	if s := strings.TrimSpace(p.Skills); s != "" {
		return s
	}
	return defaultSkills
}

type DraftRequest struct {
	Company     string
	Role        string
	Description string
	Skills      string
}
