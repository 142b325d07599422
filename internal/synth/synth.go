// Package synth drafts application assets for postings that cleared the
// relevance threshold.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/oracle"
)

const defaultDescription = "General Role"

var ErrEmptyDraft = errors.New("synth: empty cover letter")

type Drafter interface {
	Draft(ctx context.Context, req domain.DraftRequest) (string, error)
}

const coverLetterPrompt = `Write a professional and engaging cover letter for the position of %s at %s.

Job Description:
%s

My Skills/Background:
%s

Keep it concise (under 300 words), professional, and enthusiastic.
Do not include placeholders like [Your Name] or [Address], start directly with "Dear Hiring Manager,".`

type OracleDrafter struct {
	Oracle oracle.Completer
}

func (d OracleDrafter) Draft(ctx context.Context, req domain.DraftRequest) (string, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = defaultDescription
	}
	skills := strings.TrimSpace(req.Skills)
	if skills == "" {
		skills = domain.Profile{}.DraftSkills()
	}

	out, err := d.Oracle.Complete(ctx, oracle.Prompt{
		User: fmt.Sprintf(coverLetterPrompt, req.Role, req.Company, desc, skills),
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyDraft
	}
	return out, nil
}
