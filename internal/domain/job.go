package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidStatus = errors.New("invalid job status")

type JobStatus string

const (
	StatusDraft        JobStatus = "Draft"
	StatusSaved        JobStatus = "Saved"
	StatusApplied      JobStatus = "Applied"
	StatusInterviewing JobStatus = "Interviewing"
	StatusOffer        JobStatus = "Offer"
	StatusRejected     JobStatus = "Rejected"
	StatusAccepted     JobStatus = "Accepted"
)

const (
	OriginApplication = "application"
	OriginOffer       = "offer"
)

// ParseStatus converts a raw string to a JobStatus, returning an error for
// unknown values.
func ParseStatus(s string) (JobStatus, error) {
	st := JobStatus(strings.TrimSpace(s))
	switch st {
	case StatusDraft, StatusSaved, StatusApplied, StatusInterviewing, StatusOffer, StatusRejected, StatusAccepted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// JobRecord is a tracked opportunity as persisted by the tracking store.
type JobRecord struct {
	ID           string    `json:"id"`
	Company      string    `json:"company"`
	Role         string    `json:"role"`
	Location     string    `json:"location"`
	Status       JobStatus `json:"status"`
	CreatedDate  string    `json:"createdDate"` // YYYY-MM-DD
	Description  string    `json:"description"`
	CoverLetter  string    `json:"coverLetter"`
	ApplyLink    string    `json:"applyLink"`
	ContactEmail string    `json:"contactEmail"`
	Origin       string    `json:"origin"`
}

func (j JobRecord) IdentityKey() string {
	return IdentityKey(j.Company, j.Role)
}
