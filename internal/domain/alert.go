package domain

import "fmt"

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyDaily, FrequencyWeekly:
		return f, nil
	case "":
		return FrequencyDaily, nil
	}
	return "", fmt.Errorf("unknown alert frequency %q", s)
}

// Alert is a saved search that the scheduler turns into pipeline runs.
type Alert struct {
	ID          string    `json:"id"`
	Keywords    string    `json:"keywords"`
	Location    string    `json:"location"`
	Domain      string    `json:"domain"`
	Frequency   Frequency `json:"frequency"`
	Active      bool      `json:"isActive"`
	LastChecked string    `json:"lastChecked,omitempty"`
}

func (a Alert) Query() Query {
	return Query{Keywords: a.Keywords, Location: a.Location, Domain: a.Domain}.Normalized()
}
