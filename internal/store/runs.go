package store

import (
	"context"
	"fmt"
	"time"
)

// RunRecord is one finished pipeline run as kept in the history table.
type RunRecord struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"` // manual | alert:<id>
	Keywords   string    `json:"keywords"`
	Location   string    `json:"location"`
	Domain     string    `json:"domain"`
	Phase      string    `json:"phase"`
	Found      int       `json:"found"`
	Scored     int       `json:"scored"`
	Qualified  int       `json:"qualified"`
	Drafted    int       `json:"drafted"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func (s *SQLiteStore) InsertRun(ctx context.Context, r RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs(id, trigger, keywords, location, domain, phase, found, scored, qualified, drafted,
  error, started_at, finished_at)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		r.ID, r.Trigger, r.Keywords, r.Location, r.Domain, r.Phase,
		r.Found, r.Scored, r.Qualified, r.Drafted, r.Error,
		r.StartedAt.UTC().Format(tsLayout),
		r.FinishedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, trigger, keywords, location, domain, phase, found, scored, qualified, drafted,
       error, started_at, finished_at
FROM runs
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RunRecord, 0)
	for rows.Next() {
		var r RunRecord
		var started, finished string
		if err := rows.Scan(
			&r.ID, &r.Trigger, &r.Keywords, &r.Location, &r.Domain, &r.Phase,
			&r.Found, &r.Scored, &r.Qualified, &r.Drafted,
			&r.Error, &started, &finished,
		); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(tsLayout, started)
		r.FinishedAt, _ = time.Parse(tsLayout, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
