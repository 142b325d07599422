package store

import (
	"context"
	"fmt"
	"time"

	"jobflow-engine/internal/domain"
)

func (s *SQLiteStore) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, keywords, location, domain, frequency, active, last_checked
FROM alerts
ORDER BY rowid;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Alert, 0)
	for rows.Next() {
		var a domain.Alert
		var freq, lastChecked string
		var active int
		if err := rows.Scan(&a.ID, &a.Keywords, &a.Location, &a.Domain, &freq, &active, &lastChecked); err != nil {
			return nil, err
		}
		a.Frequency = domain.Frequency(freq)
		a.Active = active != 0
		a.LastChecked = lastChecked
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetAlert(ctx context.Context, id string) (domain.Alert, error) {
	alerts, err := s.ListAlerts(ctx)
	if err != nil {
		return domain.Alert{}, err
	}
	for _, a := range alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Alert{}, ErrNotFound
}

func (s *SQLiteStore) CreateAlert(ctx context.Context, a domain.Alert) error {
	if a.ID == "" {
		return fmt.Errorf("create alert: missing id")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO alerts(id, keywords, location, domain, frequency, active, last_checked)
VALUES(?,?,?,?,?,?,?);`,
		a.ID, a.Keywords, a.Location, a.Domain, string(a.Frequency), boolInt(a.Active), a.LastChecked,
	)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SetAlertActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET active = ? WHERE id = ?;`, boolInt(active), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchAlert records when an alert last ran.
func (s *SQLiteStore) TouchAlert(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE alerts SET last_checked = ? WHERE id = ?;`, at.UTC().Format(time.RFC3339), id)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
