package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobflow-engine/internal/domain"
)

// tsLayout keeps fixed-width fractions so timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrDuplicate means a job with the same company::role identity is already tracked.
	ErrDuplicate = errors.New("job already tracked")
	ErrNotFound  = errors.New("not found")
)

// JobStore is the tracking store surface shared by the sqlite and postgres
// backends.
type JobStore interface {
	IdentityKeys(ctx context.Context) ([]string, error)
	AppendJob(ctx context.Context, rec domain.JobRecord) error
	ListJobs(ctx context.Context, opts ListJobsOpts) ([]domain.JobRecord, error)
	DeleteJob(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error
}

type ListJobsOpts struct {
	Status string // empty = any
	Limit  int
}

func (o ListJobsOpts) normalized() (ListJobsOpts, error) {
	if o.Limit <= 0 || o.Limit > 2000 {
		o.Limit = 500
	}
	if o.Status != "" {
		st, err := domain.ParseStatus(o.Status)
		if err != nil {
			return o, err
		}
		o.Status = string(st)
	}
	return o, nil
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// IdentityKeys returns every tracked identity key; the pipeline snapshots
// this once per run.
func (s *SQLiteStore) IdentityKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT identity_key FROM jobs;`)
	if err != nil {
		return nil, fmt.Errorf("identity keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// AppendJob inserts rec. It never overwrites: a second record with the same
// identity key returns ErrDuplicate.
func (s *SQLiteStore) AppendJob(ctx context.Context, rec domain.JobRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("append job: missing id")
	}
	if _, err := domain.ParseStatus(string(rec.Status)); err != nil {
		return fmt.Errorf("append job: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO jobs(id, identity_key, company, role, location, status, created_date,
  description, cover_letter, apply_link, contact_email, origin, inserted_at)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		rec.ID,
		rec.IdentityKey(),
		rec.Company,
		rec.Role,
		rec.Location,
		string(rec.Status),
		rec.CreatedDate,
		rec.Description,
		rec.CoverLetter,
		rec.ApplyLink,
		rec.ContactEmail,
		rec.Origin,
		time.Now().UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("append job: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.IdentityKey())
	}
	return nil
}

// ListJobs returns tracked jobs newest first.
func (s *SQLiteStore) ListJobs(ctx context.Context, opts ListJobsOpts) ([]domain.JobRecord, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}

	query := `
SELECT id, company, role, location, status, created_date, description, cover_letter,
       apply_link, contact_email, origin
FROM jobs
%s
ORDER BY inserted_at DESC
LIMIT ?;`
	where := ""
	args := []any{}
	if opts.Status != "" {
		where = "WHERE status = ?"
		args = append(args, opts.Status)
	}
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(query, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.JobRecord, 0)
	for rows.Next() {
		var j domain.JobRecord
		var status string
		if err := rows.Scan(
			&j.ID,
			&j.Company,
			&j.Role,
			&j.Location,
			&status,
			&j.CreatedDate,
			&j.Description,
			&j.CoverLetter,
			&j.ApplyLink,
			&j.ContactEmail,
			&j.Origin,
		); err != nil {
			return nil, err
		}
		j.Status = domain.JobStatus(status)
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error {
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?;`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var (
	_ JobStore = (*SQLiteStore)(nil)
	_ JobStore = (*PGStore)(nil)
)
