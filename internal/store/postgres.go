package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobflow-engine/internal/domain"
)

// PGStore is the tracking store for shared deployments. It covers jobs
// only; alerts and run history stay in the local sqlite file.
type PGStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	s := &PGStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PGStore) Close() {
	s.pool.Close()
}

func (s *PGStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  identity_key TEXT NOT NULL UNIQUE,
  company TEXT NOT NULL,
  role TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  created_date TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  cover_letter TEXT NOT NULL DEFAULT '',
  apply_link TEXT NOT NULL DEFAULT '',
  contact_email TEXT NOT NULL DEFAULT '',
  origin TEXT NOT NULL DEFAULT 'application',
  inserted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_jobs_inserted_at ON jobs(inserted_at);`)
	return err
}

func (s *PGStore) IdentityKeys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT identity_key FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("identity keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("identity keys scan: %w", err)
	}
	return keys, nil
}

func (s *PGStore) AppendJob(ctx context.Context, rec domain.JobRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("append job: missing id")
	}
	if _, err := domain.ParseStatus(string(rec.Status)); err != nil {
		return fmt.Errorf("append job: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (id, identity_key, company, role, location, status, created_date,
		                  description, cover_letter, apply_link, contact_email, origin, inserted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (identity_key) DO NOTHING`,
		rec.ID, rec.IdentityKey(), rec.Company, rec.Role, rec.Location, string(rec.Status),
		rec.CreatedDate, rec.Description, rec.CoverLetter, rec.ApplyLink, rec.ContactEmail,
		rec.Origin, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.IdentityKey())
	}
	return nil
}

func (s *PGStore) ListJobs(ctx context.Context, opts ListJobsOpts) ([]domain.JobRecord, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	const base = `
		SELECT id, company, role, location, status, created_date, description, cover_letter,
		       apply_link, contact_email, origin
		FROM jobs`

	var rows pgx.Rows
	if opts.Status != "" {
		rows, err = s.pool.Query(ctx, base+` WHERE status = $1 ORDER BY inserted_at DESC LIMIT $2`, opts.Status, opts.Limit)
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY inserted_at DESC LIMIT $1`, opts.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.JobRecord, 0)
	for rows.Next() {
		var j domain.JobRecord
		var status string
		if err := rows.Scan(
			&j.ID, &j.Company, &j.Role, &j.Location, &status, &j.CreatedDate,
			&j.Description, &j.CoverLetter, &j.ApplyLink, &j.ContactEmail, &j.Origin,
		); err != nil {
			return nil, fmt.Errorf("listJobs scan: %w", err)
		}
		j.Status = domain.JobStatus(status)
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *PGStore) DeleteJob(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error {
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE jobs SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
