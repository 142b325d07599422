package pipeline

import (
	"context"

	"jobflow-engine/internal/domain"
)

//go:generate mockgen -source=./deps.go -destination=./mocks/pipeline.mock.go -package=pipelinemocks

type Discoverer interface {
	Search(ctx context.Context, q domain.Query) ([]domain.Posting, error)
}

type Scorer interface {
	Score(ctx context.Context, profile, snippet string) (domain.ScoreResult, error)
}

type Drafter interface {
	Draft(ctx context.Context, req domain.DraftRequest) (string, error)
}

// TrackingStore is the slice of the job store a run needs: one snapshot read
// and appends.
type TrackingStore interface {
	IdentityKeys(ctx context.Context) ([]string, error)
	AppendJob(ctx context.Context, rec domain.JobRecord) error
}
