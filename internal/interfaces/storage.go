package interfaces

import (
	"context"

	"github.com/ternarybob/narrato/internal/models"
)

// JobListOptions controls job listing queries
type JobListOptions struct {
	Status   string
	OwnerID  string
	Limit    int
	Offset   int
	OrderBy  string
	OrderDir string
}

// JobStorage persists canonical job records. Mutation goes through the
// lifecycle manager; storage itself enforces nothing about transitions.
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.Job, error)
	GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error)
	CountJobs(ctx context.Context) (int, error)
}

// CreditStorage persists per-owner credit accounts
type CreditStorage interface {
	GetAccount(ctx context.Context, ownerID string) (*models.CreditAccount, error)
	SaveAccount(ctx context.Context, account *models.CreditAccount) error
}

// ArtifactStorage persists artifact metadata; bytes live on the filesystem
type ArtifactStorage interface {
	SaveArtifact(ctx context.Context, artifact *models.Artifact) error
	GetArtifact(ctx context.Context, resultRef string) (*models.Artifact, error)
}

// StorageManager aggregates the storage interfaces behind one connection
type StorageManager interface {
	JobStorage() JobStorage
	CreditStorage() CreditStorage
	ArtifactStorage() ArtifactStorage
	Close() error
}
