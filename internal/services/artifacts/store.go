package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
)

// Store persists rendered videos on the local filesystem and records their
// metadata in artifact storage. The returned reference is opaque to callers;
// only this store can resolve it back to bytes.
type Store struct {
	storage  interfaces.ArtifactStorage
	videoDir string
	logger   arbor.ILogger
}

// NewStore creates a filesystem-backed artifact store
func NewStore(storage interfaces.ArtifactStorage, config *common.FilesystemConfig, logger arbor.ILogger) (*Store, error) {
	if config.Videos == "" {
		return nil, fmt.Errorf("video directory is required (set storage.filesystem.videos in config)")
	}

	if err := os.MkdirAll(config.Videos, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create video directory: %w", err)
	}

	return &Store{
		storage:  storage,
		videoDir: config.Videos,
		logger:   logger,
	}, nil
}

// Persist writes the video to disk and records the artifact, returning its
// reference
func (s *Store) Persist(ctx context.Context, jobID, ownerID string, video []byte, durationSeconds int) (string, error) {
	if len(video) == 0 {
		return "", fmt.Errorf("refusing to persist empty video for job %s", jobID)
	}

	resultRef := common.NewResultRef()
	path := filepath.Join(s.videoDir, resultRef+".mp4")

	if err := os.WriteFile(path, video, 0o644); err != nil {
		return "", fmt.Errorf("failed to write video file: %w", err)
	}

	artifact := &models.Artifact{
		ResultRef:       resultRef,
		JobID:           jobID,
		OwnerID:         ownerID,
		Path:            path,
		SizeBytes:       int64(len(video)),
		DurationSeconds: durationSeconds,
		CreatedAt:       time.Now(),
	}

	if err := s.storage.SaveArtifact(ctx, artifact); err != nil {
		// metadata is the source of truth; remove the orphaned file
		if removeErr := os.Remove(path); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("path", path).Msg("Failed to remove orphaned video file")
		}
		return "", fmt.Errorf("failed to record artifact: %w", err)
	}

	s.logger.Info().
		Str("job_id", jobID).
		Str("result_ref", resultRef).
		Int64("size_bytes", artifact.SizeBytes).
		Msg("Artifact persisted")

	return resultRef, nil
}

// GetArtifact resolves a reference to its metadata
func (s *Store) GetArtifact(ctx context.Context, resultRef string) (*models.Artifact, error) {
	return s.storage.GetArtifact(ctx, resultRef)
}

// Open returns a reader positioned at the start of the stored video
func (s *Store) Open(ctx context.Context, resultRef string) (*os.File, *models.Artifact, error) {
	artifact, err := s.storage.GetArtifact(ctx, resultRef)
	if err != nil {
		return nil, nil, err
	}
	if artifact == nil {
		return nil, nil, fmt.Errorf("artifact %s not found", resultRef)
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open artifact file: %w", err)
	}
	return f, artifact, nil
}
