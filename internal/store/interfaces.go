package store

import (
	"context"

	"github.com/kanadm12/Spartis-App/internal/models"
)

// --- Progress Store ---

// ProgressStore is the shared job-status KV. Records are small JSON blobs
// keyed by job id, expiring a fixed window after the last write. Both the
// HTTP surface and the worker hold independent handles to the same store;
// writes are plain overwrites (last write wins, no transactions).
type ProgressStore interface {
	// SetProgress overwrites the record for jobID and refreshes its TTL.
	// Returns ErrUnavailable (wrapped) when the backing service is down.
	SetProgress(ctx context.Context, jobID string, rec models.ProgressRecord) error
	// GetProgress returns the most recently written record, or ErrNotFound
	// if never written or expired.
	GetProgress(ctx context.Context, jobID string) (*models.ProgressRecord, error)
}

// --- Job Client ---

// ConvertPayload is the conversion task payload.
type ConvertPayload struct {
	JobID     string  `json:"job_id"`
	InputPath string  `json:"input_path"`
	OutputDir string  `json:"output_dir"`
	Threshold float64 `json:"threshold"`
}

// BlobUploadPayload is the cold-storage side-upload task payload.
type BlobUploadPayload struct {
	FilePath         string `json:"file_path"`
	OriginalFilename string `json:"original_filename"`
}

// JobClient enqueues background work for the worker process.
type JobClient interface {
	EnqueueConvertJob(ctx context.Context, p ConvertPayload) error
	EnqueueBlobUpload(ctx context.Context, p BlobUploadPayload) error
	Close() error
}
