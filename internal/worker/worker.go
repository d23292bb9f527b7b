package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"github.com/kanadm12/Spartis-App/internal/blob"
	"github.com/kanadm12/Spartis-App/internal/models"
	"github.com/kanadm12/Spartis-App/internal/pipeline"
	"github.com/kanadm12/Spartis-App/internal/store"
	"github.com/kanadm12/Spartis-App/internal/tasks"
)

// PipelineRunner is what HandleConvertJob needs from the sequencer.
type PipelineRunner interface {
	Run(ctx context.Context, in pipeline.RunInput, sink pipeline.ProgressSink) (string, error)
}

// ConvertDeps bundles the dependencies for the conversion handler.
type ConvertDeps struct {
	Runner   PipelineRunner
	Progress store.ProgressStore
}

// BlobDeps bundles the dependencies for the side-upload handler.
type BlobDeps struct {
	Uploader *blob.Uploader
}

// RegisterHandlers attaches the task handlers to the mux.
func RegisterHandlers(mux *asynq.ServeMux, convert ConvertDeps, blobDeps BlobDeps) {
	mux.HandleFunc(tasks.TypeConvertJob, HandleConvertJob(convert))
	mux.HandleFunc(tasks.TypeBlobUpload, HandleBlobUploadJob(blobDeps))
}

// HandleConvertJob runs one pipeline invocation and owns the job's terminal
// state: exactly one Completed or Error record is written per job, and a
// failure never propagates beyond this job. Progress-store write failures
// are logged and swallowed so the conversion still finishes when the KV is
// down.
func HandleConvertJob(deps ConvertDeps) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p store.ConvertPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("decode convert payload: %v: %w", err, asynq.SkipRetry)
		}

		sink := pipeline.SinkFunc(func(step string, percent int) {
			log.Printf("[%s] Progress: %s - %d%%", p.JobID, step, percent)
			writeProgress(ctx, deps.Progress, p.JobID, models.ProgressRecord{Step: step, Progress: percent})
		})

		stlPath, err := deps.Runner.Run(ctx, pipeline.RunInput{
			InputPath: p.InputPath,
			OutputDir: p.OutputDir,
			JobID:     p.JobID,
			Threshold: p.Threshold,
		}, sink)
		if err != nil {
			log.Errorf("Pipeline failed for %s: %v", p.JobID, err)
			writeProgress(ctx, deps.Progress, p.JobID, models.Errored())
			// The Error record is the job's terminal state; a retry would
			// write a second one.
			return fmt.Errorf("pipeline for %s: %v: %w", p.JobID, err, asynq.SkipRetry)
		}

		writeProgress(ctx, deps.Progress, p.JobID, models.Completed(filepath.Base(stlPath)))
		log.Printf("Pipeline completed for %s: %s", p.JobID, stlPath)
		return nil
	}
}

// HandleBlobUploadJob copies the raw upload to cold storage. Failures are
// observable only via logs; they never affect the job's progress records.
func HandleBlobUploadJob(deps BlobDeps) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p store.BlobUploadPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Errorf("Decode blob upload payload: %v", err)
			return nil
		}
		if err := deps.Uploader.Upload(ctx, p.FilePath, p.OriginalFilename); err != nil {
			log.Errorf("Blob upload failed for %s: %v", p.OriginalFilename, err)
		}
		return nil
	}
}

func writeProgress(ctx context.Context, ps store.ProgressStore, jobID string, rec models.ProgressRecord) {
	if ps == nil {
		return
	}
	if err := ps.SetProgress(ctx, jobID, rec); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			log.Warnf("Progress store unavailable, dropping update for %s (%s %d%%)", jobID, rec.Step, rec.Progress)
			return
		}
		log.Errorf("Failed to write progress for %s: %v", jobID, err)
	}
}
