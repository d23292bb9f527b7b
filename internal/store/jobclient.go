package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"github.com/kanadm12/Spartis-App/internal/tasks"
)

// AsynqJobClient is the concrete JobClient backed by an asynq/redis queue.
// Ensure it implements JobClient.
var _ JobClient = (*AsynqJobClient)(nil)

type AsynqJobClient struct {
	client *asynq.Client
}

func NewAsynqJobClient(redisOpt asynq.RedisClientOpt) *AsynqJobClient {
	return &AsynqJobClient{client: asynq.NewClient(redisOpt)}
}

func (jc *AsynqJobClient) Close() error {
	return jc.client.Close()
}

// EnqueueConvertJob schedules one pipeline run. MaxRetry is zero on purpose:
// a failed job ends in the Error record and the client resubmits; a retry
// would break the exactly-once terminal-write guarantee.
func (jc *AsynqJobClient) EnqueueConvertJob(ctx context.Context, p ConvertPayload) error {
	if jc.client == nil {
		return fmt.Errorf("job client is not initialized")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal convert payload: %w", err)
	}
	task := asynq.NewTask(tasks.TypeConvertJob, payload)
	info, err := jc.client.EnqueueContext(ctx, task,
		asynq.Queue(tasks.QueueConvert), asynq.MaxRetry(0))
	if err != nil {
		return fmt.Errorf("enqueue convert job %s: %w", p.JobID, err)
	}
	log.Printf("Enqueued convert job: job_id=%s task_id=%s queue=%s", p.JobID, info.ID, info.Queue)
	return nil
}

// EnqueueBlobUpload schedules the best-effort cold-storage upload. Failure
// here is logged and swallowed: the side channel must never affect the job.
func (jc *AsynqJobClient) EnqueueBlobUpload(ctx context.Context, p BlobUploadPayload) error {
	if jc.client == nil {
		return fmt.Errorf("job client is not initialized")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal blob upload payload: %w", err)
	}
	task := asynq.NewTask(tasks.TypeBlobUpload, payload)
	if _, err := jc.client.EnqueueContext(ctx, task,
		asynq.Queue(tasks.QueueUploads), asynq.MaxRetry(0)); err != nil {
		return fmt.Errorf("enqueue blob upload for %s: %w", p.OriginalFilename, err)
	}
	return nil
}
