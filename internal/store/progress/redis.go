package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kanadm12/Spartis-App/internal/models"
	"github.com/kanadm12/Spartis-App/internal/store"
)

// TTL is the retention window for progress records, measured from the last
// write. Expired records read back as absent (implicit Pending).
const TTL = time.Hour

// RedisStore keeps progress records in redis under the raw job id, as JSON.
// A RedisStore with a nil client degrades to a no-op writer and an
// always-absent reader, so the pipeline still runs when the KV is not
// configured; polling clients just see Pending.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ store.ProgressStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: TTL}
}

func (s *RedisStore) SetProgress(ctx context.Context, jobID string, rec models.ProgressRecord) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal progress record: %w", err)
	}
	if err := s.client.Set(ctx, jobID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", store.ErrUnavailable, jobID, err)
	}
	return nil
}

func (s *RedisStore) GetProgress(ctx context.Context, jobID string) (*models.ProgressRecord, error) {
	if s.client == nil {
		return nil, store.ErrNotFound
	}
	data, err := s.client.Get(ctx, jobID).Bytes()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", store.ErrUnavailable, jobID, err)
	}
	var rec models.ProgressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal progress record %s: %w", jobID, err)
	}
	return &rec, nil
}

// Ping reports whether the backing redis is reachable. Used by the health
// endpoint only.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return store.ErrUnavailable
	}
	return s.client.Ping(ctx).Err()
}
