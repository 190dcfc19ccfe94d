package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// defaultTTL is how long results are retained without an explicit TTL.
const defaultTTL = 24 * time.Hour

// RedisStore provides a Redis-backed implementation of the Store
// interface. Results are stored as JSON with TTL-based cleanup; a sorted
// set per workflow indexes execution IDs by completion time. Suitable for
// distributed systems and production deployments.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the time-to-live for stored results. After this duration
// results are automatically deleted. Default is 24 hours; 0 disables
// expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithPrefix sets the key prefix for Redis keys. Default is "flowkit".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore creates a new Redis-backed result store.
//
//	store := runstore.NewRedisStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    runstore.WithTTL(12*time.Hour),
//	)
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		ttl:    defaultTTL,
		prefix: "flowkit",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Save persists a result to Redis with TTL. Uses a pipeline to batch the
// SET and the workflow index update into a single round-trip.
func (s *RedisStore) Save(ctx context.Context, result *workflow.Result) error {
	if result == nil || result.ExecutionID == "" {
		return ErrInvalidResult
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.resultKey(result.ExecutionID), data, s.ttl)

	if result.WorkflowID != "" {
		indexKey := s.workflowIndexKey(result.WorkflowID)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(result.CompletedAt.UnixNano()),
			Member: result.ExecutionID,
		})
		if s.ttl > 0 {
			pipe.Expire(ctx, indexKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// Get retrieves a result by execution ID.
func (s *RedisStore) Get(ctx context.Context, executionID string) (*workflow.Result, error) {
	if executionID == "" {
		return nil, ErrInvalidResult
	}

	data, err := s.client.Get(ctx, s.resultKey(executionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var result workflow.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

// List returns results matching the options, newest first. Listing
// without a WorkflowID scans result keys and is intended for small
// deployments and tooling, not hot paths.
func (s *RedisStore) List(ctx context.Context, opts ListOptions) ([]*workflow.Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var ids []string
	var err error
	if opts.WorkflowID != "" {
		// Newest first from the per-workflow index.
		ids, err = s.client.ZRevRange(ctx, s.workflowIndexKey(opts.WorkflowID), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("redis zrevrange failed: %w", err)
		}
	} else {
		keys, scanErr := s.client.Keys(ctx, s.prefix+":result:*").Result()
		if scanErr != nil {
			return nil, fmt.Errorf("redis keys failed: %w", scanErr)
		}
		for _, key := range keys {
			ids = append(ids, key[len(s.prefix)+len(":result:"):])
		}
	}

	results := make([]*workflow.Result, 0, len(ids))
	for _, id := range ids {
		result, getErr := s.Get(ctx, id)
		if errors.Is(getErr, ErrNotFound) {
			continue // expired but still indexed
		}
		if getErr != nil {
			return nil, getErr
		}
		if opts.Status != "" && result.Status != opts.Status {
			continue
		}
		results = append(results, result)
	}

	if opts.WorkflowID == "" {
		sortByCompletion(results)
	}

	if opts.Offset >= len(results) {
		return nil, nil
	}
	results = results[opts.Offset:]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete removes a result and its index entry.
func (s *RedisStore) Delete(ctx context.Context, executionID string) error {
	if executionID == "" {
		return ErrInvalidResult
	}

	result, err := s.Get(ctx, executionID)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.resultKey(executionID))
	if result.WorkflowID != "" {
		pipe.ZRem(ctx, s.workflowIndexKey(result.WorkflowID), executionID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

func (s *RedisStore) resultKey(executionID string) string {
	return fmt.Sprintf("%s:result:%s", s.prefix, executionID)
}

func (s *RedisStore) workflowIndexKey(workflowID string) string {
	return fmt.Sprintf("%s:workflow:%s", s.prefix, workflowID)
}

func sortByCompletion(results []*workflow.Result) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].CompletedAt.After(results[j].CompletedAt)
	})
}
