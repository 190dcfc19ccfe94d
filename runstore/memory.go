package runstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// MemoryStore provides an in-memory implementation of the Store interface.
// It is thread-safe and suitable for development, testing, and
// single-instance deployments. For distributed systems, use RedisStore.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*workflow.Result

	// Index for efficient workflow-based lookups.
	workflowIndex map[string][]string // workflowID -> []executionID
}

// NewMemoryStore creates a new in-memory result store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results:       make(map[string]*workflow.Result),
		workflowIndex: make(map[string][]string),
	}
}

// Save persists a result, replacing any previous result with the same
// execution ID.
func (s *MemoryStore) Save(_ context.Context, result *workflow.Result) error {
	if result == nil || result.ExecutionID == "" {
		return ErrInvalidResult
	}

	cp, err := copyResult(result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[result.ExecutionID]; !exists && result.WorkflowID != "" {
		s.workflowIndex[result.WorkflowID] = append(s.workflowIndex[result.WorkflowID], result.ExecutionID)
	}
	s.results[result.ExecutionID] = cp
	return nil
}

// Get retrieves a result by execution ID. Returns a deep copy to prevent
// external mutations.
func (s *MemoryStore) Get(_ context.Context, executionID string) (*workflow.Result, error) {
	if executionID == "" {
		return nil, ErrInvalidResult
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.results[executionID]
	if !exists {
		return nil, ErrNotFound
	}
	return copyResult(result)
}

// List returns stored results matching the options, newest first.
func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]*workflow.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*workflow.Result, 0, len(s.results))
	for _, result := range s.results {
		if opts.WorkflowID != "" && result.WorkflowID != opts.WorkflowID {
			continue
		}
		if opts.Status != "" && result.Status != opts.Status {
			continue
		}
		matched = append(matched, result)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CompletedAt.After(matched[j].CompletedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if opts.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[opts.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*workflow.Result, 0, len(matched))
	for _, result := range matched {
		cp, err := copyResult(result)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// Delete removes a result by execution ID.
func (s *MemoryStore) Delete(_ context.Context, executionID string) error {
	if executionID == "" {
		return ErrInvalidResult
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, exists := s.results[executionID]
	if !exists {
		return ErrNotFound
	}
	delete(s.results, executionID)

	ids := s.workflowIndex[result.WorkflowID]
	for i, id := range ids {
		if id == executionID {
			s.workflowIndex[result.WorkflowID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// copyResult deep-copies a result via JSON round-trip. Outputs hold
// arbitrary values, so structural copying is the safe option.
func copyResult(result *workflow.Result) (*workflow.Result, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var cp workflow.Result
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}
