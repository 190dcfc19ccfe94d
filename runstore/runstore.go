// Package runstore provides persistence for terminal workflow execution
// results. The engine keeps no history of finished runs itself; a Store
// is the seam through which hosts retain them.
package runstore

import (
	"context"
	"errors"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// ErrNotFound is returned when an execution result doesn't exist in the store.
var ErrNotFound = errors.New("execution result not found")

// ErrInvalidResult is returned when saving a nil result or one without an
// execution ID.
var ErrInvalidResult = errors.New("invalid execution result")

// ListOptions provides filtering and pagination for listing results.
type ListOptions struct {
	// WorkflowID filters results by workflow. Empty means all workflows.
	WorkflowID string

	// Status filters by terminal status. Empty means all statuses.
	Status workflow.Status

	// Limit is the maximum number of results to return. Zero applies a
	// default limit of 100.
	Limit int

	// Offset is the number of results to skip (for pagination).
	Offset int
}

// Store defines the persistence contract for execution results.
type Store interface {
	// Save persists a terminal execution result, replacing any previous
	// result with the same execution ID.
	Save(ctx context.Context, result *workflow.Result) error

	// Get retrieves a result by execution ID.
	Get(ctx context.Context, executionID string) (*workflow.Result, error)

	// List returns results matching the given options, newest first.
	List(ctx context.Context, opts ListOptions) ([]*workflow.Result, error)

	// Delete removes a result by execution ID.
	Delete(ctx context.Context, executionID string) error
}

// defaultListLimit applies when ListOptions.Limit is zero.
const defaultListLimit = 100
