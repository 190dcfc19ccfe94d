package workflow

import (
	"maps"
	"sync"
	"time"
)

// ExecutionContext is the mutable state threaded through one workflow run.
// The engine owns it for the run's lifetime; handlers read inputs and
// variables and the engine merges each completed step's output back in,
// keyed by the step's ID.
//
// Accessors are safe for concurrent use because parallel fan-out steps
// read and write the context from multiple goroutines.
type ExecutionContext struct {
	WorkflowID  string
	ExecutionID string
	StartedAt   time.Time
	Inputs      map[string]any // read-only after construction
	Metadata    map[string]any

	mu        sync.RWMutex
	outputs   map[string]any
	variables map[string]any
	status    Status
	current   string
	history   []StepExecution
	duration  time.Duration
}

// NewExecutionContext creates the run state for one invocation. Variables
// are seeded from the inputs map.
func NewExecutionContext(workflowID, executionID string, inputs map[string]any) *ExecutionContext {
	vars := make(map[string]any, len(inputs))
	maps.Copy(vars, inputs)
	return &ExecutionContext{
		WorkflowID:  workflowID,
		ExecutionID: executionID,
		StartedAt:   time.Now(),
		Inputs:      inputs,
		Metadata:    make(map[string]any),
		outputs:     make(map[string]any),
		variables:   vars,
		status:      StatusRunning,
	}
}

// Status returns the current execution status.
func (ec *ExecutionContext) Status() Status {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.status
}

// SetStatus updates the execution status.
func (ec *ExecutionContext) SetStatus(s Status) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.status = s
}

// CurrentStep returns the ID of the step currently executing, or "" when
// the run is between steps.
func (ec *ExecutionContext) CurrentStep() string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.current
}

// SetCurrentStep records the step about to execute.
func (ec *ExecutionContext) SetCurrentStep(stepID string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.current = stepID
}

// Variable returns the variable bound to the given key.
func (ec *ExecutionContext) Variable(key string) (any, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	v, ok := ec.variables[key]
	return v, ok
}

// SetVariable binds a variable. Step handlers may use this for scratch
// values beyond their own output binding.
func (ec *ExecutionContext) SetVariable(key string, value any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.variables[key] = value
}

// Variables returns a snapshot copy of the variable bindings.
func (ec *ExecutionContext) Variables() map[string]any {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	snapshot := make(map[string]any, len(ec.variables))
	maps.Copy(snapshot, ec.variables)
	return snapshot
}

// SetOutput records a completed step's output, binding it in both the
// outputs map and the variables map under the step's ID. This is the
// mechanism by which later steps consume earlier steps' results.
func (ec *ExecutionContext) SetOutput(stepID string, output any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.outputs[stepID] = output
	ec.variables[stepID] = output
}

// Outputs returns a snapshot copy of the accumulated step outputs.
func (ec *ExecutionContext) Outputs() map[string]any {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	snapshot := make(map[string]any, len(ec.outputs))
	maps.Copy(snapshot, ec.outputs)
	return snapshot
}

// AppendExecution adds a step attempt record to the ordered history.
func (ec *ExecutionContext) AppendExecution(rec StepExecution) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.history = append(ec.history, rec)
}

// History returns a copy of the step execution records in the order the
// steps completed.
func (ec *ExecutionContext) History() []StepExecution {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	out := make([]StepExecution, len(ec.history))
	copy(out, ec.history)
	return out
}

// Finish stamps the total run duration.
func (ec *ExecutionContext) Finish() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.duration = time.Since(ec.StartedAt)
}

// Duration returns the total run duration, zero until Finish is called.
func (ec *ExecutionContext) Duration() time.Duration {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.duration
}
