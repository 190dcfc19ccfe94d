// Package engine implements the workflow orchestrator: it holds registered
// workflow definitions and step handlers, drives step execution with
// timeout and retry enforcement, bounds concurrent executions, and emits
// lifecycle events for observability.
package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/AltairaLabs/FlowKit/events"
	"github.com/AltairaLabs/FlowKit/logger"
	"github.com/AltairaLabs/FlowKit/steps"
	"github.com/AltairaLabs/FlowKit/workflow"
)

// ErrHandlerRegistered is returned when registering a handler for a step
// type that already has a user-registered handler. Built-in defaults are
// replaced silently; use ReplaceStepHandler to overwrite deliberately.
var ErrHandlerRegistered = errors.New("step handler already registered")

// persistTimeout bounds the run-store write after a run finishes.
const persistTimeout = 5 * time.Second

type handlerEntry struct {
	handler workflow.StepHandler
	builtin bool
}

// execution tracks one active run.
type execution struct {
	ec      *workflow.ExecutionContext
	def     *workflow.Definition
	emitter *events.Emitter
	cancel  context.CancelFunc

	stepTimeout time.Duration // call-level override, may be zero

	pauseMu sync.Mutex
	resume  chan struct{} // non-nil while paused
}

// pauseGate returns the channel to wait on while paused, or nil.
func (x *execution) pauseGate() chan struct{} {
	x.pauseMu.Lock()
	defer x.pauseMu.Unlock()
	return x.resume
}

func (x *execution) setPaused() {
	x.pauseMu.Lock()
	defer x.pauseMu.Unlock()
	if x.resume == nil {
		x.resume = make(chan struct{})
	}
}

func (x *execution) setResumed() {
	x.pauseMu.Lock()
	defer x.pauseMu.Unlock()
	if x.resume != nil {
		close(x.resume)
		x.resume = nil
	}
}

// Engine orchestrates workflow executions. Construct with New; each
// Engine is independent, enabling isolated test instances and multiple
// engines per process.
type Engine struct {
	cfg Config
	sem *semaphore.Weighted
	bus *events.Bus

	mu        sync.RWMutex
	workflows map[string]*workflow.Definition
	handlers  map[workflow.StepType]handlerEntry

	activeMu sync.RWMutex
	active   map[string]*execution
}

// New creates an Engine with the built-in step handlers registered as
// replaceable defaults.
func New(opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		bus:       events.NewBus(),
		workflows: make(map[string]*workflow.Definition),
		handlers:  make(map[workflow.StepType]handlerEntry),
		active:    make(map[string]*execution),
	}

	defaults := steps.Defaults(steps.Deps{
		Compiler:   cfg.Compiler,
		HTTPClient: cfg.HTTPClient,
		Limiter:    cfg.Limiter,
		Runner:     subRunner{engine: e},
		Custom:     cfg.Custom,
	})
	for stepType, handler := range defaults {
		e.handlers[stepType] = handlerEntry{handler: handler, builtin: true}
	}

	return e
}

// RegisterWorkflow stores a definition by ID, replacing any previous
// definition with the same ID.
func (e *Engine) RegisterWorkflow(def *workflow.Definition) error {
	if def == nil {
		return workflow.ErrInvalidDefinition
	}
	if err := def.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.workflows[def.ID] = def
	e.mu.Unlock()

	logger.Info("workflow registered",
		"workflow_id", def.ID,
		"name", def.Name,
		"steps", len(def.Steps),
	)
	return nil
}

// Workflow returns the definition registered under id.
func (e *Engine) Workflow(id string) (*workflow.Definition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	def, ok := e.workflows[id]
	return def, ok
}

// Workflows returns all registered definitions.
func (e *Engine) Workflows() []*workflow.Definition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	defs := make([]*workflow.Definition, 0, len(e.workflows))
	for _, def := range e.workflows {
		defs = append(defs, def)
	}
	return defs
}

// RegisterStepHandler associates a handler with a step type. A built-in
// default is replaced silently; a second user registration for the same
// type returns ErrHandlerRegistered to catch accidental collisions.
func (e *Engine) RegisterStepHandler(stepType workflow.StepType, handler workflow.StepHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.handlers[stepType]; ok && !existing.builtin {
		return fmt.Errorf("%w: %s", ErrHandlerRegistered, stepType)
	}
	e.handlers[stepType] = handlerEntry{handler: handler}
	return nil
}

// ReplaceStepHandler associates a handler with a step type, overwriting
// any previous registration.
func (e *Engine) ReplaceStepHandler(stepType workflow.StepType, handler workflow.StepHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[stepType] = handlerEntry{handler: handler}
}

// StepHandler returns the handler registered for the step type.
func (e *Engine) StepHandler(stepType workflow.StepType) (workflow.StepHandler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.handlers[stepType]
	return entry.handler, ok
}

// Subscribe registers an event listener for one event type.
func (e *Engine) Subscribe(eventType events.Type, listener events.Listener) events.Subscription {
	return e.bus.Subscribe(eventType, listener)
}

// SubscribeAll registers an event listener for every event type.
func (e *Engine) SubscribeAll(listener events.Listener) events.Subscription {
	return e.bus.SubscribeAll(listener)
}

// Bus exposes the engine's event bus, e.g. for wiring a metrics listener.
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// Execute runs the workflow registered under workflowID against the given
// inputs and blocks until the run reaches a terminal state. Failures are
// always reported inside the Result, never as a panic or error return.
func (e *Engine) Execute(ctx context.Context, workflowID string, inputs map[string]any, opts ...ExecOption) *workflow.Result {
	var eo execOptions
	for _, opt := range opts {
		opt(&eo)
	}

	def, ok := e.Workflow(workflowID)
	if !ok {
		return failedResult(eo.executionID, workflowID, fmt.Sprintf("workflow not found: %s", workflowID))
	}

	// Ceiling check and slot acquisition are one atomic operation.
	if !e.sem.TryAcquire(1) {
		return failedResult(eo.executionID, workflowID, "maximum concurrent executions reached")
	}
	defer e.sem.Release(1)

	executionID := eo.executionID
	if executionID == "" {
		executionID = uuid.NewString()
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if def.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, def.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	ec := workflow.NewExecutionContext(workflowID, executionID, inputs)
	maps.Copy(ec.Metadata, eo.metadata)

	exec := &execution{
		ec:          ec,
		def:         def,
		emitter:     events.NewEmitter(e.bus, workflowID, executionID),
		cancel:      cancel,
		stepTimeout: eo.stepTimeout,
	}

	if !e.addActive(executionID, exec) {
		return failedResult(executionID, workflowID, fmt.Sprintf("execution ID already active: %s", executionID))
	}
	defer e.removeActive(executionID)

	logger.Info("workflow execution started",
		"workflow_id", workflowID,
		"execution_id", executionID,
	)
	exec.emitter.WorkflowStarted(len(def.Steps), keysOf(inputs))

	result := e.run(runCtx, exec)
	e.persist(result)
	return result
}

// run drives the step walk and produces the terminal result. Any panic
// escaping the loop is converted into a failed result.
func (e *Engine) run(ctx context.Context, exec *execution) (result *workflow.Result) {
	ec, def := exec.ec, exec.def

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("orchestrator panic: %v", r)
			logger.Error("workflow execution panicked",
				"workflow_id", ec.WorkflowID,
				"execution_id", ec.ExecutionID,
				"panic", r,
			)
			ec.SetStatus(workflow.StatusFailed)
			ec.Finish()
			exec.emitter.WorkflowFailed(err, ec.Duration())
			result = terminalResult(ec, workflow.StatusFailed, err.Error())
		}
	}()

	// Steps listed in a parallel group or referenced as a condition
	// branch run only inside their owning step, never in the top-level
	// walk.
	subSteps := make(map[string]bool)
	for i := range def.Steps {
		switch step := &def.Steps[i]; step.Type {
		case workflow.StepParallel:
			for _, childID := range step.Parallel.Steps {
				subSteps[childID] = true
			}
		case workflow.StepCondition:
			if step.Condition.TrueStep != "" {
				subSteps[step.Condition.TrueStep] = true
			}
			if step.Condition.FalseStep != "" {
				subSteps[step.Condition.FalseStep] = true
			}
		}
	}

	for i := range def.Steps {
		step := &def.Steps[i]
		if subSteps[step.ID] {
			continue
		}

		if stop := exec.awaitResume(ctx); stop != nil {
			return e.interrupted(exec, stop)
		}
		if ctx.Err() != nil {
			return e.interrupted(exec, ctx.Err())
		}

		output, rec, err := e.runStep(ctx, exec, step)
		ec.AppendExecution(rec)
		if err != nil {
			if ec.Status() == workflow.StatusCancelled {
				return e.interrupted(exec, context.Canceled)
			}
			ec.SetStatus(workflow.StatusFailed)
			ec.Finish()
			exec.emitter.WorkflowFailed(err, ec.Duration())
			logger.Warn("workflow execution failed",
				"workflow_id", ec.WorkflowID,
				"execution_id", ec.ExecutionID,
				"step_id", step.ID,
				"error", err.Error(),
			)
			return terminalResult(ec, workflow.StatusFailed, err.Error())
		}

		if output != nil {
			ec.SetOutput(step.ID, output)
		}
	}

	ec.SetStatus(workflow.StatusCompleted)
	ec.Finish()
	outputs := ec.Outputs()
	exec.emitter.WorkflowCompleted(ec.Duration(), len(ec.History()), keysOf(outputs))
	logger.Info("workflow execution completed",
		"workflow_id", ec.WorkflowID,
		"execution_id", ec.ExecutionID,
		"duration", ec.Duration(),
	)
	return terminalResult(ec, workflow.StatusCompleted, "")
}

// awaitResume blocks while the execution is paused. It returns a non-nil
// error when the context ends first.
func (x *execution) awaitResume(ctx context.Context) error {
	gate := x.pauseGate()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// interrupted produces the terminal result after cancellation or a
// run-level deadline.
func (e *Engine) interrupted(exec *execution, cause error) *workflow.Result {
	ec := exec.ec
	ec.Finish()
	if ec.Status() == workflow.StatusCancelled {
		// Cancel already emitted the event and evicted the execution.
		return terminalResult(ec, workflow.StatusCancelled, "execution cancelled")
	}
	ec.SetStatus(workflow.StatusFailed)
	msg := "execution timeout"
	if cause != nil && !errors.Is(cause, context.DeadlineExceeded) {
		msg = cause.Error()
	}
	exec.emitter.WorkflowFailed(errors.New(msg), ec.Duration())
	return terminalResult(ec, workflow.StatusFailed, msg)
}

// Cancel stops an active execution cooperatively: its status flips to
// cancelled, the cancellation event is emitted, its context is cancelled
// so in-flight handlers can abort, and it is removed from the active set.
// Returns false when no active execution has the given ID.
func (e *Engine) Cancel(executionID string) bool {
	e.activeMu.Lock()
	exec, ok := e.active[executionID]
	if ok {
		delete(e.active, executionID)
	}
	e.activeMu.Unlock()
	if !ok {
		return false
	}

	exec.ec.SetStatus(workflow.StatusCancelled)
	exec.setResumed() // unblock a paused run so it can observe the cancel
	exec.cancel()
	exec.emitter.WorkflowCancelled(time.Since(exec.ec.StartedAt))
	logger.Info("workflow execution cancelled",
		"workflow_id", exec.ec.WorkflowID,
		"execution_id", executionID,
	)
	return true
}

// Pause suspends an active execution before its next step. Returns false
// when the ID is unknown or the execution is not running.
func (e *Engine) Pause(executionID string) bool {
	e.activeMu.RLock()
	exec, ok := e.active[executionID]
	e.activeMu.RUnlock()
	if !ok || exec.ec.Status() != workflow.StatusRunning {
		return false
	}

	exec.ec.SetStatus(workflow.StatusPaused)
	exec.setPaused()
	exec.emitter.WorkflowPaused(exec.ec.CurrentStep())
	return true
}

// Resume continues a paused execution. Returns false when the ID is
// unknown or the execution is not paused.
func (e *Engine) Resume(executionID string) bool {
	e.activeMu.RLock()
	exec, ok := e.active[executionID]
	e.activeMu.RUnlock()
	if !ok || exec.ec.Status() != workflow.StatusPaused {
		return false
	}

	exec.ec.SetStatus(workflow.StatusRunning)
	exec.setResumed()
	exec.emitter.WorkflowResumed()
	return true
}

// Status returns the status of an active execution. The second return is
// false once the execution has reached a terminal state and been removed
// from the active set.
func (e *Engine) Status(executionID string) (workflow.Status, bool) {
	e.activeMu.RLock()
	defer e.activeMu.RUnlock()
	exec, ok := e.active[executionID]
	if !ok {
		return "", false
	}
	return exec.ec.Status(), true
}

// ActiveExecutions returns the IDs of all currently active executions.
func (e *Engine) ActiveExecutions() []string {
	e.activeMu.RLock()
	defer e.activeMu.RUnlock()
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot is a point-in-time view of engine registrations and load.
type Snapshot struct {
	Workflows        int
	StepHandlers     int
	ActiveExecutions int
	Listeners        int
}

// Metrics returns a snapshot of engine state.
func (e *Engine) Metrics() Snapshot {
	e.mu.RLock()
	workflows, handlers := len(e.workflows), len(e.handlers)
	e.mu.RUnlock()

	e.activeMu.RLock()
	active := len(e.active)
	e.activeMu.RUnlock()

	return Snapshot{
		Workflows:        workflows,
		StepHandlers:     handlers,
		ActiveExecutions: active,
		Listeners:        e.bus.ListenerCount(),
	}
}

func (e *Engine) addActive(executionID string, exec *execution) bool {
	e.activeMu.Lock()
	defer e.activeMu.Unlock()
	if _, exists := e.active[executionID]; exists {
		return false
	}
	e.active[executionID] = exec
	return true
}

func (e *Engine) removeActive(executionID string) {
	e.activeMu.Lock()
	defer e.activeMu.Unlock()
	delete(e.active, executionID)
}

func (e *Engine) activeExecution(executionID string) (*execution, bool) {
	e.activeMu.RLock()
	defer e.activeMu.RUnlock()
	exec, ok := e.active[executionID]
	return exec, ok
}

// persist writes a terminal result to the configured run store, if any.
// Store failures are logged, never surfaced to the caller.
func (e *Engine) persist(result *workflow.Result) {
	if e.cfg.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := e.cfg.Store.Save(ctx, result); err != nil {
		logger.Warn("failed to persist execution result",
			"execution_id", result.ExecutionID,
			"error", err.Error(),
		)
	}
}

// subRunner lets the parallel handler execute sibling steps with full
// executor semantics without importing the engine package.
type subRunner struct {
	engine *Engine
}

// RunStep implements steps.SubStepRunner.
func (r subRunner) RunStep(ctx context.Context, ec *workflow.ExecutionContext, stepID string) (any, error) {
	exec, ok := r.engine.activeExecution(ec.ExecutionID)
	if !ok {
		return nil, fmt.Errorf("execution no longer active: %s", ec.ExecutionID)
	}
	step, ok := exec.def.Step(stepID)
	if !ok {
		return nil, fmt.Errorf("step not found: %s", stepID)
	}

	output, rec, err := r.engine.runStep(ctx, exec, step)
	ec.AppendExecution(rec)
	if err != nil {
		return nil, err
	}
	if output != nil {
		ec.SetOutput(stepID, output)
	}
	return output, nil
}

func terminalResult(ec *workflow.ExecutionContext, status workflow.Status, errMsg string) *workflow.Result {
	return &workflow.Result{
		ExecutionID:    ec.ExecutionID,
		WorkflowID:     ec.WorkflowID,
		Success:        status == workflow.StatusCompleted,
		Status:         status,
		Outputs:        ec.Outputs(),
		Duration:       ec.Duration(),
		StepExecutions: ec.History(),
		Error:          errMsg,
		StartedAt:      ec.StartedAt,
		CompletedAt:    ec.StartedAt.Add(ec.Duration()),
	}
}

// failedResult reports a failure that happens before any execution
// context exists (unknown workflow, ceiling reached).
func failedResult(executionID, workflowID, errMsg string) *workflow.Result {
	now := time.Now()
	return &workflow.Result{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		Success:     false,
		Status:      workflow.StatusFailed,
		Outputs:     map[string]any{},
		Error:       errMsg,
		StartedAt:   now,
		CompletedAt: now,
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
