package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/FlowKit/engine"
	"github.com/AltairaLabs/FlowKit/template"
	"github.com/AltairaLabs/FlowKit/workflow"
)

func echoDef(t *testing.T, id string) *workflow.Definition {
	t.Helper()
	def, err := workflow.NewBuilder(id, id).
		AddCustomStep("echo", "Echo", "echo", map[string]any{"value": id + "-out"}).
		Build()
	require.NoError(t, err)
	return def
}

func newRunner(t *testing.T, engOpts []engine.Option, opts ...Option) *Runner {
	t.Helper()
	engOpts = append(engOpts, engine.WithCustomFunc("echo",
		func(_ context.Context, config map[string]any, _ *workflow.ExecutionContext) (any, error) {
			return config["value"], nil
		}))
	return New(engine.New(engOpts...), opts...)
}

func TestExecuteDefinitionRegistersAndRuns(t *testing.T) {
	r := newRunner(t, nil)

	result, err := r.ExecuteDefinition(context.Background(), echoDef(t, "adhoc"), nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "adhoc-out", result.Outputs["echo"])

	// The definition is now registered on the engine.
	_, ok := r.Engine().Workflow("adhoc")
	assert.True(t, ok)
}

func TestExecuteDefinitionInvalid(t *testing.T) {
	r := newRunner(t, nil)

	_, err := r.ExecuteDefinition(context.Background(), &workflow.Definition{ID: "bad"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrInvalidDefinition)
}

func TestExecuteWithRetryEventuallySucceeds(t *testing.T) {
	var calls atomic.Int64
	r := newRunner(t,
		[]engine.Option{engine.WithCustomFunc("flaky",
			func(context.Context, map[string]any, *workflow.ExecutionContext) (any, error) {
				if calls.Add(1) < 3 {
					return nil, errors.New("transient")
				}
				return "steady", nil
			})},
		WithRetryPolicy(workflow.RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond}),
	)

	def, err := workflow.NewBuilder("flaky-wf", "Flaky").
		AddCustomStep("flaky", "Flaky", "flaky", nil).
		Build()
	require.NoError(t, err)
	require.NoError(t, r.Engine().RegisterWorkflow(def))

	result := r.ExecuteWithRetry(context.Background(), "flaky-wf", nil)

	assert.True(t, result.Success)
	assert.Equal(t, int64(3), calls.Load())
}

func TestExecuteWithRetryExhausted(t *testing.T) {
	var calls atomic.Int64
	r := newRunner(t,
		[]engine.Option{engine.WithCustomFunc("broken",
			func(context.Context, map[string]any, *workflow.ExecutionContext) (any, error) {
				calls.Add(1)
				return nil, errors.New("permanent")
			})},
		WithRetryPolicy(workflow.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond}),
	)

	def, err := workflow.NewBuilder("broken-wf", "Broken").
		AddCustomStep("broken", "Broken", "broken", nil).
		Build()
	require.NoError(t, err)
	require.NoError(t, r.Engine().RegisterWorkflow(def))

	result := r.ExecuteWithRetry(context.Background(), "broken-wf", nil)

	assert.False(t, result.Success)
	assert.Equal(t, int64(2), calls.Load())
	assert.Contains(t, result.Error, "permanent")
}

func TestExecuteParallelAllSettle(t *testing.T) {
	r := newRunner(t, []engine.Option{
		engine.WithCustomFunc("fail", func(context.Context, map[string]any, *workflow.ExecutionContext) (any, error) {
			return nil, errors.New("boom")
		}),
	})
	require.NoError(t, r.Engine().RegisterWorkflow(echoDef(t, "good")))

	failing, err := workflow.NewBuilder("bad", "Bad").
		AddCustomStep("fail", "Fail", "fail", nil).
		Build()
	require.NoError(t, err)
	require.NoError(t, r.Engine().RegisterWorkflow(failing))

	results, err := r.ExecuteParallel(context.Background(), []Run{
		{WorkflowID: "good"},
		{WorkflowID: "bad"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Results keep the caller's order; failures settle inside their Result.
	assert.True(t, results[0].Success)
	assert.Equal(t, "good-out", results[0].Outputs["echo"])
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "boom")
}

func TestExecuteParallelEmpty(t *testing.T) {
	r := newRunner(t, nil)
	_, err := r.ExecuteParallel(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoWorkflows)
}

func TestExecuteRaceFirstWins(t *testing.T) {
	r := newRunner(t, []engine.Option{
		engine.WithCustomFunc("slow", func(ctx context.Context, _ map[string]any, _ *workflow.ExecutionContext) (any, error) {
			select {
			case <-time.After(5 * time.Second):
				return "slow", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}),
	})
	require.NoError(t, r.Engine().RegisterWorkflow(echoDef(t, "sprinter")))

	slow, err := workflow.NewBuilder("marathoner", "Marathoner").
		AddCustomStep("slow", "Slow", "slow", nil).
		Build()
	require.NoError(t, err)
	require.NoError(t, r.Engine().RegisterWorkflow(slow))

	start := time.Now()
	result, err := r.ExecuteRace(context.Background(), []Run{
		{WorkflowID: "sprinter"},
		{WorkflowID: "marathoner"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sprinter", result.WorkflowID)
	assert.True(t, result.Success)
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecuteRaceEmpty(t *testing.T) {
	r := newRunner(t, nil)
	_, err := r.ExecuteRace(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoWorkflows)
}

func TestPromptChainTemplate(t *testing.T) {
	reg := template.NewRegistry()
	require.NoError(t, reg.Register(template.Template{ID: "intro", Text: "You are a {{role}}."}))
	require.NoError(t, reg.Register(template.Template{ID: "task", Text: "Summarize: {{chain-0}}"}))

	r := newRunner(t, []engine.Option{engine.WithCompiler(reg)})

	def, err := PromptChain("chained", "Chained prompts", "intro", "task")
	require.NoError(t, err)
	require.Len(t, def.Steps, 2)

	result, execErr := r.ExecuteDefinition(context.Background(), def, map[string]any{"role": "summarizer"})
	require.NoError(t, execErr)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "You are a summarizer.", result.Outputs["chain-0"])
	assert.Equal(t, "Summarize: You are a summarizer.", result.Outputs["chain-1"])
}

func TestFetchTransformTemplate(t *testing.T) {
	def, err := FetchTransform("ft", "Fetch and transform", "https://api.example.com", "input.x * 2", "doubled")
	require.NoError(t, err)
	require.Len(t, def.Steps, 2)
	assert.Equal(t, workflow.StepAPICall, def.Steps[0].Type)
	assert.Equal(t, workflow.StepTransform, def.Steps[1].Type)
	assert.Equal(t, "fetch", def.Steps[1].Transform.InputPath)
}

func TestConditionalFetchTemplate(t *testing.T) {
	def, err := ConditionalFetch("cf", "Conditional fetch", "inputs.refresh", "https://api.example.com", "variables.gate")
	require.NoError(t, err)
	require.Len(t, def.Steps, 3)
	assert.Equal(t, "fetch", def.Steps[0].Condition.TrueStep)
	assert.Empty(t, def.Steps[0].Condition.FalseStep)
}
