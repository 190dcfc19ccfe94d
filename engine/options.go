package engine

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/AltairaLabs/FlowKit/runstore"
	"github.com/AltairaLabs/FlowKit/steps"
)

// Config defines runtime configuration for an Engine. All fields have
// sensible defaults and are optional.
type Config struct {
	// MaxConcurrent is the ceiling on simultaneously active executions.
	// An Execute call beyond the ceiling fails immediately rather than
	// queueing. Default: 10.
	MaxConcurrent int

	// DefaultStepTimeout applies to steps that declare no timeout when
	// the Execute call also supplies none. Default: 30 seconds.
	DefaultStepTimeout time.Duration

	// Compiler is the prompt-compilation collaborator used by the
	// built-in prompt handler. Optional; prompt steps fail without it.
	Compiler steps.PromptCompiler

	// HTTPClient issues api_call requests. Optional.
	HTTPClient *http.Client

	// Limiter rate-limits api_call requests engine-wide. Optional.
	Limiter *rate.Limiter

	// Store, when set, receives every terminal execution result.
	Store runstore.Store

	// Custom maps custom-step handler names to functions.
	Custom map[string]steps.CustomFunc
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:      10,
		DefaultStepTimeout: 30 * time.Second,
	}
}

// Option configures an Engine at construction time.
type Option func(*Config)

// WithMaxConcurrent sets the concurrent-execution ceiling.
func WithMaxConcurrent(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxConcurrent = n
		}
	}
}

// WithDefaultStepTimeout sets the fallback per-step timeout.
func WithDefaultStepTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.DefaultStepTimeout = d
		}
	}
}

// WithCompiler wires the prompt-compilation collaborator.
func WithCompiler(compiler steps.PromptCompiler) Option {
	return func(c *Config) { c.Compiler = compiler }
}

// WithHTTPClient sets the client used by api_call steps.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithAPIRateLimit caps api_call request throughput engine-wide.
func WithAPIRateLimit(rps float64, burst int) Option {
	return func(c *Config) { c.Limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithRunStore persists terminal execution results to the given store.
func WithRunStore(store runstore.Store) Option {
	return func(c *Config) { c.Store = store }
}

// WithCustomFunc registers a function for custom steps under name.
func WithCustomFunc(name string, fn steps.CustomFunc) Option {
	return func(c *Config) {
		if c.Custom == nil {
			c.Custom = make(map[string]steps.CustomFunc)
		}
		c.Custom[name] = fn
	}
}

// ExecOption configures a single Execute call.
type ExecOption func(*execOptions)

type execOptions struct {
	executionID string
	stepTimeout time.Duration
	metadata    map[string]any
}

// WithExecutionID supplies the execution ID instead of generating one.
func WithExecutionID(id string) ExecOption {
	return func(o *execOptions) { o.executionID = id }
}

// WithStepTimeout overrides the engine's default step timeout for this
// call. Per-step timeouts still take precedence.
func WithStepTimeout(d time.Duration) ExecOption {
	return func(o *execOptions) { o.stepTimeout = d }
}

// WithMetadata attaches free-form metadata to the execution context.
func WithMetadata(md map[string]any) ExecOption {
	return func(o *execOptions) { o.metadata = md }
}
