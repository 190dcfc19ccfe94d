package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jmespath/go-jmespath"
	"golang.org/x/time/rate"

	"github.com/AltairaLabs/FlowKit/logger"
	"github.com/AltairaLabs/FlowKit/workflow"
)

// maxResponseBytes caps api_call response bodies.
const maxResponseBytes = 16 << 20 // 16MB

// APICallHandler issues an HTTP request with the step's method, headers,
// and JSON body, parses the JSON response, and optionally extracts a
// nested value via a JMESPath expression. A non-2xx response is a handled
// failure carrying the response status text.
type APICallHandler struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Execute performs the HTTP request.
func (h *APICallHandler) Execute(ctx context.Context, step *workflow.Step, _ *workflow.ExecutionContext) (any, error) {
	cfg := step.APICall

	if h.Limiter != nil {
		if err := h.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if cfg.Body != nil {
		data, err := json.Marshal(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}
	if cfg.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.HTTPRequest(method, cfg.Endpoint, cfg.Headers)

	resp, err := h.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, cfg.Endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	logger.HTTPResponse(method, cfg.Endpoint, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api call failed: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse response JSON: %w", err)
	}

	if cfg.ExtractPath == "" {
		return parsed, nil
	}
	extracted, err := jmespath.Search(cfg.ExtractPath, parsed)
	if err != nil {
		return nil, fmt.Errorf("extract path %q: %w", cfg.ExtractPath, err)
	}
	return extracted, nil
}

func (h *APICallHandler) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}
