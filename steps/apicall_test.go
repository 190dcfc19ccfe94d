package steps

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/AltairaLabs/FlowKit/workflow"
)

func apiStep(endpoint, method, extractPath string, body any, headers map[string]string) *workflow.Step {
	return &workflow.Step{
		ID:   "call",
		Type: workflow.StepAPICall,
		APICall: &workflow.APICallStep{
			Endpoint:    endpoint,
			Method:      method,
			Headers:     headers,
			Body:        body,
			ExtractPath: extractPath,
		},
	}
}

func TestAPICallGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "token", r.Header.Get("X-Auth"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"id": 7, "name": "widget"}}`))
	}))
	defer srv.Close()

	h := &APICallHandler{Client: srv.Client()}
	out, err := h.Execute(context.Background(),
		apiStep(srv.URL, "GET", "data.name", nil, map[string]string{"X-Auth": "token"}),
		newCtx(nil))

	require.NoError(t, err)
	assert.Equal(t, "widget", out)
}

func TestAPICallPostBody(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	h := &APICallHandler{Client: srv.Client()}
	out, err := h.Execute(context.Background(),
		apiStep(srv.URL, "POST", "", map[string]any{"name": "widget"}, nil),
		newCtx(nil))

	require.NoError(t, err)
	assert.Equal(t, "widget", received["name"])
	assert.Equal(t, map[string]any{"ok": true}, out)
}

func TestAPICallNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := &APICallHandler{Client: srv.Client()}
	_, err := h.Execute(context.Background(), apiStep(srv.URL, "GET", "", nil, nil), newCtx(nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api call failed")
	assert.Contains(t, err.Error(), "500 Internal Server Error")
}

func TestAPICallEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := &APICallHandler{Client: srv.Client()}
	out, err := h.Execute(context.Background(), apiStep(srv.URL, "DELETE", "", nil, nil), newCtx(nil))

	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestAPICallMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	h := &APICallHandler{Client: srv.Client()}
	_, err := h.Execute(context.Background(), apiStep(srv.URL, "GET", "", nil, nil), newCtx(nil))
	assert.ErrorContains(t, err, "parse response JSON")
}

func TestAPICallDefaultsToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	h := &APICallHandler{Client: srv.Client()}
	_, err := h.Execute(context.Background(), apiStep(srv.URL, "", "", nil, nil), newCtx(nil))
	require.NoError(t, err)
}

func TestAPICallHonorsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	h := &APICallHandler{Client: srv.Client()}
	_, err := h.Execute(ctx, apiStep(srv.URL, "GET", "", nil, nil), newCtx(nil))
	assert.Error(t, err)
}

func TestAPICallRateLimiterApplies(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	// One token per 50ms, burst of one: the second call must wait.
	h := &APICallHandler{Client: srv.Client(), Limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1)}
	step := apiStep(srv.URL, "GET", "", nil, nil)

	start := time.Now()
	_, err := h.Execute(context.Background(), step, newCtx(nil))
	require.NoError(t, err)
	_, err = h.Execute(context.Background(), step, newCtx(nil))
	require.NoError(t, err)

	assert.Equal(t, 2, hits)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
