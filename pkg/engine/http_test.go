package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmes/aps/pkg/core"
)

func testRequest() *Request {
	return &Request{
		RequestID:      "req-1",
		HorizonStartMS: 1700000000000,
		Jobs: []JobEntry{
			{Key: "SN-1", Color: "RED"},
		},
		Params: Params{
			Algorithm:     DefaultAlgorithm,
			TimeBudgetSec: DefaultTimeBudgetSec,
			Seed:          DefaultSeed,
			Weights:       DefaultWeights(),
			Limits:        DefaultLimits(),
		},
	}
}

func TestSolveSync_DecodesResultAndKeepsRaw(t *testing.T) {
	body := `{"summary":{"cost":9.5,"total_tardiness_min":0},"schedule":[{"key":"SN-1","line_id":"L1","shift_id":"D1","seq":1,"start_ms":1700000000000}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/solve", r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "req-1", req.RequestID)

		w.Write([]byte(body))
	}))
	defer srv.Close()

	result, err := NewHTTPEngine(srv.URL).SolveSync(context.Background(), testRequest())
	require.NoError(t, err)

	require.NotNil(t, result.Summary)
	assert.InDelta(t, 9.5, result.Summary.Cost, 1e-9)
	require.Len(t, result.Schedule, 1)
	assert.Equal(t, "SN-1", result.Schedule[0].Key)
	assert.Equal(t, []byte(body), result.Raw, "verbatim body kept for audit")
}

func TestSolveSync_ServerErrorWrapsAsInvocationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "solver crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(srv.URL).SolveSync(context.Background(), testRequest())
	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Error(), "solver crashed")
}

func TestSolveSync_TransportFailureWrapsAsInvocationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := NewHTTPEngine(srv.URL).SolveSync(context.Background(), testRequest())
	var invErr *InvocationError
	assert.ErrorAs(t, err, &invErr)
}

func TestSolveSync_MalformedBodyWrapsAsInvocationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(srv.URL).SolveSync(context.Background(), testRequest())
	var invErr *InvocationError
	assert.ErrorAs(t, err, &invErr)
}

func TestSubmitAsync_ReturnsHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"handle":"eng-42"}`))
	}))
	defer srv.Close()

	handle, err := NewHTTPEngine(srv.URL).SubmitAsync(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "eng-42", handle)
}

func TestSubmitAsync_EmptyHandleIsInvocationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(srv.URL).SubmitAsync(context.Background(), testRequest())
	var invErr *InvocationError
	assert.ErrorAs(t, err, &invErr)
}

func TestPollStatus_UnknownHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(srv.URL).PollStatus(context.Background(), "gone")
	assert.ErrorIs(t, err, core.ErrEngineJobNotFound)
}

func TestPollStatus_PassesEngineStatusesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/eng-42/status", r.URL.Path)
		w.Write([]byte(`{"status":"QUEUED"}`))
	}))
	defer srv.Close()

	status, err := NewHTTPEngine(srv.URL).PollStatus(context.Background(), "eng-42")
	require.NoError(t, err)
	assert.Equal(t, Status("QUEUED"), status, "engine-defined statuses are opaque")
}

func TestFetchResult_NotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(srv.URL).FetchResult(context.Background(), "eng-42")
	assert.ErrorIs(t, err, core.ErrEngineJobNotReady)
}

func TestFetchResult_UnknownHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(srv.URL).FetchResult(context.Background(), "expired")
	assert.ErrorIs(t, err, core.ErrEngineJobNotFound)
}

func TestResult_ItemsPrefersDetailedSchedule(t *testing.T) {
	r := &Result{
		Schedule:         []ScheduleItem{{Key: "simple"}},
		DetailedSchedule: []ScheduleItem{{Key: "detailed"}},
	}
	assert.Equal(t, "detailed", r.Items()[0].Key)

	r.DetailedSchedule = nil
	assert.Equal(t, "simple", r.Items()[0].Key)
}

// ──────────────────────────────────────────────────────────────────────────────
// Wait
// ──────────────────────────────────────────────────────────────────────────────

// scriptedEngine serves a fixed status sequence then a result.
type scriptedEngine struct {
	statuses []Status
	result   *Result
	pollErr  error
	calls    int
}

func (e *scriptedEngine) SolveSync(context.Context, *Request) (*Result, error) {
	return nil, errors.New("not used")
}

func (e *scriptedEngine) SubmitAsync(context.Context, *Request) (string, error) {
	return "h", nil
}

func (e *scriptedEngine) PollStatus(context.Context, string) (Status, error) {
	if e.pollErr != nil {
		return "", e.pollErr
	}
	status := e.statuses[e.calls]
	if e.calls < len(e.statuses)-1 {
		e.calls++
	}
	return status, nil
}

func (e *scriptedEngine) FetchResult(context.Context, string) (*Result, error) {
	return e.result, nil
}

func TestWait_PollsUntilCompleted(t *testing.T) {
	eng := &scriptedEngine{
		statuses: []Status{StatusRunning, StatusRunning, StatusCompleted},
		result:   &Result{Summary: &Summary{Cost: 1}},
	}

	cfg := PollConfig{Interval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}
	result, err := Wait(context.Background(), eng, "h", cfg)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.Summary.Cost, 1e-9)
	assert.GreaterOrEqual(t, eng.calls, 2)
}

func TestWait_StopsOnExpiredHandle(t *testing.T) {
	eng := &scriptedEngine{pollErr: core.ErrEngineJobNotFound}

	_, err := Wait(context.Background(), eng, "h", DefaultPollConfig())
	assert.ErrorIs(t, err, core.ErrEngineJobNotFound)
}

func TestWait_RespectsContextCancellation(t *testing.T) {
	eng := &scriptedEngine{statuses: []Status{StatusRunning}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Wait(ctx, eng, "h", PollConfig{Interval: time.Hour})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
