package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openmes/aps/pkg/core"
)

const defaultHTTPTimeout = 60 * time.Second

// HTTPEngine talks JSON over HTTP to an engine deployment.
//
// Endpoints, relative to the base URL:
//
//	POST /solve                  synchronous solve
//	POST /jobs                   asynchronous submit -> {"handle": "..."}
//	GET  /jobs/{handle}/status   -> {"status": "..."}
//	GET  /jobs/{handle}/result   completed result
//
// The engine answers 404 for unknown/expired handles and 409 for a
// result requested before completion.
type HTTPEngine struct {
	baseURL string
	http    *http.Client
}

// HTTPOption configures an HTTPEngine.
type HTTPOption func(*HTTPEngine)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(e *HTTPEngine) { e.http = c }
}

// WithTimeout sets the client timeout. The synchronous solve path can
// block for the engine's whole time budget, so this should comfortably
// exceed it.
func WithTimeout(d time.Duration) HTTPOption {
	return func(e *HTTPEngine) { e.http.Timeout = d }
}

// NewHTTPEngine creates an engine gateway for the given base URL.
func NewHTTPEngine(baseURL string, opts ...HTTPOption) *HTTPEngine {
	e := &HTTPEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SolveSync runs one solve to completion.
func (e *HTTPEngine) SolveSync(ctx context.Context, req *Request) (*Result, error) {
	body, status, err := e.post(ctx, "/solve", req)
	if err != nil {
		return nil, invocationFailed("solve", err)
	}
	if status != http.StatusOK {
		return nil, invocationFailed("solve", httpStatusError(status, body))
	}
	return decodeResult("solve", body)
}

// SubmitAsync enqueues a solve and returns the engine's job handle.
func (e *HTTPEngine) SubmitAsync(ctx context.Context, req *Request) (string, error) {
	body, status, err := e.post(ctx, "/jobs", req)
	if err != nil {
		return "", invocationFailed("submit", err)
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return "", invocationFailed("submit", httpStatusError(status, body))
	}
	var resp struct {
		Handle string `json:"handle"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", invocationFailed("submit", err)
	}
	if resp.Handle == "" {
		return "", invocationFailed("submit", fmt.Errorf("engine returned empty job handle"))
	}
	return resp.Handle, nil
}

// PollStatus reports the state of an asynchronous job.
func (e *HTTPEngine) PollStatus(ctx context.Context, handle string) (Status, error) {
	body, status, err := e.get(ctx, "/jobs/"+handle+"/status")
	if err != nil {
		return "", invocationFailed("poll", err)
	}
	if status == http.StatusNotFound {
		return "", core.ErrEngineJobNotFound
	}
	if status != http.StatusOK {
		return "", invocationFailed("poll", httpStatusError(status, body))
	}
	var resp struct {
		Status Status `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", invocationFailed("poll", err)
	}
	return resp.Status, nil
}

// FetchResult retrieves the result of a completed asynchronous job.
func (e *HTTPEngine) FetchResult(ctx context.Context, handle string) (*Result, error) {
	body, status, err := e.get(ctx, "/jobs/"+handle+"/result")
	if err != nil {
		return nil, invocationFailed("fetch", err)
	}
	switch status {
	case http.StatusOK:
		return decodeResult("fetch", body)
	case http.StatusNotFound:
		return nil, core.ErrEngineJobNotFound
	case http.StatusConflict:
		return nil, core.ErrEngineJobNotReady
	default:
		return nil, invocationFailed("fetch", httpStatusError(status, body))
	}
}

func (e *HTTPEngine) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *HTTPEngine) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	return e.do(req)
}

func (e *HTTPEngine) do(req *http.Request) ([]byte, int, error) {
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// decodeResult unmarshals a result body and keeps the verbatim bytes on
// Raw for the audit copy.
func decodeResult(op string, body []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, invocationFailed(op, err)
	}
	result.Raw = bytes.Clone(body)
	return &result, nil
}

func httpStatusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Errorf("unexpected engine status %d: %s", status, msg)
}
