// Package client is the HTTP task-execution client for hive workers. One
// Client talks to one worker; Hive fans out across the fleet. Transport
// failures never surface as hard errors: they come back as offline
// statuses or unsuccessful task results carrying the error text, because
// the operator-facing contract is state-reflected, not thrown.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a task execution request when the caller supplies
// none.
const DefaultTimeout = 300 * time.Second

// TaskResult is a worker's answer to one task execution.
type TaskResult struct {
	Success       bool    `json:"success"`
	Result        string  `json:"result"`
	SessionID     string  `json:"session_id,omitempty"`
	ExecutionTime float64 `json:"execution_time"`
	Timestamp     string  `json:"timestamp"`
	Worker        string  `json:"worker"`
}

// Status is a worker's health snapshot.
type Status struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Online    bool   `json:"online"`
	SessionID string `json:"session_id,omitempty"`
	Version   string `json:"claude_version,omitempty"`
	Uptime    float64
	Error     string `json:"error,omitempty"`
}

// SessionInfo describes a worker's current session.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
	TaskCount int    `json:"task_count"`
}

// ExecuteOptions tune a single task execution.
type ExecuteOptions struct {
	NewSession   bool
	Timeout      time.Duration // whole-request budget; DefaultTimeout if zero
	AllowedTools []string
}

// Client executes tasks on a single worker.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
}

// New creates a client for the worker at host:port.
func New(name, host string, port int) *Client {
	return &Client{
		name:    name,
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		http:    &http.Client{},
	}
}

// Name returns the worker name this client targets.
func (c *Client) Name() string { return c.name }

// Health checks the worker's /health endpoint. It never returns an error:
// an unreachable worker comes back as an offline Status with the failure
// text attached.
func (c *Client) Health(ctx context.Context) Status {
	st := Status{Name: c.name, URL: c.baseURL}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var body struct {
		SessionID string  `json:"session_id"`
		Version   string  `json:"claude_version"`
		Uptime    float64 `json:"uptime"`
	}
	if err := c.getJSON(ctx, "/health", &body); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Online = true
	st.SessionID = body.SessionID
	st.Version = body.Version
	st.Uptime = body.Uptime
	return st
}

// Execute runs a task on the worker. Transport and timeout failures are
// reported as an unsuccessful TaskResult whose Result holds the error
// text; the caller always has something to display.
func (c *Client) Execute(ctx context.Context, task string, opts ExecuteOptions) TaskResult {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload := map[string]any{
		"task":        task,
		"new_session": opts.NewSession,
		"timeout":     int(timeout.Seconds()),
	}
	if len(opts.AllowedTools) > 0 {
		payload["allowed_tools"] = opts.AllowedTools
	}

	var res TaskResult
	if err := c.postJSON(ctx, "/task", payload, &res); err != nil {
		if ctx.Err() != nil {
			return TaskResult{
				Success: false,
				Result:  fmt.Sprintf("request to %s timed out", c.name),
				Worker:  c.name,
			}
		}
		return TaskResult{
			Success: false,
			Result:  fmt.Sprintf("error communicating with %s: %v", c.name, err),
			Worker:  c.name,
		}
	}
	res.Worker = c.name
	return res
}

// NewSession clears the worker's session state.
func (c *Client) NewSession(ctx context.Context) error {
	if err := c.postJSON(ctx, "/session/new", nil, nil); err != nil {
		return fmt.Errorf("new session on %s: %w", c.name, err)
	}
	return nil
}

// Session fetches the worker's current session info.
func (c *Client) Session(ctx context.Context) (SessionInfo, error) {
	var info SessionInfo
	if err := c.getJSON(ctx, "/session", &info); err != nil {
		return SessionInfo{}, fmt.Errorf("get session from %s: %w", c.name, err)
	}
	return info, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s returned %s", req.URL.Path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
