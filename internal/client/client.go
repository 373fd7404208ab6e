// Package client provides the HTTP client the CLI uses to talk to a running
// daemon.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subburn/internal/api"
)

// Client talks to the daemon's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// APIError carries the HTTP status and message of a failed API call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned HTTP %d", e.StatusCode)
	}
	return e.Message
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// Dial returns a client for the daemon listening at bind ("host:port" or a
// full URL). It does not verify the daemon is reachable.
func Dial(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, fmt.Errorf("daemon address is required")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	parsed, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon address %q: %w", bind, err)
	}
	return &Client{
		baseURL: strings.TrimSuffix(parsed.String(), "/"),
		// Uploads and result downloads stream large files; rely on the
		// per-call context for cancellation instead of a client timeout.
		http: &http.Client{},
	}, nil
}

// Status fetches the daemon and pipeline status.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.getJSON(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// List returns jobs, optionally filtered by status names.
func (c *Client) List(ctx context.Context, statuses ...string) ([]api.JobView, error) {
	path := "/api/jobs"
	if len(statuses) > 0 {
		path += "?status=" + url.QueryEscape(strings.Join(statuses, ","))
	}
	var resp api.JobListResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Describe returns a single job by id.
func (c *Client) Describe(ctx context.Context, id int64) (*api.JobView, error) {
	var resp api.JobResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/api/jobs/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Upload streams the video at path to the daemon and returns the created job.
func (c *Client) Upload(ctx context.Context, path, sourceLang, targetLang string) (*api.JobView, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil && sourceLang != "" {
			err = writer.WriteField("source_language", sourceLang)
		}
		if err == nil {
			err = writer.WriteField("target_language", targetLang)
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}
	var decoded api.JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &decoded.Job, nil
}

// Start queues an uploaded job for processing.
func (c *Client) Start(ctx context.Context, id int64) (*api.JobView, error) {
	var resp api.JobResponse
	if err := c.postJSON(ctx, fmt.Sprintf("/api/jobs/%d/process", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Transcript fetches the transcript of a job paused for review.
func (c *Client) Transcript(ctx context.Context, id int64) (*api.TranscriptView, error) {
	var view api.TranscriptView
	if err := c.getJSON(ctx, fmt.Sprintf("/api/jobs/%d/transcript", id), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Continue resumes a reviewed job, optionally replacing the segment texts.
func (c *Client) Continue(ctx context.Context, id int64, texts []string) (*api.JobView, error) {
	var body any
	if len(texts) > 0 {
		body = api.ContinueRequest{Texts: texts}
	}
	var resp api.JobResponse
	if err := c.postJSON(ctx, fmt.Sprintf("/api/jobs/%d/transcript/continue", id), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Result downloads the rendered video into destDir and returns the written
// path. An empty destDir means the current directory.
func (c *Client) Result(ctx context.Context, id int64, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/jobs/%d/result", c.baseURL, id), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	filename := fmt.Sprintf("job-%d.mp4", id)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := filepath.Base(params["filename"]); name != "" && name != "." {
			filename = name
		}
	}
	if destDir == "" {
		destDir = "."
	}
	dest := filepath.Join(destDir, filename)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("download result: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

// Remove deletes a job and its working files.
func (c *Client) Remove(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/api/jobs/%d", c.baseURL, id), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Clear removes all jobs in the given terminal status ("completed" or
// "failed") and returns how many were removed.
func (c *Client) Clear(ctx context.Context, status string) (int64, error) {
	var resp api.ClearResponse
	path := "/api/jobs/clear?status=" + url.QueryEscape(status)
	if err := c.postJSON(ctx, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// Ping reports whether the daemon answers its status endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := c.Status(ctx)
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, http.StatusOK, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, 0, out)
}

// doJSON executes req and decodes a JSON body into out. A zero expected
// status accepts any 2xx response.
func (c *Client) doJSON(req *http.Request, expected int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	ok := resp.StatusCode == expected
	if expected == 0 {
		ok = resp.StatusCode >= 200 && resp.StatusCode < 300
	}
	if !ok {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
		apiErr.Message = payload.Error
	}
	return apiErr
}
