package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/mapgrab/mapgrab/internal/config"
	"github.com/mapgrab/mapgrab/internal/constants"
	"github.com/mapgrab/mapgrab/internal/http"
	"github.com/mapgrab/mapgrab/internal/models"
)

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct{}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only errors and warnings are worth surfacing
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

// Client talks to the scraping dashboard backend.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
}

// NewClient creates a new API client from configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return nil, fmt.Errorf("server URL is empty")
	}

	// Configure HTTP client with proxy support
	httpClient, err := http.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	// Wrap with retry logic for transient transport failures. The
	// backend itself is never asked twice for a logically-failed
	// operation; only requests that never produced a response (or got
	// a 5xx) are re-sent.
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.APIRetryMax
	retryClient.RetryWaitMin = constants.APIRetryWaitMin
	retryClient.RetryWaitMax = constants.APIRetryWaitMax
	retryClient.Logger = &retryLogger{}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(cfg.ServerURL, "/"),
	}, nil
}

// NewClientWithHTTP creates a client over an existing HTTP client.
// Used by tests and by callers that need a bare transport.
func NewClientWithHTTP(baseURL string, httpClient *nethttp.Client) *Client {
	if httpClient == nil {
		httpClient = nethttp.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// BaseURL returns the backend base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request against the backend.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// decodeError turns a non-2xx response into an *APIError, pulling the
// backend's "error" field out of the body when present.
func decodeError(resp *nethttp.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(body))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
}

// opContext bounds a single JSON operation. Result downloads stream for
// arbitrarily long, so DownloadResults does not use it.
func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, constants.APIContextTimeout)
}

// StartScraping starts a new scrape job and returns the assigned task id.
func (c *Client) StartScraping(ctx context.Context, jobCfg *models.JobConfig) (*models.StartResponse, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	resp, err := c.doRequest(ctx, nethttp.MethodPost, "/api/start_scraping", jobCfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var start models.StartResponse
	if err := json.NewDecoder(resp.Body).Decode(&start); err != nil {
		return nil, fmt.Errorf("failed to decode start response: %w", err)
	}

	if !start.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: start.Error}
	}
	if start.TaskID == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "backend returned no task id"}
	}

	return &start, nil
}

// TaskStatus fetches the current status of one task. A 404 for an
// unknown task id is returned as an *APIError (see IsTaskNotFound).
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/api/task_status/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, decodeError(resp)
	}

	var status models.TaskStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode task status: %w", err)
	}
	if status.TaskID == "" {
		status.TaskID = taskID
	}

	return &status, nil
}

// StopTask asks the backend to stop a running task. The task's own
// status transition shows up on a later poll; nothing changes locally.
func (c *Client) StopTask(ctx context.Context, taskID string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	resp, err := c.doRequest(ctx, nethttp.MethodPost, "/api/stop_task/"+url.PathEscape(taskID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return decodeError(resp)
	}

	var result models.SimpleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode stop response: %w", err)
	}
	if !result.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: result.Error}
	}

	return nil
}

// ActiveTasks fetches the list of active and recently finished tasks.
func (c *Client) ActiveTasks(ctx context.Context) ([]models.TaskInfo, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/api/active_tasks", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, decodeError(resp)
	}

	var list models.ActiveTasksResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode task list: %w", err)
	}

	return list.Tasks, nil
}

// GetCheckpoint fetches the checkpoint summary: total row count plus a
// sample of at most the first 100 rows.
func (c *Client) GetCheckpoint(ctx context.Context) (*models.CheckpointSummary, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/api/get_checkpoint", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, decodeError(resp)
	}

	var summary models.CheckpointSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint summary: %w", err)
	}
	if !summary.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: summary.Error}
	}

	return &summary, nil
}

// ClearCheckpoint deletes the server-side checkpoint file.
func (c *Client) ClearCheckpoint(ctx context.Context) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	resp, err := c.doRequest(ctx, nethttp.MethodPost, "/api/clear_checkpoint", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return decodeError(resp)
	}

	var result models.SimpleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode clear response: %w", err)
	}
	if !result.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: result.Error}
	}

	return nil
}

// DebugTasks fetches the backend's debug view of tasks and files.
func (c *Client) DebugTasks(ctx context.Context) (*models.DebugInfo, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/api/debug_tasks", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, decodeError(resp)
	}

	var info models.DebugInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode debug info: %w", err)
	}

	return &info, nil
}

// DownloadResults streams the result CSV for a task id (or the
// "checkpoint" pseudo id). The caller owns the returned body. Size is
// the Content-Length, or -1 when the backend streams without one.
func (c *Client) DownloadResults(ctx context.Context, taskID string) (io.ReadCloser, int64, error) {
	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/api/download_results/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode != nethttp.StatusOK {
		defer resp.Body.Close()
		return nil, 0, decodeError(resp)
	}

	return resp.Body, resp.ContentLength, nil
}
