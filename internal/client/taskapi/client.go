// Package taskapi is the task backend client used by the dashboard.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	dto "taskboard/internal/api/dto/task"
	"taskboard/internal/converter"
	"taskboard/internal/model"
	"taskboard/internal/service"
	"taskboard/pkg/apierr"
)

const (
	tasksPath = "/api/tasks"

	// maxBodySize bounds reads of task backend replies (8 MB)
	maxBodySize int64 = 8 << 20
)

// ErrUnauthorized matches an *Error with status 401
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx answer of the task backend
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// TokenSource provides the bearer token of the current session
type TokenSource interface {
	AccessToken() string
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// New creates a task client. tokens is consulted on every request.
func New(baseURL string, httpClient *http.Client, timeout time.Duration, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		tokens:  tokens,
	}
}

// Factory shares one http.Client between the per-request task clients
type Factory struct {
	baseURL string
	http    *http.Client
}

func NewFactory(baseURL string, timeout time.Duration) *Factory {
	return &Factory{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (f *Factory) NewTaskAPI(tokens service.TokenSource) service.TaskAPI {
	return New(f.baseURL, f.http, 0, tokens)
}

func (c *Client) GetTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []dto.Task
	if err := c.request(ctx, http.MethodGet, tasksPath, nil, &tasks); err != nil {
		return nil, err
	}
	return converter.ToTaskModels(tasks), nil
}

func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	var task dto.Task
	if err := c.request(ctx, http.MethodPost, tasksPath, converter.ToCreateTaskRequest(in), &task); err != nil {
		return model.Task{}, err
	}
	return converter.ToTaskModel(task), nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	var task dto.Task
	if err := c.request(ctx, http.MethodPut, taskPath(id), converter.ToUpdateTaskRequest(patch), &task); err != nil {
		return model.Task{}, err
	}
	return converter.ToTaskModel(task), nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func (c *Client) ToggleTaskCompletion(ctx context.Context, id string) (model.Task, error) {
	var task dto.Task
	if err := c.request(ctx, http.MethodPatch, taskPath(id)+"/toggle", nil, &task); err != nil {
		return model.Task{}, err
	}
	return converter.ToTaskModel(task), nil
}

func taskPath(id string) string {
	return tasksPath + "/" + url.PathEscape(id)
}

// request sends in as JSON and decodes the reply into out (both optional)
func (c *Client) request(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	r, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	r.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.AccessToken(); tok != "" {
			r.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(r)
	if err != nil {
		return fmt.Errorf("task backend %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read task backend reply: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode task backend reply: %w", err)
	}
	return nil
}

func responseError(status int, body []byte) *Error {
	msg, ok := apierr.Message(body)
	if !ok {
		msg = fmt.Sprintf("API request failed: %d %s", status, http.StatusText(status))
	}
	return &Error{Status: status, Message: msg}
}
