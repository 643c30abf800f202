// Package client is a typed HTTP client for the task API. Response
// statuses are mapped back onto the task package's error values.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sharleen10/todolist/internal/task"
	"github.com/Sharleen10/todolist/internal/telemetry"
)

// APIError is an unexpected server failure that is not transient.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context, view, sort string) ([]task.Task, error) {
	q := url.Values{}
	if view != "" {
		q.Set("view", view)
	}
	if sort != "" {
		q.Set("sort", sort)
	}
	path := "/api/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []task.Task
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// FilterBy calls /api/tasks/filter/{kind}/{value}; kind is project, label or priority.
func (c *Client) FilterBy(ctx context.Context, kind, value string) ([]task.Task, error) {
	var out []task.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks/filter/"+url.PathEscape(kind)+"/"+url.PathEscape(value), nil, &out)
	return out, err
}

func (c *Client) Get(ctx context.Context, id int) (task.Task, error) {
	var out task.Task
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, in task.Input) (task.Task, error) {
	var out task.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", in, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, id int, p task.Patch) (task.Task, error) {
	var out task.Task
	err := c.do(ctx, http.MethodPut, taskPath(id), p, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func (c *Client) SetCompleted(ctx context.Context, id int, completed bool) (task.Task, error) {
	var out task.Task
	err := c.do(ctx, http.MethodPatch, taskPath(id)+"/complete", map[string]bool{"completed": completed}, &out)
	return out, err
}

func (c *Client) AddSubtask(ctx context.Context, id int, title string) (task.Task, error) {
	var out task.Task
	err := c.do(ctx, http.MethodPost, taskPath(id)+"/subtasks", task.SubtaskInput{Title: title}, &out)
	return out, err
}

func (c *Client) Calendar(ctx context.Context, id int) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, taskPath(id)+"/calendar.ics", nil)
	if err != nil {
		return "", err
	}
	res, err := c.send(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read calendar: %w", err)
	}
	return string(b), nil
}

func (c *Client) Projects(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out)
	return out, err
}

func (c *Client) Labels(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/labels", nil, &out)
	return out, err
}

func (c *Client) CreateProject(ctx context.Context, name string) (string, error) {
	return c.createName(ctx, "/api/projects", name)
}

func (c *Client) CreateLabel(ctx context.Context, name string) (string, error) {
	return c.createName(ctx, "/api/labels", name)
}

func (c *Client) createName(ctx context.Context, path, name string) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	err := c.do(ctx, http.MethodPost, path, map[string]string{"name": name}, &out)
	return out.Name, err
}

// RecordEvent reports a client-observed event to the server, which makes
// the client usable as a telemetry.Recorder.
func (c *Client) RecordEvent(eventType telemetry.EventType, metadata telemetry.EventMetadata) error {
	return c.do(context.Background(), http.MethodPost, "/api/events", telemetry.EventReport{Type: eventType, Metadata: metadata}, nil)
}

func taskPath(id int) string {
	return "/api/tasks/" + strconv.Itoa(id)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send performs req and converts transport failures and error statuses.
// On success the caller owns the response body.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	res, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%s %s: %w: %v", req.Method, req.URL.Path, task.ErrUnavailable, err)
	}
	if res.StatusCode < 400 {
		return res, nil
	}
	defer res.Body.Close()
	return nil, statusError(res)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	res, err := c.send(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(res *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	b, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err := json.Unmarshal(b, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(b))
	}
	msg := body.Error

	switch res.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, task.ErrNotFound)
	case http.StatusBadRequest:
		field, reason, ok := strings.Cut(msg, ": ")
		if !ok || strings.Contains(field, " ") {
			return &task.ValidationError{Reason: msg}
		}
		return &task.ValidationError{Field: field, Reason: reason}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", msg, task.ErrUnavailable)
	default:
		return &APIError{Status: res.StatusCode, Message: msg}
	}
}
