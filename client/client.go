// Package client talks to the task API served by cmd/web.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	app "github.com/etitcombe/todopom"
)

// ErrUnavailable is wrapped by every error that means the task store could
// not serve a request. Callers do not distinguish error kinds beyond it.
var ErrUnavailable = errors.New("task store unavailable")

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task store: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("task store: %d %s", e.StatusCode, e.Message)
}

// Unwrap makes errors.Is(err, ErrUnavailable) hold.
func (e *StatusError) Unwrap() error { return ErrUnavailable }

// Client is an HTTP client for the /api/tasks resource.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the API rooted at baseURL, for example
// http://localhost:9090. A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type createRequest struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed,omitempty"`
	User      string `json:"user,omitempty"`
}

// List fetches the tasks of user, or every task when user is empty.
func (c *Client) List(ctx context.Context, user string) ([]app.Task, error) {
	u := c.baseURL + "/api/tasks"
	if user != "" {
		u += "?user=" + url.QueryEscape(user)
	}
	var tasks []app.Task
	if err := c.do(ctx, http.MethodGet, u, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		return nil, fmt.Errorf("%w: response is not an array", ErrUnavailable)
	}
	return tasks, nil
}

// Create stores a new task for user.
func (c *Client) Create(ctx context.Context, text, user string) (app.Task, error) {
	var t app.Task
	err := c.do(ctx, http.MethodPost, c.baseURL+"/api/tasks", createRequest{Text: text, User: user}, &t)
	return t, err
}

// Update applies p to the task with id.
func (c *Client) Update(ctx context.Context, id string, p app.TaskPatch) (app.Task, error) {
	var t app.Task
	err := c.do(ctx, http.MethodPut, c.taskURL(id), p, &t)
	return t, err
}

// Delete removes the task with id and returns it.
func (c *Client) Delete(ctx context.Context, id string) (app.Task, error) {
	var t app.Task
	err := c.do(ctx, http.MethodDelete, c.taskURL(id), nil, &t)
	return t, err
}

func (c *Client) taskURL(id string) string {
	return c.baseURL + "/api/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, u string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	data, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrUnavailable, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		json.Unmarshal(data, &e)
		return &StatusError{StatusCode: res.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: malformed body: %v", ErrUnavailable, err)
	}
	return nil
}
