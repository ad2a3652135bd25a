package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/minsu-kang/taskhub-api/internal/model"
)

// ErrSessionClosed is returned from Session calls after Close or after the
// server has rejected the session's token.
var ErrSessionClosed = errors.New("session closed")

// ListOptions narrows and pages a task listing. Zero values mean "no
// constraint": empty Search matches everything, empty or "all" Priority and
// Status skip that filter, Page 0 means page 1, Limit 0 means the server
// default.
type ListOptions struct {
	Page     int
	Limit    int
	Search   string
	Priority string
	Status   string
}

// CreateTaskInput mirrors the create endpoint's body. DueDate accepts
// YYYY-MM-DD or RFC3339.
type CreateTaskInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

// UpdateTaskInput is a partial update; nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// TaskAPI is the set of task operations a view controller needs. Session
// implements it.
type TaskAPI interface {
	ListTasks(ctx context.Context, opts ListOptions) (model.TaskListResult, error)
	CreateTask(ctx context.Context, input CreateTaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, taskID string, input UpdateTaskInput) (model.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID, status string) (model.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// Session is an authenticated connection to the server. It is created by
// Login, Register, or Resume, and becomes unusable once Close is called or
// the server rejects its token; callers must then obtain a fresh session.
type Session struct {
	client *Client

	mu     sync.Mutex
	token  string
	user   model.User
	closed bool
}

type authResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// Login authenticates with email and password and returns a live session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", body, &resp); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return &Session{client: c, token: resp.Token, user: resp.User}, nil
}

// Register creates an account and returns a session for it.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", "", body, &resp); err != nil {
		return nil, fmt.Errorf("register failed: %w", err)
	}

	return &Session{client: c, token: resp.Token, user: resp.User}, nil
}

// Resume rebuilds a session from a previously issued token. The token is
// verified against the server before the session is handed back, so a stale
// token fails here rather than on the first real call.
func (c *Client) Resume(ctx context.Context, token string) (*Session, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", token, nil, &user); err != nil {
		return nil, fmt.Errorf("resume failed: %w", err)
	}

	return &Session{client: c, token: token, user: user}, nil
}

// User returns the profile captured when the session was established.
func (s *Session) User() model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Token returns the bearer token, e.g. for persisting across restarts.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Closed reports whether the session has been closed or invalidated.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close invalidates the session locally. The token itself expires server-side.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.token = ""
}

// do forwards to the client with the session token. A 401 from the server
// closes the session: the token is dead and every later call would fail the
// same way.
func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	token := s.token
	s.mu.Unlock()

	err := s.client.do(ctx, method, path, token, body, out)
	if errors.Is(err, ErrUnauthorized) {
		s.Close()
	}
	return err
}

func (s *Session) ListTasks(ctx context.Context, opts ListOptions) (model.TaskListResult, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Priority != "" && opts.Priority != "all" {
		query.Set("priority", opts.Priority)
	}
	if opts.Status != "" && opts.Status != "all" {
		query.Set("status", opts.Status)
	}

	path := "/api/v1/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var result model.TaskListResult
	if err := s.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return model.TaskListResult{}, err
	}
	return result, nil
}

func (s *Session) GetTask(ctx context.Context, taskID string) (model.Task, error) {
	var task model.Task
	if err := s.do(ctx, http.MethodGet, "/api/v1/tasks/"+taskID, nil, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *Session) CreateTask(ctx context.Context, input CreateTaskInput) (model.Task, error) {
	var task model.Task
	if err := s.do(ctx, http.MethodPost, "/api/v1/tasks", input, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *Session) UpdateTask(ctx context.Context, taskID string, input UpdateTaskInput) (model.Task, error) {
	var task model.Task
	if err := s.do(ctx, http.MethodPut, "/api/v1/tasks/"+taskID, input, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *Session) UpdateTaskStatus(ctx context.Context, taskID, status string) (model.Task, error) {
	body := map[string]string{"status": status}

	var task model.Task
	if err := s.do(ctx, http.MethodPatch, "/api/v1/tasks/"+taskID+"/status", body, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *Session) DeleteTask(ctx context.Context, taskID string) error {
	return s.do(ctx, http.MethodDelete, "/api/v1/tasks/"+taskID, nil, nil)
}

func (s *Session) ListTasksByPriority(ctx context.Context, priority string) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.do(ctx, http.MethodGet, "/api/v1/tasks/priority/"+priority, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

var _ TaskAPI = (*Session)(nil)
