package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/minsu-kang/taskhub-api/internal/model"
	"github.com/minsu-kang/taskhub-api/internal/service"
)

// mockTaskRepo implements repository.TaskRepository for testing
type mockTaskRepo struct {
	createFn         func(ctx context.Context, task model.Task) (model.Task, error)
	getByIDFn        func(ctx context.Context, userID, taskID string) (model.Task, error)
	updateFn         func(ctx context.Context, task model.Task) (model.Task, error)
	deleteFn         func(ctx context.Context, userID, taskID string) error
	listFn           func(ctx context.Context, params model.TaskListParams) ([]model.Task, int, error)
	listByPriorityFn func(ctx context.Context, userID string, priority model.TaskPriority) ([]model.Task, error)
}

func (m *mockTaskRepo) Create(ctx context.Context, task model.Task) (model.Task, error) {
	return m.createFn(ctx, task)
}
func (m *mockTaskRepo) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	return m.getByIDFn(ctx, userID, taskID)
}
func (m *mockTaskRepo) Update(ctx context.Context, task model.Task) (model.Task, error) {
	return m.updateFn(ctx, task)
}
func (m *mockTaskRepo) Delete(ctx context.Context, userID, taskID string) error {
	return m.deleteFn(ctx, userID, taskID)
}
func (m *mockTaskRepo) List(ctx context.Context, params model.TaskListParams) ([]model.Task, int, error) {
	return m.listFn(ctx, params)
}
func (m *mockTaskRepo) ListByPriority(ctx context.Context, userID string, priority model.TaskPriority) ([]model.Task, error) {
	return m.listByPriorityFn(ctx, userID, priority)
}

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleTask() model.Task {
	return model.Task{
		ID:          "task-1",
		UserID:      "user-1",
		Title:       "Buy groceries",
		Description: "Milk, eggs, bread",
		DueDate:     now.AddDate(0, 0, 7),
		Priority:    model.TaskPriorityMedium,
		Status:      model.TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func strPtr(s string) *string { return &s }

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name    string
		input   service.CreateTaskInput
		repoErr error
		wantErr error
	}{
		{
			name:  "success",
			input: service.CreateTaskInput{Title: "Buy groceries", Description: "Milk", DueDate: strPtr("2025-02-01")},
		},
		{
			name:  "rfc3339 due date",
			input: service.CreateTaskInput{Title: "Buy groceries", Description: "Milk", DueDate: strPtr("2025-02-01T00:00:00Z")},
		},
		{
			name:  "explicit priority",
			input: service.CreateTaskInput{Title: "Buy groceries", Description: "Milk", DueDate: strPtr("2025-02-01"), Priority: strPtr("high")},
		},
		{
			name:    "empty title",
			input:   service.CreateTaskInput{Title: "", Description: "Milk", DueDate: strPtr("2025-02-01")},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "empty description",
			input:   service.CreateTaskInput{Title: "Buy groceries", Description: "", DueDate: strPtr("2025-02-01")},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "missing due date",
			input:   service.CreateTaskInput{Title: "Buy groceries", Description: "Milk"},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "malformed due date",
			input:   service.CreateTaskInput{Title: "Buy groceries", Description: "Milk", DueDate: strPtr("tomorrow")},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "invalid priority",
			input:   service.CreateTaskInput{Title: "Buy groceries", Description: "Milk", DueDate: strPtr("2025-02-01"), Priority: strPtr("urgent")},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "repo error",
			input:   service.CreateTaskInput{Title: "Buy groceries", Description: "Milk", DueDate: strPtr("2025-02-01")},
			repoErr: fmt.Errorf("db error"),
			wantErr: nil, // wrapped repo error, not a sentinel
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTask model.Task
			repo := &mockTaskRepo{
				createFn: func(ctx context.Context, task model.Task) (model.Task, error) {
					if tt.repoErr != nil {
						return model.Task{}, tt.repoErr
					}
					gotTask = task
					task.ID = "task-1"
					task.CreatedAt = now
					task.UpdatedAt = now
					return task, nil
				},
			}

			svc := service.NewTaskService(repo)
			created, err := svc.Create(context.Background(), "user-1", tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if tt.repoErr != nil {
				if err == nil {
					t.Fatal("expected error from repo")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if gotTask.UserID != "user-1" {
				t.Errorf("owner = %q, want user-1", gotTask.UserID)
			}
			if gotTask.Status != model.TaskStatusPending {
				t.Errorf("status = %q, want pending by default", gotTask.Status)
			}
			wantPriority := model.TaskPriorityMedium
			if tt.input.Priority != nil {
				wantPriority = model.TaskPriority(*tt.input.Priority)
			}
			if created.Priority != wantPriority {
				t.Errorf("priority = %q, want %q", created.Priority, wantPriority)
			}
		})
	}
}

func TestTaskService_Update(t *testing.T) {
	tests := []struct {
		name    string
		input   service.UpdateTaskInput
		getErr  error
		wantErr error
		check   func(t *testing.T, updated model.Task)
	}{
		{
			name:  "partial update keeps unset fields",
			input: service.UpdateTaskInput{Title: strPtr("New title")},
			check: func(t *testing.T, updated model.Task) {
				if updated.Title != "New title" {
					t.Errorf("title = %q", updated.Title)
				}
				if updated.Description != "Milk, eggs, bread" {
					t.Errorf("description changed unexpectedly: %q", updated.Description)
				}
			},
		},
		{
			name:  "status via full update",
			input: service.UpdateTaskInput{Status: strPtr("completed")},
			check: func(t *testing.T, updated model.Task) {
				if updated.Status != model.TaskStatusCompleted {
					t.Errorf("status = %q", updated.Status)
				}
			},
		},
		{
			name:    "empty title rejected",
			input:   service.UpdateTaskInput{Title: strPtr("")},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "invalid status rejected",
			input:   service.UpdateTaskInput{Status: strPtr("done")},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "invalid priority rejected",
			input:   service.UpdateTaskInput{Priority: strPtr("urgent")},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "not owned maps to not found",
			input:   service.UpdateTaskInput{Title: strPtr("New title")},
			getErr:  sql.ErrNoRows,
			wantErr: service.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockTaskRepo{
				getByIDFn: func(ctx context.Context, userID, taskID string) (model.Task, error) {
					if tt.getErr != nil {
						return model.Task{}, tt.getErr
					}
					return sampleTask(), nil
				},
				updateFn: func(ctx context.Context, task model.Task) (model.Task, error) {
					return task, nil
				},
			}

			svc := service.NewTaskService(repo)
			updated, err := svc.Update(context.Background(), "user-1", "task-1", tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, updated)
			}
		})
	}
}

func TestTaskService_UpdateStatus(t *testing.T) {
	repo := &mockTaskRepo{
		getByIDFn: func(ctx context.Context, userID, taskID string) (model.Task, error) {
			return sampleTask(), nil
		},
		updateFn: func(ctx context.Context, task model.Task) (model.Task, error) {
			return task, nil
		},
	}
	svc := service.NewTaskService(repo)

	updated, err := svc.UpdateStatus(context.Background(), "user-1", "task-1", model.TaskStatusInProgress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != model.TaskStatusInProgress {
		t.Errorf("status = %q, want in-progress", updated.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), "user-1", "task-1", "done"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad status, got %v", err)
	}
}

func TestTaskService_Delete(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		wantErr error
	}{
		{"success", nil, nil},
		{"not owned maps to not found", sql.ErrNoRows, service.ErrNotFound},
		{"repo failure surfaces", fmt.Errorf("db error"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockTaskRepo{
				deleteFn: func(ctx context.Context, userID, taskID string) error {
					return tt.repoErr
				},
			}
			svc := service.NewTaskService(repo)
			err := svc.Delete(context.Background(), "user-1", "task-1")

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.repoErr != nil:
				if err == nil {
					t.Error("expected error")
				}
			default:
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestTaskService_List(t *testing.T) {
	tests := []struct {
		name           string
		page           int
		limit          int
		total          int
		wantPage       int
		wantLimit      int
		wantTotalPages int
	}{
		{"defaults applied", 0, 0, 25, 1, 10, 3},
		{"explicit page", 3, 10, 25, 3, 10, 3},
		{"zero matches is one empty page", 1, 10, 0, 1, 10, 1},
		{"page past the end still answers", 99, 10, 25, 99, 10, 3},
		{"oversized limit reset to default", 1, 1000, 25, 1, 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotParams model.TaskListParams
			repo := &mockTaskRepo{
				listFn: func(ctx context.Context, params model.TaskListParams) ([]model.Task, int, error) {
					gotParams = params
					return []model.Task{}, tt.total, nil
				},
			}

			svc := service.NewTaskService(repo)
			result, err := svc.List(context.Background(), model.TaskListParams{
				UserID: "user-1",
				Page:   tt.page,
				Limit:  tt.limit,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if gotParams.Page != tt.wantPage || gotParams.Limit != tt.wantLimit {
				t.Errorf("repo saw page=%d limit=%d, want page=%d limit=%d",
					gotParams.Page, gotParams.Limit, tt.wantPage, tt.wantLimit)
			}
			if result.CurrentPage != tt.wantPage {
				t.Errorf("currentPage = %d, want %d", result.CurrentPage, tt.wantPage)
			}
			if result.TotalPages != tt.wantTotalPages {
				t.Errorf("totalPages = %d, want %d", result.TotalPages, tt.wantTotalPages)
			}
			if result.TotalTasks != tt.total {
				t.Errorf("totalTasks = %d, want %d", result.TotalTasks, tt.total)
			}
		})
	}
}

func TestTaskService_ListByPriority(t *testing.T) {
	repo := &mockTaskRepo{
		listByPriorityFn: func(ctx context.Context, userID string, priority model.TaskPriority) ([]model.Task, error) {
			return []model.Task{sampleTask()}, nil
		},
	}
	svc := service.NewTaskService(repo)

	tasks, err := svc.ListByPriority(context.Background(), "user-1", model.TaskPriorityMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("expected 1 task, got %d", len(tasks))
	}

	if _, err := svc.ListByPriority(context.Background(), "user-1", "urgent"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
