package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/minsu-kang/taskhub-api/internal/model"
	"github.com/minsu-kang/taskhub-api/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// parseDueDate accepts a calendar date (2006-01-02) or a full RFC3339
// timestamp. Returns the zero time for nil input.
func parseDueDate(s *string) (time.Time, error) {
	if s == nil {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, *s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid due_date format, expected YYYY-MM-DD or RFC3339", ErrInvalidInput)
	}
	return t, nil
}

type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *string // date string, parsed here
	Priority    *string
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *string
	Status      *string
}

type TaskService struct {
	repo repository.TaskRepository
}

func NewTaskService(repo repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (model.Task, error) {
	if input.Title == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.Description == "" {
		return model.Task{}, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if input.DueDate == nil {
		return model.Task{}, fmt.Errorf("%w: due_date is required", ErrInvalidInput)
	}

	dueDate, err := parseDueDate(input.DueDate)
	if err != nil {
		return model.Task{}, err
	}

	priority := model.TaskPriorityMedium
	if input.Priority != nil {
		priority = model.TaskPriority(*input.Priority)
		if !priority.IsValid() {
			return model.Task{}, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, *input.Priority)
		}
	}

	task := model.Task{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      model.TaskStatusPending,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return created, nil
}

func (s *TaskService) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	task, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (model.Task, error) {
	existing, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task for update: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return model.Task{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		existing.Title = *input.Title
	}
	if input.Description != nil {
		if *input.Description == "" {
			return model.Task{}, fmt.Errorf("%w: description cannot be empty", ErrInvalidInput)
		}
		existing.Description = *input.Description
	}
	if input.DueDate != nil {
		dueDate, err := parseDueDate(input.DueDate)
		if err != nil {
			return model.Task{}, err
		}
		existing.DueDate = dueDate
	}
	if input.Priority != nil {
		priority := model.TaskPriority(*input.Priority)
		if !priority.IsValid() {
			return model.Task{}, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, *input.Priority)
		}
		existing.Priority = priority
	}
	if input.Status != nil {
		status := model.TaskStatus(*input.Status)
		if !status.IsValid() {
			return model.Task{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *input.Status)
		}
		existing.Status = status
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	return updated, nil
}

func (s *TaskService) UpdateStatus(ctx context.Context, userID, taskID string, status model.TaskStatus) (model.Task, error) {
	if !status.IsValid() {
		return model.Task{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}

	existing, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task for status update: %w", err)
	}

	existing.Status = status

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to update task status: %w", err)
	}

	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	err := s.repo.Delete(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// List returns one page of the owner's tasks under the given filters along
// with pagination totals. A page past the end yields an empty page, not an
// error.
func (s *TaskService) List(ctx context.Context, params model.TaskListParams) (model.TaskListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit <= 0 || params.Limit > maxPageSize {
		params.Limit = defaultPageSize
	}

	tasks, total, err := s.repo.List(ctx, params)
	if err != nil {
		return model.TaskListResult{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	return model.TaskListResult{
		Tasks:       tasks,
		CurrentPage: params.Page,
		TotalPages:  model.TotalPages(total, params.Limit),
		TotalTasks:  total,
	}, nil
}

func (s *TaskService) ListByPriority(ctx context.Context, userID string, priority model.TaskPriority) ([]model.Task, error) {
	if !priority.IsValid() {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, priority)
	}

	tasks, err := s.repo.ListByPriority(ctx, userID, priority)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by priority: %w", err)
	}
	return tasks, nil
}
