package repository

import (
	"context"

	"github.com/minsu-kang/taskhub-api/internal/model"
)

type TaskRepository interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
	GetByID(ctx context.Context, userID, taskID string) (model.Task, error)
	Update(ctx context.Context, task model.Task) (model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	// List returns one page of tasks matching params plus the total number
	// of matches ignoring pagination.
	List(ctx context.Context, params model.TaskListParams) ([]model.Task, int, error)
	ListByPriority(ctx context.Context, userID string, priority model.TaskPriority) ([]model.Task, error)
}
