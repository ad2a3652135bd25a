package model

import "time"

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) IsValid() bool {
	return p == TaskPriorityLow || p == TaskPriorityMedium || p == TaskPriorityHigh
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress || s == TaskStatusCompleted
}

type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     time.Time    `json:"due_date"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TaskListParams describes one page of an owner-scoped, filtered listing.
// A nil Priority/Status means no constraint on that field.
type TaskListParams struct {
	UserID   string
	Page     int
	Limit    int
	Search   string
	Priority *TaskPriority
	Status   *TaskStatus
}

type TaskListResult struct {
	Tasks       []Task `json:"tasks"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	TotalTasks  int    `json:"totalTasks"`
}

// TotalPages derives the page count for a filtered total. Zero matching
// tasks still yields one renderable (empty) page.
func TotalPages(totalTasks, limit int) int {
	if limit <= 0 {
		return 1
	}
	pages := (totalTasks + limit - 1) / limit
	if pages < 1 {
		return 1
	}
	return pages
}
