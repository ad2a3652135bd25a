package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/minsu-kang/taskhub-api/internal/model"
)

const taskColumns = "id, user_id, title, description, due_date, priority, status, created_at, updated_at"

type PostgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTask(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

func (r *PostgresTaskRepository) Create(ctx context.Context, task model.Task) (model.Task, error) {
	query := `
		INSERT INTO tasks (id, user_id, title, description, due_date, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), task.UserID, task.Title, task.Description,
		task.DueDate, task.Priority, task.Status,
	)

	return scanTask(row)
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, taskID, userID)
	return scanTask(row)
}

func (r *PostgresTaskRepository) Update(ctx context.Context, task model.Task) (model.Task, error) {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, due_date = $3, priority = $4, status = $5, updated_at = now()
		WHERE id = $6 AND user_id = $7
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.DueDate, task.Priority, task.Status,
		task.ID, task.UserID,
	)

	return scanTask(row)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// taskFilter composes the WHERE clause shared by the page query and the
// count query. The owner restriction is always the first predicate and
// cannot be displaced by any filter value.
func taskFilter(params model.TaskListParams) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{params.UserID}

	if params.Search != "" {
		n := len(args) + 1
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
		args = append(args, "%"+escapeLike(params.Search)+"%")
	}
	if params.Priority != nil {
		clauses = append(clauses, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, string(*params.Priority))
	}
	if params.Status != nil {
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*params.Status))
	}

	return strings.Join(clauses, " AND "), args
}

// escapeLike neutralizes LIKE metacharacters so search text is matched
// as a literal substring.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *PostgresTaskRepository) List(ctx context.Context, params model.TaskListParams) ([]model.Task, int, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	where, args := taskFilter(params)

	var total int
	countQuery := "SELECT count(*) FROM tasks WHERE " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	// id is the tie-break so pagination stays stable when tasks share a
	// creation timestamp.
	query := fmt.Sprintf(
		"SELECT %s FROM tasks WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		taskColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *PostgresTaskRepository) ListByPriority(ctx context.Context, userID string, priority model.TaskPriority) ([]model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND priority = $2
		ORDER BY due_date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, string(priority))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by priority: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTask(row scannable) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate,
		&t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to scan task: %w", err)
	}
	return t, nil
}

// ensure compile-time interface compliance
var _ TaskRepository = (*PostgresTaskRepository)(nil)
