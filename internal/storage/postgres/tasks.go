package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-tasklists/internal/models"
	"github.com/adanyl0v/go-tasklists/internal/storage"
)

type taskRepository struct {
	db dbtx
}

const taskColumns = `
       id,
       user_id,
       list_id,
       title,
       description,
       due_date,
       recurring_config::text,
       completed,
       starred,
       position,
       created_at,
       updated_at`

func scanTask(row pgx.Row) (models.Task, error) {
	var (
		task      models.Task
		recurring *string
	)
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.ListID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&recurring,
		&task.Completed,
		&task.Starred,
		&task.Position,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}
	if recurring != nil {
		task.RecurringConfig = json.RawMessage(*recurring)
	}
	return task, nil
}

func recurringArg(config json.RawMessage) *string {
	if len(config) == 0 {
		return nil
	}
	s := string(config)
	return &s
}

func (r taskRepository) selectTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return tasks, nil
}

func (r taskRepository) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	const selectTasksByUserIDQuery = `
SELECT` + taskColumns + `
FROM tasks
WHERE user_id = $1
ORDER BY list_id, position, id
`
	return r.selectTasks(ctx, selectTasksByUserIDQuery, userID)
}

func (r taskRepository) ListByList(ctx context.Context, userID string, listID int64) ([]models.Task, error) {
	const selectTasksByListIDQuery = `
SELECT` + taskColumns + `
FROM tasks
WHERE user_id = $1 AND list_id = $2
ORDER BY position, id
`
	return r.selectTasks(ctx, selectTasksByListIDQuery, userID, listID)
}

func (r taskRepository) Get(ctx context.Context, userID string, id int64) (models.Task, error) {
	const selectTaskByIDQuery = `
SELECT` + taskColumns + `
FROM tasks
WHERE id = $1 AND user_id = $2
`
	task, err := scanTask(r.db.QueryRow(ctx, selectTaskByIDQuery, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("failed to select task by id: %w", err)
	}
	return task, nil
}

func (r taskRepository) CountByList(ctx context.Context, listID int64) (int, error) {
	const countTasksByListIDQuery = `
SELECT COUNT(*)
FROM tasks
WHERE list_id = $1
`
	var count int
	err := r.db.QueryRow(ctx, countTasksByListIDQuery, listID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

func (r taskRepository) Insert(ctx context.Context, task *models.Task) error {
	const insertTaskQuery = `
INSERT INTO tasks (user_id,
                   list_id,
                   title,
                   description,
                   due_date,
                   recurring_config,
                   completed,
                   starred,
                   position,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, $11)
RETURNING id
`
	err := r.db.QueryRow(
		ctx,
		insertTaskQuery,
		task.UserID,
		task.ListID,
		task.Title,
		task.Description,
		task.DueDate,
		recurringArg(task.RecurringConfig),
		task.Completed,
		task.Starred,
		task.Position,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (r taskRepository) Update(ctx context.Context, task models.Task) (bool, error) {
	const updateTaskQuery = `
UPDATE tasks
SET list_id = $1,
    title = $2,
    description = $3,
    due_date = $4,
    recurring_config = $5::jsonb,
    completed = $6,
    starred = $7,
    updated_at = $8
WHERE id = $9 AND user_id = $10
`
	tag, err := r.db.Exec(
		ctx,
		updateTaskQuery,
		task.ListID,
		task.Title,
		task.Description,
		task.DueDate,
		recurringArg(task.RecurringConfig),
		task.Completed,
		task.Starred,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, storage.ErrNotFound
		}
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r taskRepository) Place(ctx context.Context, userID string, id, listID int64, position int) (bool, error) {
	const updateTaskPlacementQuery = `
UPDATE tasks
SET list_id = $1,
    position = $2
WHERE id = $3 AND user_id = $4
`
	tag, err := r.db.Exec(ctx, updateTaskPlacementQuery, listID, position, id, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, storage.ErrNotFound
		}
		return false, fmt.Errorf("failed to update task placement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r taskRepository) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := r.db.Exec(ctx, deleteTaskQuery, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r taskRepository) DeleteByList(ctx context.Context, userID string, listID int64) (int64, error) {
	const deleteTasksByListIDQuery = `
DELETE FROM tasks
WHERE list_id = $1 AND user_id = $2
`
	tag, err := r.db.Exec(ctx, deleteTasksByListIDQuery, listID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks by list id: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r taskRepository) DeleteCompleted(ctx context.Context, userID string, listID int64) (int64, error) {
	const deleteCompletedTasksQuery = `
DELETE FROM tasks
WHERE list_id = $1 AND user_id = $2 AND completed = TRUE
`
	tag, err := r.db.Exec(ctx, deleteCompletedTasksQuery, listID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r taskRepository) OwnedIDs(ctx context.Context, userID string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const selectOwnedTaskIDsQuery = `
SELECT id
FROM tasks
WHERE user_id = $1 AND id = ANY($2)
`
	rows, err := r.db.Query(ctx, selectOwnedTaskIDsQuery, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to select owned task ids: %w", err)
	}
	owned, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect owned task ids: %w", err)
	}
	return owned, nil
}
