package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adanyl0v/go-tasklists/internal/models"
	"github.com/adanyl0v/go-tasklists/internal/storage"
)

type taskRepository struct {
	db dbtx
}

const selectTaskColumns = `SELECT id, user_id, list_id, title, description, due_date, recurring_config,
	completed, starred, position, created_at, updated_at
	FROM tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task                 models.Task
		description          sql.NullString
		dueDate              sql.NullInt64
		recurring            sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.ListID,
		&task.Title,
		&description,
		&dueDate,
		&recurring,
		&task.Completed,
		&task.Starred,
		&task.Position,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}
	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		due := fromMillis(dueDate.Int64)
		task.DueDate = &due
	}
	if recurring.Valid {
		task.RecurringConfig = json.RawMessage(recurring.String)
	}
	task.CreatedAt = fromMillis(createdAt)
	task.UpdatedAt = fromMillis(updatedAt)
	return task, nil
}

// taskArgs converts the nullable task fields into driver values.
func taskArgs(task models.Task) (description, dueDate, recurring any) {
	if task.Description != nil {
		description = *task.Description
	}
	if task.DueDate != nil {
		dueDate = toMillis(*task.DueDate)
	}
	if len(task.RecurringConfig) > 0 {
		recurring = string(task.RecurringConfig)
	}
	return description, dueDate, recurring
}

func (r taskRepository) selectTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r taskRepository) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	return r.selectTasks(ctx,
		selectTaskColumns+` WHERE user_id = ? ORDER BY list_id, position, id`,
		userID,
	)
}

func (r taskRepository) ListByList(ctx context.Context, userID string, listID int64) ([]models.Task, error) {
	return r.selectTasks(ctx,
		selectTaskColumns+` WHERE user_id = ? AND list_id = ? ORDER BY position, id`,
		userID, listID,
	)
}

func (r taskRepository) Get(ctx context.Context, userID string, id int64) (models.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		selectTaskColumns+` WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (r taskRepository) CountByList(ctx context.Context, listID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE list_id = ?`, listID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

func (r taskRepository) Insert(ctx context.Context, task *models.Task) error {
	description, dueDate, recurring := taskArgs(*task)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, list_id, title, description, due_date, recurring_config,
		                    completed, starred, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		task.UserID,
		task.ListID,
		task.Title,
		description,
		dueDate,
		recurring,
		task.Completed,
		task.Starred,
		task.Position,
		toMillis(task.CreatedAt),
		toMillis(task.UpdatedAt),
	).Scan(&task.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r taskRepository) Update(ctx context.Context, task models.Task) (bool, error) {
	description, dueDate, recurring := taskArgs(task)
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET list_id = ?, title = ?, description = ?, due_date = ?, recurring_config = ?,
		     completed = ?, starred = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		task.ListID,
		task.Title,
		description,
		dueDate,
		recurring,
		task.Completed,
		task.Starred,
		toMillis(task.UpdatedAt),
		task.ID,
		task.UserID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, storage.ErrNotFound
		}
		return false, fmt.Errorf("update task: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

func (r taskRepository) Place(ctx context.Context, userID string, id, listID int64, position int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET list_id = ?, position = ? WHERE id = ? AND user_id = ?`,
		listID, position, id, userID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, storage.ErrNotFound
		}
		return false, fmt.Errorf("update task placement: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

func (r taskRepository) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

func (r taskRepository) DeleteByList(ctx context.Context, userID string, listID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE list_id = ? AND user_id = ?`, listID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks by list: %w", err)
	}
	return rowsAffected(res)
}

func (r taskRepository) DeleteCompleted(ctx context.Context, userID string, listID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE list_id = ? AND user_id = ? AND completed = 1`,
		listID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete completed tasks: %w", err)
	}
	return rowsAffected(res)
}

func (r taskRepository) OwnedIDs(ctx context.Context, userID string, ids []int64) ([]int64, error) {
	return selectOwnedIDs(ctx, r.db, "tasks", userID, ids)
}
