package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adanyl0v/go-tasklists/internal/models"
	"github.com/adanyl0v/go-tasklists/internal/storage"
)

type listRepository struct {
	db dbtx
}

func (r listRepository) ListByUser(ctx context.Context, userID string) ([]models.List, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug, position, created_at, updated_at
		 FROM lists
		 WHERE user_id = ?
		 ORDER BY position, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select lists by user: %w", err)
	}
	defer rows.Close()

	var lists []models.List
	for rows.Next() {
		var (
			list                 = models.List{UserID: userID}
			createdAt, updatedAt int64
		)
		err = rows.Scan(&list.ID, &list.Name, &list.Slug, &list.Position, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		list.CreatedAt = fromMillis(createdAt)
		list.UpdatedAt = fromMillis(updatedAt)
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}
	return lists, nil
}

func (r listRepository) Get(ctx context.Context, userID string, id int64) (models.List, error) {
	var (
		list                 = models.List{ID: id, UserID: userID}
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT name, slug, position, created_at, updated_at
		 FROM lists
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&list.Name, &list.Slug, &list.Position, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.List{}, storage.ErrNotFound
		}
		return models.List{}, fmt.Errorf("get list: %w", err)
	}
	list.CreatedAt = fromMillis(createdAt)
	list.UpdatedAt = fromMillis(updatedAt)
	return list, nil
}

func (r listRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lists WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count lists: %w", err)
	}
	return count, nil
}

func (r listRepository) Insert(ctx context.Context, list *models.List) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO lists (user_id, name, slug, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		list.UserID,
		list.Name,
		list.Slug,
		list.Position,
		toMillis(list.CreatedAt),
		toMillis(list.UpdatedAt),
	).Scan(&list.ID)
	if err != nil {
		return fmt.Errorf("insert list: %w", err)
	}
	return nil
}

func (r listRepository) Update(ctx context.Context, list models.List) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lists
		 SET name = ?, slug = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		list.Name, list.Slug, toMillis(list.UpdatedAt), list.ID, list.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("update list: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

func (r listRepository) SetPosition(ctx context.Context, userID string, id int64, position int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lists SET position = ? WHERE id = ? AND user_id = ?`,
		position, id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("update list position: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

func (r listRepository) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lists WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete list: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

func (r listRepository) OwnedIDs(ctx context.Context, userID string, ids []int64) ([]int64, error) {
	return selectOwnedIDs(ctx, r.db, "lists", userID, ids)
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}
