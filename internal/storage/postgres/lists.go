package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-tasklists/internal/models"
	"github.com/adanyl0v/go-tasklists/internal/storage"
)

type listRepository struct {
	db dbtx
}

func (r listRepository) ListByUser(ctx context.Context, userID string) ([]models.List, error) {
	const selectListsByUserIDQuery = `
SELECT id,
       name,
       slug,
       position,
       created_at,
       updated_at
FROM lists
WHERE user_id = $1
ORDER BY position, id
`
	rows, err := r.db.Query(ctx, selectListsByUserIDQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select lists by user id: %w", err)
	}
	defer rows.Close()

	var lists []models.List
	for rows.Next() {
		list := models.List{UserID: userID}
		err = rows.Scan(
			&list.ID,
			&list.Name,
			&list.Slug,
			&list.Position,
			&list.CreatedAt,
			&list.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return lists, nil
}

func (r listRepository) Get(ctx context.Context, userID string, id int64) (models.List, error) {
	const selectListByIDQuery = `
SELECT name,
       slug,
       position,
       created_at,
       updated_at
FROM lists
WHERE id = $1 AND user_id = $2
`
	list := models.List{ID: id, UserID: userID}
	err := r.db.QueryRow(ctx, selectListByIDQuery, id, userID).Scan(
		&list.Name,
		&list.Slug,
		&list.Position,
		&list.CreatedAt,
		&list.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.List{}, storage.ErrNotFound
		}
		return models.List{}, fmt.Errorf("failed to select list by id: %w", err)
	}
	return list, nil
}

func (r listRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	const countListsByUserIDQuery = `
SELECT COUNT(*)
FROM lists
WHERE user_id = $1
`
	var count int
	err := r.db.QueryRow(ctx, countListsByUserIDQuery, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lists: %w", err)
	}
	return count, nil
}

func (r listRepository) Insert(ctx context.Context, list *models.List) error {
	const insertListQuery = `
INSERT INTO lists (user_id,
                   name,
                   slug,
                   position,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`
	err := r.db.QueryRow(
		ctx,
		insertListQuery,
		list.UserID,
		list.Name,
		list.Slug,
		list.Position,
		list.CreatedAt,
		list.UpdatedAt,
	).Scan(&list.ID)
	if err != nil {
		return fmt.Errorf("failed to insert list: %w", err)
	}
	return nil
}

func (r listRepository) Update(ctx context.Context, list models.List) (bool, error) {
	const updateListQuery = `
UPDATE lists
SET name = $1,
    slug = $2,
    updated_at = $3
WHERE id = $4 AND user_id = $5
`
	tag, err := r.db.Exec(
		ctx,
		updateListQuery,
		list.Name,
		list.Slug,
		list.UpdatedAt,
		list.ID,
		list.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update list: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r listRepository) SetPosition(ctx context.Context, userID string, id int64, position int) (bool, error) {
	const updateListPositionQuery = `
UPDATE lists
SET position = $1
WHERE id = $2 AND user_id = $3
`
	tag, err := r.db.Exec(ctx, updateListPositionQuery, position, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to update list position: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r listRepository) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	const deleteListQuery = `
DELETE FROM lists
WHERE id = $1 AND user_id = $2
`
	tag, err := r.db.Exec(ctx, deleteListQuery, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete list: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r listRepository) OwnedIDs(ctx context.Context, userID string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const selectOwnedListIDsQuery = `
SELECT id
FROM lists
WHERE user_id = $1 AND id = ANY($2)
`
	rows, err := r.db.Query(ctx, selectOwnedListIDsQuery, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to select owned list ids: %w", err)
	}
	owned, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect owned list ids: %w", err)
	}
	return owned, nil
}
