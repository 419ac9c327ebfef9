// Package storage defines the transactional store contract used by the
// list and task services. Every query that touches a user's data takes the
// caller's user id as a predicate next to the row id.
package storage

import (
	"context"
	"errors"

	"github.com/adanyl0v/go-tasklists/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Store interface {
	Querier

	// InTx runs fn against a single transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	InTx(ctx context.Context, fn func(q Querier) error) error

	Close() error
}

type Querier interface {
	Lists() ListRepository
	Tasks() TaskRepository
}

type ListRepository interface {
	// ListByUser returns the user's lists ordered by position, then id.
	ListByUser(ctx context.Context, userID string) ([]models.List, error)

	// Get returns ErrNotFound if the list doesn't exist or isn't owned by userID.
	Get(ctx context.Context, userID string, id int64) (models.List, error)

	CountByUser(ctx context.Context, userID string) (int, error)

	// Insert stores the list and fills in its ID.
	Insert(ctx context.Context, list *models.List) error

	// Update writes name, slug and updated_at only.
	Update(ctx context.Context, list models.List) (bool, error)

	SetPosition(ctx context.Context, userID string, id int64, position int) (bool, error)

	Delete(ctx context.Context, userID string, id int64) (bool, error)

	// OwnedIDs returns the subset of ids that exist and belong to userID.
	OwnedIDs(ctx context.Context, userID string, ids []int64) ([]int64, error)
}

type TaskRepository interface {
	// ListByUser returns every task of the user ordered by list, position, id.
	ListByUser(ctx context.Context, userID string) ([]models.Task, error)

	// ListByList returns the tasks of one list ordered by position, then id.
	ListByList(ctx context.Context, userID string, listID int64) ([]models.Task, error)

	// Get returns ErrNotFound if the task doesn't exist or isn't owned by userID.
	Get(ctx context.Context, userID string, id int64) (models.Task, error)

	CountByList(ctx context.Context, listID int64) (int, error)

	// Insert stores the task and fills in its ID. It returns ErrNotFound if
	// the referenced list no longer exists.
	Insert(ctx context.Context, task *models.Task) error

	// Update writes every mutable field including list_id. Position is
	// never touched.
	Update(ctx context.Context, task models.Task) (bool, error)

	// Place sets list_id and position of one task.
	Place(ctx context.Context, userID string, id, listID int64, position int) (bool, error)

	Delete(ctx context.Context, userID string, id int64) (bool, error)

	DeleteByList(ctx context.Context, userID string, listID int64) (int64, error)

	DeleteCompleted(ctx context.Context, userID string, listID int64) (int64, error)

	// OwnedIDs returns the subset of ids that exist and belong to userID,
	// regardless of the list they are in.
	OwnedIDs(ctx context.Context, userID string, ids []int64) ([]int64, error)
}
