package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adanyl0v/go-tasklists/internal/models"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrTransactionFailure = errors.New("transaction failure")
)

// MissingIDsError is returned by reorders whose batch contains ids that
// don't exist or aren't owned by the caller.
type MissingIDsError struct {
	IDs []int64
}

func (e *MissingIDsError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s: unknown ids [%s]", ErrInvalidArgument, strings.Join(ids, ", "))
}

func (e *MissingIDsError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

type ListService interface {
	// CreateList appends a list at the end of the user's order.
	CreateList(ctx context.Context, params CreateListParams) (*models.List, error)

	// GetLists returns the user's lists ordered by position.
	GetLists(ctx context.Context, userID string) ([]models.List, error)

	// GetList returns ErrNotFound if the list isn't owned by the user.
	GetList(ctx context.Context, userID string, listID int64) (*models.List, error)

	// UpdateList renames a list. Its position never changes.
	UpdateList(ctx context.Context, params UpdateListParams) (*models.List, error)

	// DeleteList deletes the list together with all of its tasks.
	// Positions of the remaining lists are left as they are.
	DeleteList(ctx context.Context, userID string, listID int64) error

	// ReorderLists assigns position i to the i-th id. Either every
	// position is written or none is.
	ReorderLists(ctx context.Context, params ReorderListsParams) error
}

type TaskService interface {
	// CreateTask appends a task at the end of the given list.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	GetTask(ctx context.Context, userID string, taskID int64) (*models.Task, error)

	// GetTasksByList returns ErrNotFound if the list isn't owned by the user.
	GetTasksByList(ctx context.Context, userID string, listID int64) ([]models.Task, error)

	// UpdateTask applies a patch. Moving a task to another list keeps its
	// position value and doesn't renumber either list.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	DeleteTask(ctx context.Context, userID string, taskID int64) error

	// ReorderTasks moves every listed task into the target list and
	// assigns position i to the i-th id, in one transaction.
	ReorderTasks(ctx context.Context, params ReorderTasksParams) error

	// DeleteCompletedTasks removes the completed tasks of a list and
	// returns how many were deleted.
	DeleteCompletedTasks(ctx context.Context, userID string, listID int64) (int64, error)
}

type BootstrapService interface {
	// GetSnapshot returns every list and task of the user.
	GetSnapshot(ctx context.Context, userID string) (*Snapshot, error)
}

type Snapshot struct {
	Lists []models.List
	Tasks []models.Task
}

type CreateListParams struct {
	UserID string
	Name   string
	// Slug is derived from Name when empty.
	Slug string
}

type UpdateListParams struct {
	UserID string
	ListID int64
	Name   string
	// Slug is derived from Name when empty.
	Slug string
}

type ReorderListsParams struct {
	UserID string
	Order  []int64
}

type CreateTaskParams struct {
	UserID          string
	ListID          int64
	Title           string
	Description     *string
	DueDate         *time.Time
	RecurringConfig json.RawMessage
	Completed       bool
	Starred         bool
}

type UpdateTaskParams struct {
	UserID string
	TaskID int64
	Patch  TaskPatch
}

// TaskPatch lists the fields a partial update may touch. Absent fields are
// left unchanged; Description, DueDate and RecurringConfig may be cleared.
type TaskPatch struct {
	Title           models.Optional[string]
	Description     models.Optional[string]
	DueDate         models.Optional[time.Time]
	RecurringConfig models.Optional[json.RawMessage]
	Completed       models.Optional[bool]
	Starred         models.Optional[bool]
	ListID          models.Optional[int64]
}

func (p TaskPatch) validate() error {
	if p.Title.Set && (!p.Title.Valid || strings.TrimSpace(p.Title.Value) == "") {
		return invalidArgument("title must not be empty")
	}
	if p.Completed.Set && !p.Completed.Valid {
		return invalidArgument("completed must be a boolean")
	}
	if p.Starred.Set && !p.Starred.Valid {
		return invalidArgument("starred must be a boolean")
	}
	if p.ListID.Set && (!p.ListID.Valid || p.ListID.Value <= 0) {
		return invalidArgument("list id must be a positive integer")
	}
	if p.RecurringConfig.Valid && !json.Valid(p.RecurringConfig.Value) {
		return invalidArgument("recurring config must be valid json")
	}
	return nil
}

func (p TaskPatch) apply(task *models.Task) {
	if p.Title.Set {
		task.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		task.Description = p.Description.Ptr()
	}
	if p.DueDate.Set {
		task.DueDate = truncateTime(p.DueDate.Ptr())
	}
	if p.RecurringConfig.Set {
		task.RecurringConfig = nil
		if p.RecurringConfig.Valid {
			task.RecurringConfig = p.RecurringConfig.Value
		}
	}
	if p.Completed.Set {
		task.Completed = p.Completed.Value
	}
	if p.Starred.Set {
		task.Starred = p.Starred.Value
	}
	if p.ListID.Set {
		task.ListID = p.ListID.Value
	}
}

type ReorderTasksParams struct {
	UserID string
	ListID int64
	Order  []int64
}

// now returns the current time at the precision every store keeps, so a
// value returned by a command equals the one read back later.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func truncateTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUnauthenticated
	}
	return nil
}

func requireID(name string, id int64) error {
	if id <= 0 {
		return invalidArgument("%s must be a positive integer", name)
	}
	return nil
}

// validateOrder rejects batches with non-positive or repeated ids.
func validateOrder(order []int64) error {
	if order == nil {
		return invalidArgument("order must be an array of ids")
	}
	seen := make(map[int64]struct{}, len(order))
	for _, id := range order {
		if id <= 0 {
			return invalidArgument("order contains invalid id %d", id)
		}
		if _, ok := seen[id]; ok {
			return invalidArgument("order contains duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// missingIDs returns the ids of want that are not in got, in want's order.
func missingIDs(want, got []int64) []int64 {
	found := make(map[int64]struct{}, len(got))
	for _, id := range got {
		found[id] = struct{}{}
	}

	var missing []int64
	for _, id := range want {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
