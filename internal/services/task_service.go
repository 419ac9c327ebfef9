package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasklists/internal/models"
	"github.com/adanyl0v/go-tasklists/internal/storage"
)

// taskCollection orders the tasks of one list. Ownership of individual
// tasks is checked by user, not by list, so a reorder may pull tasks in
// from any of the caller's lists.
type taskCollection struct{}

func (taskCollection) resolveScope(ctx context.Context, q storage.Querier, s scope) (bool, error) {
	_, err := q.Lists().Get(ctx, s.userID, s.parentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (taskCollection) count(ctx context.Context, q storage.Querier, s scope) (int, error) {
	return q.Tasks().CountByList(ctx, s.parentID)
}

func (taskCollection) insert(ctx context.Context, q storage.Querier, s scope, task *models.Task, position int) error {
	task.UserID = s.userID
	task.ListID = s.parentID
	task.Position = position
	return q.Tasks().Insert(ctx, task)
}

func (taskCollection) owned(ctx context.Context, q storage.Querier, userID string, ids []int64) ([]int64, error) {
	return q.Tasks().OwnedIDs(ctx, userID, ids)
}

func (taskCollection) remove(ctx context.Context, q storage.Querier, userID string, id int64) (bool, error) {
	return q.Tasks().Delete(ctx, userID, id)
}

func (taskCollection) place(ctx context.Context, q storage.Querier, s scope, id int64, position int) (bool, error) {
	return q.Tasks().Place(ctx, s.userID, id, s.parentID, position)
}

type taskServiceImpl struct {
	logger  zerolog.Logger
	store   storage.Store
	ordered *orderedCollection[models.Task]
}

func NewTaskService(
	logger zerolog.Logger,
	store storage.Store,
) TaskService {
	return &taskServiceImpl{
		logger:  logger,
		store:   store,
		ordered: newOrderedCollection[models.Task](logger, store, "task", taskCollection{}),
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	err := requireUser(params.UserID)
	if err != nil {
		return nil, err
	}
	err = requireID("list id", params.ListID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, invalidArgument("title must not be empty")
	}
	if len(params.RecurringConfig) > 0 && !json.Valid(params.RecurringConfig) {
		return nil, invalidArgument("recurring config must be valid json")
	}

	createdAt := now()
	task := &models.Task{
		Title:           title,
		Description:     params.Description,
		DueDate:         truncateTime(params.DueDate),
		RecurringConfig: params.RecurringConfig,
		Completed:       params.Completed,
		Starred:         params.Starred,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	_, err = s.ordered.append(ctx, scope{userID: params.UserID, parentID: params.ListID}, task)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Int64("list_id", task.ListID).
		Int("position", task.Position).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, userID string, taskID int64) (*models.Task, error) {
	err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	err = requireID("task id", taskID)
	if err != nil {
		return nil, err
	}

	task, err := s.store.Tasks().Get(ctx, userID, taskID)
	if err != nil {
		err = classify(err)
		failureEvent(s.logger, err).
			Err(err).
			Int64("task_id", taskID).
			Str("user_id", userID).
			Msg("failed to select task")
		return nil, err
	}
	return &task, nil
}

func (s *taskServiceImpl) GetTasksByList(ctx context.Context, userID string, listID int64) ([]models.Task, error) {
	err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	err = requireID("list id", listID)
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	err = s.store.InTx(ctx, func(q storage.Querier) error {
		_, err := q.Lists().Get(ctx, userID, listID)
		if err != nil {
			return err
		}
		tasks, err = q.Tasks().ListByList(ctx, userID, listID)
		return err
	})
	if err != nil {
		err = classify(err)
		failureEvent(s.logger, err).
			Err(err).
			Int64("list_id", listID).
			Msg("failed to select tasks by list")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Int64("list_id", listID).
		Msg("selected tasks by list")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	err := requireUser(params.UserID)
	if err != nil {
		return nil, err
	}
	err = requireID("task id", params.TaskID)
	if err != nil {
		return nil, err
	}
	err = params.Patch.validate()
	if err != nil {
		return nil, err
	}

	var task models.Task
	err = s.store.InTx(ctx, func(q storage.Querier) error {
		task, err = q.Tasks().Get(ctx, params.UserID, params.TaskID)
		if err != nil {
			return err
		}

		patch := params.Patch
		if patch.ListID.Set && patch.ListID.Value != task.ListID {
			_, err = q.Lists().Get(ctx, params.UserID, patch.ListID.Value)
			if err != nil {
				return fmt.Errorf("target list %d: %w", patch.ListID.Value, err)
			}
			s.logger.Debug().
				Int64("task_id", task.ID).
				Int64("from_list_id", task.ListID).
				Int64("to_list_id", patch.ListID.Value).
				Msg("moving task")
		}

		patch.apply(&task)
		task.UpdatedAt = now()
		var ok bool
		ok, err = q.Tasks().Update(ctx, task)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: task %d", ErrNotFound, task.ID)
		}
		return nil
	})
	if err != nil {
		err = classify(err)
		failureEvent(s.logger, err).
			Err(err).
			Int64("task_id", params.TaskID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return &task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID string, taskID int64) error {
	err := requireUser(userID)
	if err != nil {
		return err
	}
	err = requireID("task id", taskID)
	if err != nil {
		return err
	}

	err = s.ordered.delete(ctx, userID, taskID)
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) ReorderTasks(ctx context.Context, params ReorderTasksParams) error {
	err := requireUser(params.UserID)
	if err != nil {
		return err
	}
	err = requireID("list id", params.ListID)
	if err != nil {
		return err
	}

	err = s.ordered.fullReorder(ctx, scope{userID: params.UserID, parentID: params.ListID}, params.Order)
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("list_id", params.ListID).
		Int("count", len(params.Order)).
		Msg("reordered tasks")
	return nil
}

func (s *taskServiceImpl) DeleteCompletedTasks(ctx context.Context, userID string, listID int64) (int64, error) {
	err := requireUser(userID)
	if err != nil {
		return 0, err
	}
	err = requireID("list id", listID)
	if err != nil {
		return 0, err
	}

	var deleted int64
	err = s.store.InTx(ctx, func(q storage.Querier) error {
		_, err := q.Lists().Get(ctx, userID, listID)
		if err != nil {
			return err
		}
		deleted, err = q.Tasks().DeleteCompleted(ctx, userID, listID)
		return err
	})
	if err != nil {
		err = classify(err)
		failureEvent(s.logger, err).
			Err(err).
			Int64("list_id", listID).
			Msg("failed to delete completed tasks")
		return 0, err
	}

	s.logger.Info().
		Int64("list_id", listID).
		Int64("deleted", deleted).
		Msg("deleted completed tasks")
	return deleted, nil
}
