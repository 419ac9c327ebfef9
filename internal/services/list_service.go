package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasklists/internal/models"
	"github.com/adanyl0v/go-tasklists/internal/storage"
)

// listCollection orders a user's lists. The scope is the user itself, whose
// existence is guaranteed by whoever authenticated the caller.
type listCollection struct {
	logger zerolog.Logger
}

func (listCollection) resolveScope(context.Context, storage.Querier, scope) (bool, error) {
	return true, nil
}

func (listCollection) count(ctx context.Context, q storage.Querier, s scope) (int, error) {
	return q.Lists().CountByUser(ctx, s.userID)
}

func (listCollection) insert(ctx context.Context, q storage.Querier, s scope, list *models.List, position int) error {
	list.UserID = s.userID
	list.Position = position
	return q.Lists().Insert(ctx, list)
}

func (listCollection) owned(ctx context.Context, q storage.Querier, userID string, ids []int64) ([]int64, error) {
	return q.Lists().OwnedIDs(ctx, userID, ids)
}

// remove deletes the list's tasks first, then the list, filtering both by
// the caller so a foreign list id can never reach another user's rows.
func (c listCollection) remove(ctx context.Context, q storage.Querier, userID string, id int64) (bool, error) {
	_, err := q.Lists().Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	deleted, err := q.Tasks().DeleteByList(ctx, userID, id)
	if err != nil {
		return false, err
	}
	c.logger.Debug().
		Int64("list_id", id).
		Int64("affected", deleted).
		Msg("deleted tasks of list")

	return q.Lists().Delete(ctx, userID, id)
}

func (listCollection) place(ctx context.Context, q storage.Querier, s scope, id int64, position int) (bool, error) {
	return q.Lists().SetPosition(ctx, s.userID, id, position)
}

type listServiceImpl struct {
	logger  zerolog.Logger
	store   storage.Store
	ordered *orderedCollection[models.List]
}

func NewListService(
	logger zerolog.Logger,
	store storage.Store,
) ListService {
	return &listServiceImpl{
		logger:  logger,
		store:   store,
		ordered: newOrderedCollection[models.List](logger, store, "list", listCollection{logger: logger}),
	}
}

func normalizeListFields(name, slug string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", invalidArgument("name must not be empty")
	}
	if strings.TrimSpace(slug) == "" {
		slug = name
	}
	return name, models.Slugify(slug), nil
}

func (s *listServiceImpl) CreateList(ctx context.Context, params CreateListParams) (*models.List, error) {
	err := requireUser(params.UserID)
	if err != nil {
		return nil, err
	}
	name, slug, err := normalizeListFields(params.Name, params.Slug)
	if err != nil {
		return nil, err
	}

	createdAt := now()
	list := &models.List{
		Name:      name,
		Slug:      slug,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	_, err = s.ordered.append(ctx, scope{userID: params.UserID}, list)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("list_id", list.ID).
		Str("user_id", list.UserID).
		Int("position", list.Position).
		Msg("created list")
	return list, nil
}

func (s *listServiceImpl) GetLists(ctx context.Context, userID string) ([]models.List, error) {
	err := requireUser(userID)
	if err != nil {
		return nil, err
	}

	lists, err := s.store.Lists().ListByUser(ctx, userID)
	if err != nil {
		err = classify(err)
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select lists")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(lists)).
		Str("user_id", userID).
		Msg("selected lists")
	return lists, nil
}

func (s *listServiceImpl) GetList(ctx context.Context, userID string, listID int64) (*models.List, error) {
	err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	err = requireID("list id", listID)
	if err != nil {
		return nil, err
	}

	list, err := s.store.Lists().Get(ctx, userID, listID)
	if err != nil {
		err = classify(err)
		failureEvent(s.logger, err).
			Err(err).
			Int64("list_id", listID).
			Str("user_id", userID).
			Msg("failed to select list")
		return nil, err
	}
	return &list, nil
}

func (s *listServiceImpl) UpdateList(ctx context.Context, params UpdateListParams) (*models.List, error) {
	err := requireUser(params.UserID)
	if err != nil {
		return nil, err
	}
	err = requireID("list id", params.ListID)
	if err != nil {
		return nil, err
	}
	name, slug, err := normalizeListFields(params.Name, params.Slug)
	if err != nil {
		return nil, err
	}

	var list models.List
	err = s.store.InTx(ctx, func(q storage.Querier) error {
		list, err = q.Lists().Get(ctx, params.UserID, params.ListID)
		if err != nil {
			return err
		}

		list.Name = name
		list.Slug = slug
		list.UpdatedAt = now()
		var ok bool
		ok, err = q.Lists().Update(ctx, list)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: list %d", ErrNotFound, list.ID)
		}
		return nil
	})
	if err != nil {
		err = classify(err)
		failureEvent(s.logger, err).
			Err(err).
			Int64("list_id", params.ListID).
			Msg("failed to update list")
		return nil, err
	}

	s.logger.Info().
		Int64("list_id", list.ID).
		Str("user_id", list.UserID).
		Msg("updated list")
	return &list, nil
}

func (s *listServiceImpl) DeleteList(ctx context.Context, userID string, listID int64) error {
	err := requireUser(userID)
	if err != nil {
		return err
	}
	err = requireID("list id", listID)
	if err != nil {
		return err
	}

	err = s.ordered.delete(ctx, userID, listID)
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("list_id", listID).
		Str("user_id", userID).
		Msg("deleted list")
	return nil
}

func (s *listServiceImpl) ReorderLists(ctx context.Context, params ReorderListsParams) error {
	err := requireUser(params.UserID)
	if err != nil {
		return err
	}

	err = s.ordered.fullReorder(ctx, scope{userID: params.UserID}, params.Order)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("user_id", params.UserID).
		Int("count", len(params.Order)).
		Msg("reordered lists")
	return nil
}
