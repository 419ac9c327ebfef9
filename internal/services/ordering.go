package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adanyl0v/go-tasklists/internal/storage"
)

var tracer = otel.Tracer("github.com/adanyl0v/go-tasklists/internal/services")

// scope is the grouping whose positions are kept dense: a user for lists,
// a list (owned by the user) for tasks.
type scope struct {
	userID   string
	parentID int64
}

// collection adapts one entity type to the ordering algorithm. All methods
// run against the querier of the current transaction.
type collection[T any] interface {
	// resolveScope reports whether the scope's parent exists and is owned
	// by the scope's user.
	resolveScope(ctx context.Context, q storage.Querier, s scope) (bool, error)
	count(ctx context.Context, q storage.Querier, s scope) (int, error)
	insert(ctx context.Context, q storage.Querier, s scope, item *T, position int) error
	owned(ctx context.Context, q storage.Querier, userID string, ids []int64) ([]int64, error)
	// remove deletes one item with whatever cascade the entity needs and
	// reports whether it existed.
	remove(ctx context.Context, q storage.Querier, userID string, id int64) (bool, error)
	// place writes position (and scope membership) of one item.
	place(ctx context.Context, q storage.Querier, s scope, id int64, position int) (bool, error)
}

// orderedCollection implements append, delete and full reorder once for
// every collection. Positions are never compacted on delete or move; a
// full reorder is what makes them dense again.
type orderedCollection[T any] struct {
	logger zerolog.Logger
	store  storage.Store
	kind   string
	items  collection[T]
}

func newOrderedCollection[T any](
	logger zerolog.Logger,
	store storage.Store,
	kind string,
	items collection[T],
) *orderedCollection[T] {
	return &orderedCollection[T]{
		logger: logger.With().Str("collection", kind).Logger(),
		store:  store,
		kind:   kind,
		items:  items,
	}
}

// append stores item at position count(scope).
func (c *orderedCollection[T]) append(ctx context.Context, s scope, item *T) (int, error) {
	ctx, span := c.startSpan(ctx, "append", s)
	defer span.End()

	var position int
	err := c.store.InTx(ctx, func(q storage.Querier) error {
		ok, err := c.items.resolveScope(ctx, q, s)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: scope %d", ErrNotFound, s.parentID)
		}

		position, err = c.items.count(ctx, q, s)
		if err != nil {
			return err
		}
		c.logger.Debug().
			Str("user_id", s.userID).
			Int64("parent_id", s.parentID).
			Int("position", position).
			Msg("counted scope")

		return c.items.insert(ctx, q, s, item, position)
	})
	if err != nil {
		return 0, c.fail(span, err, "failed to append")
	}
	return position, nil
}

// delete removes one item. Survivors keep their positions.
func (c *orderedCollection[T]) delete(ctx context.Context, userID string, id int64) error {
	ctx, span := c.startSpan(ctx, "delete", scope{userID: userID})
	defer span.End()
	span.SetAttributes(attribute.Int64("item.id", id))

	err := c.store.InTx(ctx, func(q storage.Querier) error {
		ok, err := c.items.remove(ctx, q, userID, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s %d", ErrNotFound, c.kind, id)
		}
		return nil
	})
	if err != nil {
		return c.fail(span, err, "failed to delete")
	}
	return nil
}

// fullReorder assigns position i to order[i] inside one transaction. If any
// id is unknown to the caller nothing is written. Items of the scope that
// aren't listed keep their current positions.
func (c *orderedCollection[T]) fullReorder(ctx context.Context, s scope, order []int64) error {
	ctx, span := c.startSpan(ctx, "reorder", s)
	defer span.End()
	span.SetAttributes(attribute.Int("order.len", len(order)))

	err := validateOrder(order)
	if err != nil {
		return c.fail(span, err, "invalid order")
	}

	err = c.store.InTx(ctx, func(q storage.Querier) error {
		ok, err := c.items.resolveScope(ctx, q, s)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: scope %d", ErrNotFound, s.parentID)
		}

		owned, err := c.items.owned(ctx, q, s.userID, order)
		if err != nil {
			return err
		}
		if missing := missingIDs(order, owned); len(missing) > 0 {
			return &MissingIDsError{IDs: missing}
		}

		for i, id := range order {
			ok, err = c.items.place(ctx, q, s, id, i)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s %d vanished during reorder", c.kind, id)
			}
		}
		c.logger.Debug().
			Str("user_id", s.userID).
			Int64("parent_id", s.parentID).
			Int("count", len(order)).
			Msg("placed items")
		return nil
	})
	if err != nil {
		return c.fail(span, err, "failed to reorder")
	}
	return nil
}

func (c *orderedCollection[T]) startSpan(ctx context.Context, op string, s scope) (context.Context, trace.Span) {
	return tracer.Start(ctx, c.kind+"."+op, trace.WithAttributes(
		attribute.String("user.id", s.userID),
		attribute.Int64("scope.parent_id", s.parentID),
	))
}

// fail logs err, records it on the span and classifies it. Errors that are
// not part of the service taxonomy become ErrTransactionFailure.
func (c *orderedCollection[T]) fail(span trace.Span, err error, msg string) error {
	err = classify(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	failureEvent(c.logger, err).Err(err).Msg(msg)
	return err
}

// failureEvent logs caller mistakes at warn level and store failures at
// error level. err must already be classified.
func failureEvent(logger zerolog.Logger, err error) *zerolog.Event {
	if errors.Is(err, ErrTransactionFailure) {
		return logger.Error()
	}
	return logger.Warn()
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrTransactionFailure),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
	}
}
