package services

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/adanyl0v/go-tasklists/internal/storage"
)

type bootstrapServiceImpl struct {
	logger zerolog.Logger
	store  storage.Store
}

func NewBootstrapService(
	logger zerolog.Logger,
	store storage.Store,
) BootstrapService {
	return &bootstrapServiceImpl{
		logger: logger,
		store:  store,
	}
}

// GetSnapshot reads lists and tasks concurrently. The two reads are not one
// transaction, so a write landing in between may show up in only one half.
func (s *bootstrapServiceImpl) GetSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	err := requireUser(userID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot.Lists, err = s.store.Lists().ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot.Tasks, err = s.store.Tasks().ListByUser(gctx, userID)
		return err
	})

	err = g.Wait()
	if err != nil {
		err = classify(err)
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to load snapshot")
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", userID).
		Int("lists", len(snapshot.Lists)).
		Int("tasks", len(snapshot.Tasks)).
		Msg("loaded snapshot")
	return snapshot, nil
}
