package scheduler

import (
	"context"

	"techtrack/internal/kvstore"
	"techtrack/internal/logger"
	"techtrack/internal/tracker"
)

// StoreSync keeps the in-memory working set aligned with the persisted
// state. It watches the tracker's storage key and re-merges on every
// change event, so a write from another context (another instance on
// the same store, or this one) shows up without a restart.
type StoreSync struct {
	store   kvstore.Store
	tracker *tracker.Tracker
	logger  logger.Logger
	stopCh  chan struct{}
}

// NewStoreSync creates a store change watcher for one tracker.
func NewStoreSync(store kvstore.Store, trk *tracker.Tracker, log logger.Logger) *StoreSync {
	return &StoreSync{
		store:   store,
		tracker: trk,
		logger:  log,
		stopCh:  make(chan struct{}),
	}
}

// Start subscribes to change events and refreshes the tracker until the
// context is cancelled or Stop is called.
func (ss *StoreSync) Start(ctx context.Context) error {
	events, cancel := ss.store.Watch(ss.tracker.StorageKey())

	go func() {
		defer cancel()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				ss.logger.Debug("store change event",
					logger.String("key", ev.Key))
				if err := ss.tracker.Refresh(ctx); err != nil {
					ss.logger.Error("failed to refresh working set",
						logger.Error(err))
				}
			case <-ss.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop terminates the watch loop.
func (ss *StoreSync) Stop() {
	close(ss.stopCh)
}
