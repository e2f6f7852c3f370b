package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/logging"
)

// Coordinator reacts to connectivity transitions: going online prefetches
// the catalog and syncs when sales are pending, going offline re-arms the
// prefetch guard for the next session.
type Coordinator struct {
	monitor   *Monitor
	catalog   *CatalogCache
	queue     *OfflineQueue
	engine    *SyncEngine
	editionID string
	log       logging.Logger

	wake chan struct{}
}

func NewCoordinator(m *Monitor, c *CatalogCache, q *OfflineQueue, e *SyncEngine, editionID string, log logging.Logger) *Coordinator {
	co := &Coordinator{
		monitor:   m,
		catalog:   c,
		queue:     q,
		engine:    e,
		editionID: editionID,
		log:       log,
		wake:      make(chan struct{}, 1),
	}
	m.OnTransition(co.onTransition)
	return co
}

func (co *Coordinator) onTransition(online bool) {
	if !online {
		co.catalog.Invalidate(co.editionID)
		return
	}
	select {
	case co.wake <- struct{}{}:
	default:
	}
}

// Run handles reconnects until ctx is done. Reconnects that arrive while
// one is being handled are coalesced.
func (co *Coordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-co.wake:
			if co.monitor.IsOnline() {
				co.reconnect(ctx)
			}
		}
	}
}

func (co *Coordinator) reconnect(ctx context.Context) {
	if err := co.catalog.Prefetch(ctx, co.editionID); err != nil {
		co.log.Warn(ctx, "catalog prefetch failed", "edition", co.editionID, "error", err)
	}

	n, err := co.queue.Count(ctx, co.editionID)
	if err != nil {
		co.log.Error(ctx, "failed to count pending sales", "error", err)
		return
	}
	if n == 0 {
		return
	}

	_, err = co.engine.Run(ctx, co.editionID)
	switch {
	case errors.Is(err, common.ErrSyncInFlight):
		co.log.Debug(ctx, "sync already running, reconnect coalesced")
	case err != nil:
		co.log.Warn(ctx, "sync after reconnect failed", "error", err)
	}
}
