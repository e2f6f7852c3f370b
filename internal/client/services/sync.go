package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/logging"
)

// SyncEngine submits the pending set of an edition as one batch and applies
// the per-item verdicts.
type SyncEngine struct {
	client  client.Client
	queue   *OfflineQueue
	meta    metadata.Repository
	log     logging.Logger
	timeout time.Duration
	now     func() time.Time

	inFlight atomic.Bool
}

func NewSyncEngine(c client.Client, q *OfflineQueue, meta metadata.Repository, log logging.Logger, timeout time.Duration) *SyncEngine {
	return &SyncEngine{
		client:  c,
		queue:   q,
		meta:    meta,
		log:     log,
		timeout: timeout,
		now:     time.Now,
	}
}

// InFlight reports whether a pass is running.
func (e *SyncEngine) InFlight() bool {
	return e.inFlight.Load()
}

// Run performs one sync pass. At most one pass runs at a time; an
// overlapping call returns common.ErrSyncInFlight without doing anything.
// If the batch call fails no record is touched and the error is returned.
func (e *SyncEngine) Run(ctx context.Context, editionID string) (*models.SyncReport, error) {
	if editionID == "" {
		return nil, common.ErrNoEdition
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, common.ErrSyncInFlight
	}
	defer e.inFlight.Store(false)

	report := &models.SyncReport{EditionID: editionID, StartedAt: e.now()}

	pending, err := e.queue.ListPending(ctx, editionID)
	if err != nil {
		return nil, fmt.Errorf("load pending sales: %w", err)
	}
	if len(pending) == 0 {
		report.FinishedAt = e.now()
		return report, nil
	}
	report.Submitted = len(pending)

	sctx, cancel := context.WithTimeout(ctx, e.timeout)
	outcomes, err := e.client.SyncSales(sctx, editionID, pending)
	cancel()
	if err != nil {
		e.log.Warn(ctx, "sync batch failed, records stay pending", "edition", editionID, "submitted", len(pending), "error", err)
		return nil, fmt.Errorf("sync batch: %w", err)
	}

	submitted := make(map[string]struct{}, len(pending))
	for _, p := range pending {
		submitted[p.ID] = struct{}{}
	}

	for _, o := range outcomes {
		if _, ok := submitted[o.ClientID]; !ok {
			e.log.Warn(ctx, "verdict for a sale that was not submitted", "client_id", o.ClientID)
			continue
		}
		applied, err := e.queue.ApplyResult(ctx, o)
		if err != nil {
			return nil, fmt.Errorf("apply verdict for %s: %w", o.ClientID, err)
		}
		if !applied {
			continue
		}
		switch o.Status {
		case models.StatusSynced:
			report.Synced++
		case models.StatusConflict:
			report.Conflicts++
		default:
			report.Errors++
		}
		report.Items = append(report.Items, o)
	}
	report.FinishedAt = e.now()

	if err := metadata.SetInt(ctx, e.meta, metadata.LastSyncCountKey(editionID), report.Synced); err != nil {
		e.log.Warn(ctx, "failed to store last sync count", "error", err)
	}
	if err := metadata.SetTime(ctx, e.meta, metadata.LastSyncAtKey(editionID), report.FinishedAt); err != nil {
		e.log.Warn(ctx, "failed to store last sync time", "error", err)
	}

	e.log.Info(ctx, "sync finished", "edition", editionID, "submitted", report.Submitted,
		"synced", report.Synced, "conflicts", report.Conflicts, "errors", report.Errors)
	return report, nil
}

// LastSyncCount is the number of sales synced by the last completed pass.
func (e *SyncEngine) LastSyncCount(ctx context.Context, editionID string) (int, error) {
	return metadata.GetInt(ctx, e.meta, metadata.LastSyncCountKey(editionID))
}

func (e *SyncEngine) LastSyncAt(ctx context.Context, editionID string) (time.Time, error) {
	return metadata.GetTime(ctx, e.meta, metadata.LastSyncAtKey(editionID))
}
