// Package metadata keeps register bookkeeping that must survive a restart:
// how many sales the last sync applied, when it ran, and when each edition's
// catalog snapshot was fetched. Values are stored as text under
// "<area>:<edition>:<field>" keys.
package metadata

import (
	"context"
)

type Repository interface {
	// Get reports ok=false when the key was never written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

func LastSyncCountKey(editionID string) string {
	return "sync:" + editionID + ":last_count"
}

func LastSyncAtKey(editionID string) string {
	return "sync:" + editionID + ":last_at"
}

func CatalogFetchedAtKey(editionID string) string {
	return "catalog:" + editionID + ":fetched_at"
}
