// Package services implements the register's offline-capable sale flow:
// the connectivity Monitor, the CatalogCache, the OfflineQueue, the
// SyncEngine, the PointOfSale facade used by the user interface and the
// Coordinator that reacts to connectivity transitions.
package services
