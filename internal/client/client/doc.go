// Package client contains the register's side of the backend contract.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): Ping,
//     FetchCatalog, ScanArticle, RegisterSale, SyncSales, ListSales and
//     LiveStats.
//  2. A concrete REST implementation (see HTTPClient) that speaks JSON to the
//     backend, applies per-call timeouts and maps HTTP status codes to
//     sentinel errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the register, wiring an SQLite database and applying embedded goose
//     migrations.
//
// # Error Handling
//
// Transport conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrConflict,
// ErrValidation. ErrUnavailable is the only one that means "fall back to the
// offline path". Article lookups and registrations additionally wrap the
// domain errors from package common.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation on top of their own timeouts.
package client
