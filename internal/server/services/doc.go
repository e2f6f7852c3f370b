// Package services implements the backend's business rules on top of the
// repositories: catalog queries, online registration and the idempotent
// reconciliation of offline sales.
package services
