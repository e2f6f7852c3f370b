package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncOutcome is the server verdict for a single queued sale.
type SyncOutcome struct {
	ClientID     string
	Status       SaleStatus
	ServerSaleID string
	ErrorMessage string
}

// SyncReport is the aggregate result of one sync pass.
type SyncReport struct {
	EditionID  string
	Submitted  int
	Synced     int
	Conflicts  int
	Errors     int
	Items      []SyncOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Applied is the number of records that left the pending state.
func (r *SyncReport) Applied() int {
	return r.Synced + r.Conflicts + r.Errors
}

// LiveStats mirrors the backend's running totals for an edition.
type LiveStats struct {
	SalesCount      int
	Total           decimal.Decimal
	ByPaymentMethod map[PaymentMethod]decimal.Decimal
}
