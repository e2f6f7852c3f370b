package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sync verdicts.
const (
	VerdictSynced   = "synced"
	VerdictConflict = "conflict"
	VerdictError    = "error"
)

// SyncItem is one offline sale submitted by a register.
type SyncItem struct {
	ClientID       string          `json:"clientId"`
	ArticleID      string          `json:"articleId"`
	Barcode        string          `json:"barcode"`
	Price          decimal.Decimal `json:"price"`
	PaymentMethod  string          `json:"paymentMethod"`
	RegisterNumber int             `json:"registerNumber"`
	SoldAt         time.Time       `json:"soldAt"`
}

// SyncResult is the verdict returned for one client id. It is stored so a
// resubmitted id gets the same answer back.
type SyncResult struct {
	EditionID    string    `db:"edition_id" json:"editionId"`
	ClientID     string    `db:"client_id" json:"clientId"`
	Status       string    `db:"status" json:"status"`
	ServerSaleID string    `db:"server_sale_id" json:"serverSaleId,omitempty"`
	ErrorMessage string    `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// SyncSummary is the outcome of one sync batch, in submission order.
type SyncSummary struct {
	Synced    int          `json:"synced"`
	Conflicts int          `json:"conflicts"`
	Errors    int          `json:"errors"`
	Results   []SyncResult `json:"results"`
}

// Add appends r and updates the counters.
func (s *SyncSummary) Add(r SyncResult) {
	switch r.Status {
	case VerdictSynced:
		s.Synced++
	case VerdictConflict:
		s.Conflicts++
	default:
		s.Errors++
	}
	s.Results = append(s.Results, r)
}
