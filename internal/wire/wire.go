// Package wire defines the JSON request and response bodies exchanged between
// the register client and the backend. Both sides convert these DTOs to their
// own models; nothing here carries behaviour beyond validation helpers.
package wire

import (
	"time"

	"github.com/shopspring/decimal"
)

// Article is one sellable article of an edition catalog.
type Article struct {
	ArticleID     string          `json:"articleId"`
	Barcode       string          `json:"barcode"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Size          string          `json:"size"`
	Price         decimal.Decimal `json:"price"`
	Brand         string          `json:"brand"`
	IsLot         bool            `json:"isLot"`
	LotQuantity   int             `json:"lotQuantity"`
	ListNumber    int             `json:"listNumber"`
	DepositorName string          `json:"depositorName"`
	LabelColor    string          `json:"labelColor"`
}

type ScanRequest struct {
	Barcode string `json:"barcode"`
}

// RegisterSaleRequest registers a sale online. ClientID is optional; when
// present the backend treats it as an idempotency key shared with the sync
// endpoint.
type RegisterSaleRequest struct {
	ArticleID      string `json:"articleId"`
	PaymentMethod  string `json:"paymentMethod"`
	RegisterNumber int    `json:"registerNumber"`
	ClientID       string `json:"clientId,omitempty"`
}

// Sale is a server-confirmed sale.
type Sale struct {
	ID                 string          `json:"id"`
	ClientID           string          `json:"clientId,omitempty"`
	ArticleID          string          `json:"articleId"`
	Barcode            string          `json:"barcode"`
	ArticleDescription string          `json:"articleDescription"`
	Price              decimal.Decimal `json:"price"`
	PaymentMethod      string          `json:"paymentMethod"`
	RegisterNumber     int             `json:"registerNumber"`
	SoldAt             time.Time       `json:"soldAt"`
}

// SyncSalePayload is one offline sale submitted for reconciliation.
type SyncSalePayload struct {
	ClientID       string          `json:"clientId"`
	ArticleID      string          `json:"articleId"`
	Barcode        string          `json:"barcode"`
	Price          decimal.Decimal `json:"price"`
	PaymentMethod  string          `json:"paymentMethod"`
	RegisterNumber int             `json:"registerNumber"`
	SoldAt         time.Time       `json:"soldAt"`
}

type SyncRequest struct {
	Sales []SyncSalePayload `json:"sales"`
}

// Per-item sync verdicts.
const (
	StatusSynced   = "synced"
	StatusConflict = "conflict"
	StatusError    = "error"
)

type SyncResult struct {
	ClientID     string `json:"clientId"`
	Status       string `json:"status"`
	ServerSaleID string `json:"serverSaleId,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type SyncResponse struct {
	Synced    int          `json:"synced"`
	Conflicts int          `json:"conflicts"`
	Errors    int          `json:"errors"`
	Results   []SyncResult `json:"results"`
}

// LiveStats summarises sales of an edition as they happen.
type LiveStats struct {
	SalesCount      int                        `json:"salesCount"`
	Total           decimal.Decimal            `json:"total"`
	ByPaymentMethod map[string]decimal.Decimal `json:"byPaymentMethod"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ImportArticlesResponse reports how many catalog articles were upserted.
type ImportArticlesResponse struct {
	Imported int `json:"imported"`
}
