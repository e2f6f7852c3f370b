package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentCheck PaymentMethod = "check"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentCheck:
		return true
	}
	return false
}

// ParsePaymentMethod accepts the method names case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	p := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidPaymentMethod, s)
	}
	return p, nil
}

// SaleStatus is the lifecycle state of a PendingSale. The only transitions
// are pending -> synced, pending -> conflict and pending -> error.
type SaleStatus string

const (
	StatusPending  SaleStatus = "pending"
	StatusSynced   SaleStatus = "synced"
	StatusConflict SaleStatus = "conflict"
	StatusError    SaleStatus = "error"
)

// Terminal reports whether a server verdict has been applied.
func (s SaleStatus) Terminal() bool {
	return s == StatusSynced || s == StatusConflict || s == StatusError
}

// SaleDraft is what the point of sale hands to the offline queue.
// ClientID may be preset when the sale was first attempted online.
type SaleDraft struct {
	ClientID           string
	EditionID          string
	ArticleID          string
	Barcode            string
	ArticleDescription string
	Price              decimal.Decimal
	PaymentMethod      PaymentMethod
	RegisterNumber     int
	SoldAt             time.Time
}

// PendingSale is a locally originated sale awaiting, or carrying, a server
// verdict. ID is the idempotency key sent to the sync endpoint and never
// changes.
type PendingSale struct {
	ID                 string
	EditionID          string
	ArticleID          string
	Barcode            string
	ArticleDescription string
	Price              decimal.Decimal
	PaymentMethod      PaymentMethod
	RegisterNumber     int
	SoldAt             time.Time
	Status             SaleStatus
	ServerSaleID       string
	ErrorMessage       string
	ResolvedAt         *time.Time
	AcknowledgedAt     *time.Time
	ResolutionNote     string
}

// Sale is a server-confirmed sale as returned by the backend.
type Sale struct {
	ID                 string
	ClientID           string
	ArticleID          string
	Barcode            string
	ArticleDescription string
	Price              decimal.Decimal
	PaymentMethod      PaymentMethod
	RegisterNumber     int
	SoldAt             time.Time
}

// SaleResult is returned by the point of sale for both the online and the
// offline registration path.
type SaleResult struct {
	ID                 string
	ArticleID          string
	Barcode            string
	ArticleDescription string
	Price              decimal.Decimal
	PaymentMethod      PaymentMethod
	RegisterNumber     int
	SoldAt             time.Time
	IsOffline          bool
}

// DisplaySale is one row of the merged sales view.
type DisplaySale struct {
	ID                 string
	ArticleID          string
	Barcode            string
	ArticleDescription string
	Price              decimal.Decimal
	PaymentMethod      PaymentMethod
	RegisterNumber     int
	SoldAt             time.Time
	Status             SaleStatus
	Offline            bool
}

// DisplaySales is the merged view plus its running total.
type DisplaySales struct {
	Sales []DisplaySale
	Total decimal.Decimal
}
