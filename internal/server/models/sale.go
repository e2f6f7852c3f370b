package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale sources.
const (
	SourceOnline = "online"
	SourceSync   = "sync"
)

// Sale is a confirmed sale. ClientID is the register-generated idempotency
// key and may be empty for online sales from older registers.
type Sale struct {
	ID                 string          `db:"id"`
	EditionID          string          `db:"edition_id"`
	ClientID           string          `db:"client_id"`
	ArticleID          string          `db:"article_id"`
	Barcode            string          `db:"barcode"`
	ArticleDescription string          `db:"article_description"`
	Price              decimal.Decimal `db:"price"`
	PaymentMethod      string          `db:"payment_method"`
	RegisterNumber     int             `db:"register_number"`
	SoldAt             time.Time       `db:"sold_at"`
	Source             string          `db:"source"`
	CreatedAt          time.Time       `db:"created_at"`
}

// SalesStats aggregates the confirmed sales of an edition.
type SalesStats struct {
	Count           int
	Total           decimal.Decimal
	ByPaymentMethod map[string]decimal.Decimal
}

// Payment methods accepted by the backend.
const (
	PaymentCash  = "cash"
	PaymentCard  = "card"
	PaymentCheck = "check"
)

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentCheck:
		return true
	}
	return false
}
