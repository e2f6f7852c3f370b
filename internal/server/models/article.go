// Package models defines the backend's persisted records: catalog articles,
// confirmed sales and stored sync verdicts.
package models

import "github.com/shopspring/decimal"

// Article is one sellable article of an edition. An article can be sold once.
type Article struct {
	ID            string          `db:"id"`
	EditionID     string          `db:"edition_id"`
	Barcode       string          `db:"barcode"`
	Description   string          `db:"description"`
	Category      string          `db:"category"`
	Size          string          `db:"size"`
	Price         decimal.Decimal `db:"price"`
	Brand         string          `db:"brand"`
	IsLot         bool            `db:"is_lot"`
	LotQuantity   int             `db:"lot_quantity"`
	ListNumber    int             `db:"list_number"`
	DepositorName string          `db:"depositor_name"`
	LabelColor    string          `db:"label_color"`
}
