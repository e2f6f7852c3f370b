// Package models defines the register-side data model: the cached catalog,
// locally queued sales and the results handed to the user interface.
package models

import "github.com/shopspring/decimal"

// CachedArticle is an immutable snapshot of one sellable article taken at
// prefetch time. Prices are fixed at declaration time and never re-read.
type CachedArticle struct {
	ArticleID     string
	EditionID     string
	Barcode       string
	Description   string
	Category      string
	Size          string
	Price         decimal.Decimal
	Brand         string
	IsLot         bool
	LotQuantity   int
	ListNumber    int
	DepositorName string
	LabelColor    string
}
