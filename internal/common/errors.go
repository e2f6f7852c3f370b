// Package common defines sentinel errors shared by the register client and
// the reference backend. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrRecordNotFound = errors.New("record not found")

	// Article lookup errors. ErrArticleNotFoundOffline is deliberately a
	// separate value: the article may exist, the register just cannot verify
	// it without the server.
	ErrArticleNotFound        = errors.New("article not found")
	ErrArticleNotFoundOffline = errors.New("article not found in offline catalog")
	ErrArticleAlreadySold     = errors.New("article already sold")

	// ErrDuplicateClientID is returned by the backend when a client id has
	// already been used for another sale of the edition.
	ErrDuplicateClientID = errors.New("duplicate client id")

	// Validation errors.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidSale          = errors.New("invalid sale")
	ErrNoEdition            = errors.New("no edition selected")

	// Offline queue lifecycle errors.
	ErrNotResolvable = errors.New("only conflict or error records can be acknowledged")
	ErrSyncInFlight  = errors.New("sync already in progress")
)
