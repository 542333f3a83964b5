// Package history keeps a local record of the offers created and invoices
// exchanged through this wallet. The node remains the source of truth; this
// is bookkeeping for the UI and for backup export.
package history

import (
	"context"

	"clnoffers/internal/offers"
)

// Store defines the interface for history persistence.
type Store interface {
	RecordOffer(ctx context.Context, o offers.Offer) error
	RecordInvoice(ctx context.Context, inv offers.Invoice) error
	Offers(ctx context.Context, connectionID string) ([]offers.Offer, error)
	Invoices(ctx context.Context, connectionID string) ([]offers.Invoice, error)
	Close() error
}
