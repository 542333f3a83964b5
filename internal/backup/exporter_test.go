package backup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"clnoffers/internal/history"
	"clnoffers/internal/offers"
)

func newTestLedger(t *testing.T) history.Store {
	t.Helper()
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestExportAndRestore(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)

	offer := offers.Offer{
		ID:           "o1",
		Bolt12:       "lno1abc",
		Type:         offers.OfferTypePay,
		Denomination: "sats",
		Amount:       "100",
		Description:  "coffee",
		Label:        "coffee-1",
		Active:       true,
		ConnectionID: "conn-1",
	}
	require.NoError(t, store.RecordOffer(ctx, offer))

	inv := offers.Invoice{
		ID:           "withdraw-1",
		Type:         offers.InvoiceTypeBolt12,
		Direction:    offers.DirectionReceive,
		Amount:       "5",
		Status:       offers.StatusComplete,
		ConnectionID: "conn-1",
	}
	require.NoError(t, store.RecordInvoice(ctx, inv))

	storage, err := NewFSStorage(t.TempDir())
	require.NoError(t, err)

	exp := NewExporter(store, storage)
	name, err := exp.Export(ctx, "conn-1")
	require.NoError(t, err)
	require.NotEmpty(t, name)

	// Restore into a fresh ledger.
	fresh := newTestLedger(t)
	snap, err := NewExporter(fresh, storage).Restore(ctx, name)
	require.NoError(t, err)
	require.Equal(t, "conn-1", snap.ConnectionID)
	require.Len(t, snap.Offers, 1)
	require.Len(t, snap.Invoices, 1)

	gotOffers, err := fresh.Offers(ctx, "conn-1")
	require.NoError(t, err)
	require.Equal(t, []offers.Offer{offer}, gotOffers)

	gotInvoices, err := fresh.Invoices(ctx, "conn-1")
	require.NoError(t, err)
	require.Equal(t, []offers.Invoice{inv}, gotInvoices)
}

func TestExportEmptyConnection(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)

	storage, err := NewFSStorage(t.TempDir())
	require.NoError(t, err)

	name, err := NewExporter(store, storage).Export(ctx, "conn-empty")
	require.NoError(t, err)
	require.NotEmpty(t, name)
}

func TestRestoreMissingSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)

	storage, err := NewFSStorage(t.TempDir())
	require.NoError(t, err)

	_, err = NewExporter(store, storage).Restore(ctx, "nope.json")
	require.ErrorIs(t, err, ErrNotFound)
}
