package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"clnoffers/internal/history"
	"clnoffers/internal/logging"
	"clnoffers/internal/offers"
)

// Snapshot is one exported view of a connection's ledger.
type Snapshot struct {
	ConnectionID string           `json:"connectionId"`
	ExportedAt   int64            `json:"exportedAt"` // unix seconds
	Offers       []offers.Offer   `json:"offers"`
	Invoices     []offers.Invoice `json:"invoices"`
}

// Exporter serializes a connection's history into snapshot objects.
type Exporter struct {
	store   history.Store
	storage Storage
	now     func() time.Time
}

// NewExporter creates an exporter writing to the given storage.
func NewExporter(store history.Store, storage Storage) *Exporter {
	return &Exporter{
		store:   store,
		storage: storage,
		now:     time.Now,
	}
}

// Export writes a snapshot of connectionID's ledger and returns the object
// name it was stored under.
func (e *Exporter) Export(ctx context.Context, connectionID string) (string, error) {
	offerList, err := e.store.Offers(ctx, connectionID)
	if err != nil {
		return "", fmt.Errorf("load offers: %w", err)
	}
	invoiceList, err := e.store.Invoices(ctx, connectionID)
	if err != nil {
		return "", fmt.Errorf("load invoices: %w", err)
	}

	snap := Snapshot{
		ConnectionID: connectionID,
		ExportedAt:   e.now().Unix(),
		Offers:       offerList,
		Invoices:     invoiceList,
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%d-%s.json", connectionID, snap.ExportedAt, id.String()[:8])

	size, err := e.storage.Save(ctx, name, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	logging.Backup.Printf("exported %s (%d offers, %d invoices, %d bytes)",
		name, len(snap.Offers), len(snap.Invoices), size)
	return name, nil
}

// Restore loads a snapshot by name and replays it into the history store.
func (e *Exporter) Restore(ctx context.Context, name string) (Snapshot, error) {
	rc, err := e.storage.Load(ctx, name)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	defer rc.Close()

	var snap Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	for _, o := range snap.Offers {
		if err := e.store.RecordOffer(ctx, o); err != nil {
			return Snapshot{}, fmt.Errorf("restore offer %s: %w", o.ID, err)
		}
	}
	for _, inv := range snap.Invoices {
		if err := e.store.RecordInvoice(ctx, inv); err != nil {
			return Snapshot{}, fmt.Errorf("restore invoice %s: %w", inv.ID, err)
		}
	}

	logging.Backup.Printf("restored %s (%d offers, %d invoices)", name, len(snap.Offers), len(snap.Invoices))
	return snap, nil
}
