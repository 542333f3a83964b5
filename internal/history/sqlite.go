package history

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"

	"clnoffers/internal/offers"
)

var ErrNotFound = errors.New("not found")

// SQLiteStore implements Store using SQLite. Records are upserted by
// (connection_id, id) so re-recording an offer after a node-side state
// change updates the row in place.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS offers (
			connection_id   TEXT NOT NULL,
			id              TEXT NOT NULL,
			bolt12          TEXT NOT NULL,
			type            TEXT NOT NULL,
			denomination    TEXT NOT NULL,
			amount          TEXT NOT NULL DEFAULT '',
			description     TEXT NOT NULL DEFAULT '',
			issuer          TEXT NOT NULL DEFAULT '',
			label           TEXT NOT NULL DEFAULT '',
			active          INTEGER NOT NULL DEFAULT 0,
			single_use      INTEGER NOT NULL DEFAULT 0,
			used            INTEGER NOT NULL DEFAULT 0,
			absolute_expiry INTEGER NOT NULL DEFAULT 0,
			quantity_max    INTEGER NOT NULL DEFAULT 0,
			node_id         TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (connection_id, id)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS invoices (
			connection_id TEXT NOT NULL,
			id            TEXT NOT NULL,
			hash          TEXT NOT NULL DEFAULT '',
			preimage      TEXT NOT NULL DEFAULT '',
			type          TEXT NOT NULL,
			direction     TEXT NOT NULL,
			amount        TEXT NOT NULL DEFAULT '',
			fee           TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL,
			started_at    INTEGER NOT NULL DEFAULT 0,
			completed_at  INTEGER NOT NULL DEFAULT 0,
			expires_at    INTEGER NOT NULL DEFAULT 0,
			pay_index     INTEGER NOT NULL DEFAULT 0,
			request       TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (connection_id, id)
		)
	`)
	return err
}

func (s *SQLiteStore) RecordOffer(ctx context.Context, o offers.Offer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offers (
			connection_id, id, bolt12, type, denomination, amount, description,
			issuer, label, active, single_use, used, absolute_expiry, quantity_max, node_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (connection_id, id) DO UPDATE SET
			active = excluded.active,
			single_use = excluded.single_use,
			used = excluded.used,
			label = excluded.label
	`, o.ConnectionID, o.ID, o.Bolt12, string(o.Type), o.Denomination, o.Amount,
		o.Description, o.Issuer, o.Label, boolInt(o.Active), boolInt(o.SingleUse),
		boolInt(o.Used), o.AbsoluteExpiry, o.QuantityMax, o.NodeID)
	return err
}

func (s *SQLiteStore) RecordInvoice(ctx context.Context, inv offers.Invoice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (
			connection_id, id, hash, preimage, type, direction, amount, fee,
			status, started_at, completed_at, expires_at, pay_index, request
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (connection_id, id) DO UPDATE SET
			preimage = excluded.preimage,
			status = excluded.status,
			completed_at = excluded.completed_at,
			pay_index = excluded.pay_index
	`, inv.ConnectionID, inv.ID, inv.Hash, inv.Preimage, inv.Type,
		string(inv.Direction), inv.Amount, inv.Fee, string(inv.Status),
		inv.StartedAt, inv.CompletedAt, inv.ExpiresAt, inv.PayIndex, inv.Request)
	return err
}

func (s *SQLiteStore) Offers(ctx context.Context, connectionID string) ([]offers.Offer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT connection_id, id, bolt12, type, denomination, amount, description,
			issuer, label, active, single_use, used, absolute_expiry, quantity_max, node_id
		FROM offers WHERE connection_id = ? ORDER BY rowid
	`, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []offers.Offer
	for rows.Next() {
		var o offers.Offer
		var typ string
		var active, singleUse, used int
		if err := rows.Scan(&o.ConnectionID, &o.ID, &o.Bolt12, &typ, &o.Denomination,
			&o.Amount, &o.Description, &o.Issuer, &o.Label, &active, &singleUse,
			&used, &o.AbsoluteExpiry, &o.QuantityMax, &o.NodeID); err != nil {
			return nil, err
		}
		o.Type = offers.OfferType(typ)
		o.Active = active == 1
		o.SingleUse = singleUse == 1
		o.Used = used == 1
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Invoices(ctx context.Context, connectionID string) ([]offers.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT connection_id, id, hash, preimage, type, direction, amount, fee,
			status, started_at, completed_at, expires_at, pay_index, request
		FROM invoices WHERE connection_id = ? ORDER BY rowid
	`, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []offers.Invoice
	for rows.Next() {
		var inv offers.Invoice
		var direction, status string
		if err := rows.Scan(&inv.ConnectionID, &inv.ID, &inv.Hash, &inv.Preimage,
			&inv.Type, &direction, &inv.Amount, &inv.Fee, &status, &inv.StartedAt,
			&inv.CompletedAt, &inv.ExpiresAt, &inv.PayIndex, &inv.Request); err != nil {
			return nil, err
		}
		inv.Direction = offers.InvoiceDirection(direction)
		inv.Status = offers.InvoiceStatus(status)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
