// Package offers drives BOLT12 offers and invoice requests on a node
// connection: listing, creation, disabling, and the invoice exchange against
// them. All node state stays on the node; the types here are read models
// assembled from RPC responses.
package offers

import "errors"

var (
	ErrAmountRequired = errors.New("withdraw offers require an amount")
	ErrOfferRequired  = errors.New("an offer string is required")
	ErrLabelRequired  = errors.New("a label is required")
)

// OfferType distinguishes "pay me" offers from "pay me back" invoice
// requests.
type OfferType string

const (
	OfferTypePay      OfferType = "pay"
	OfferTypeWithdraw OfferType = "withdraw"
)

// Offer is a BOLT12 offer or invoice request as this wallet sees it. The
// Active and Used flags are node-reported truth and are never flipped
// locally; a fresh Get reflects node-side changes.
type Offer struct {
	ID             string    `json:"id"` // node-assigned offer_id or invreq_id
	Bolt12         string    `json:"bolt12"` // canonical encoded string, immutable
	Type           OfferType `json:"type"`
	Denomination   string    `json:"denomination"` // "sats", "msats", "btc", or a lowercased fiat code
	Amount         string    `json:"amount,omitempty"` // decimal string in Denomination units; empty means any amount
	Description    string    `json:"description"`
	Issuer         string    `json:"issuer,omitempty"`
	Label          string    `json:"label"`
	Active         bool      `json:"active"`
	SingleUse      bool      `json:"singleUse"`
	Used           bool      `json:"used"`
	AbsoluteExpiry uint64    `json:"expiry,omitempty"` // unix seconds; zero means no expiry
	QuantityMax    uint64    `json:"quantityMax,omitempty"` // pay offers only; zero means unlimited
	ConnectionID   string    `json:"connectionId"`
	NodeID         string    `json:"nodeId"`
}

// InvoiceDirection is the side of an invoice exchange we are on.
type InvoiceDirection string

const (
	DirectionSend    InvoiceDirection = "send"
	DirectionReceive InvoiceDirection = "receive"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	StatusPending  InvoiceStatus = "pending"
	StatusComplete InvoiceStatus = "complete"
	StatusExpired  InvoiceStatus = "expired"
	StatusFailed   InvoiceStatus = "failed"
)

// InvoiceTypeBolt12 is the only invoice type this subsystem produces.
const InvoiceTypeBolt12 = "bolt12"

// Invoice is one settled or in-flight BOLT12 invoice exchange. Values are
// immutable once constructed; repeated operations produce new Invoices.
type Invoice struct {
	ID           string           `json:"id"` // label on the receive path, random id on the send path
	Hash         string           `json:"hash"`
	Preimage     string           `json:"preimage,omitempty"` // present only once settled
	Type         string           `json:"type"` // always InvoiceTypeBolt12
	Direction    InvoiceDirection `json:"direction"`
	Amount       string           `json:"amount"` // whole sats
	Fee          string           `json:"fee,omitempty"` // whole sats, send path only; zero is valid
	Status       InvoiceStatus    `json:"status"`
	StartedAt    int64            `json:"startedAt"` // unix seconds
	CompletedAt  int64            `json:"completedAt,omitempty"` // unix seconds; zero while pending
	ExpiresAt    int64            `json:"expiresAt,omitempty"` // unix seconds; zero if the node did not report one
	PayIndex     uint64           `json:"payIndex,omitempty"`
	Request      string           `json:"request"` // the bolt12 string used
	ConnectionID string           `json:"connectionId"`
}
