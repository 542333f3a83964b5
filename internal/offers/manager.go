package offers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/sync/errgroup"

	"clnoffers/internal/amount"
	"clnoffers/internal/bolt12"
	"clnoffers/internal/logging"
	"clnoffers/internal/rpc"
)

// Stable operation context literals. These surface in every ConnError and in
// the UI's error views, so they must not change between releases.
const (
	ctxGetOffers       = "getOffers (offers)"
	ctxCreatePay       = "createPay (offers)"
	ctxDisablePay      = "disablePay (offers)"
	ctxCreateWithdraw  = "createWithdraw (offers)"
	ctxDisableWithdraw = "disableWithdraw (offers)"
	ctxFetchInvoice    = "fetchInvoice (offers)"
	ctxSendInvoice     = "sendInvoice (offers)"
	ctxPayInvoice      = "payInvoice (offers)"
)

// anyAmount is the node's distinguished "no amount" sentinel for offers. An
// omitted or zero amount is a different request entirely.
const anyAmount = "any"

// defaultSendTimeout is how many seconds the node keeps presenting an
// invoice when the caller does not choose a timeout.
const defaultSendTimeout uint64 = 30

// Recorder receives a copy of every offer created and invoice exchanged for
// local bookkeeping. Recording is best effort and never fails an operation.
type Recorder interface {
	RecordOffer(ctx context.Context, o Offer) error
	RecordInvoice(ctx context.Context, inv Invoice) error
}

// Manager orchestrates the offers RPC surface of one node connection.
type Manager struct {
	conn     *rpc.Conn
	decoder  bolt12.Decoder
	recorder Recorder
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder attaches a local history recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager for the given connection and decoder.
func NewManager(conn *rpc.Conn, decoder bolt12.Decoder, opts ...Option) *Manager {
	m := &Manager{
		conn:    conn,
		decoder: decoder,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// rawOfferEntry is one entry of listoffers or listinvoicerequests; the two
// differ only in the id field name.
type rawOfferEntry struct {
	OfferID   string `json:"offer_id"`
	InvreqID  string `json:"invreq_id"`
	Active    bool   `json:"active"`
	SingleUse bool   `json:"single_use"`
	Used      bool   `json:"used"`
	Label     string `json:"label"`
	Bolt12    string `json:"bolt12"`
}

func (e rawOfferEntry) id(typ OfferType) string {
	if typ == OfferTypeWithdraw {
		return e.InvreqID
	}
	return e.OfferID
}

type listOffersResult struct {
	Offers []rawOfferEntry `json:"offers"`
}

type listInvoiceRequestsResult struct {
	InvoiceRequests []rawOfferEntry `json:"invoicerequests"`
}

// Get lists all offers and invoice requests known to the node. The two
// listing calls run concurrently, as do the per-entry decodes; the returned
// order is always pay offers in node order followed by invoice requests in
// node order, regardless of decode completion order.
func (m *Manager) Get(ctx context.Context) ([]Offer, error) {
	list, err := m.get(ctx)
	if err != nil {
		return nil, m.conn.Fail(err, ctxGetOffers)
	}
	return list, nil
}

func (m *Manager) get(ctx context.Context) ([]Offer, error) {
	var pay listOffersResult
	var withdraw listInvoiceRequestsResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.call(gctx, "listoffers", nil, &pay) })
	g.Go(func() error { return m.call(gctx, "listinvoicerequests", nil, &withdraw) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type pending struct {
		entry rawOfferEntry
		typ   OfferType
	}
	entries := make([]pending, 0, len(pay.Offers)+len(withdraw.InvoiceRequests))
	for _, e := range pay.Offers {
		entries = append(entries, pending{entry: e, typ: OfferTypePay})
	}
	for _, e := range withdraw.InvoiceRequests {
		entries = append(entries, pending{entry: e, typ: OfferTypeWithdraw})
	}

	out := make([]Offer, len(entries))
	dg, dctx := errgroup.WithContext(ctx)
	for i, p := range entries {
		i, p := i, p
		dg.Go(func() error {
			decoded, err := m.decoder.Decode(dctx, p.entry.Bolt12)
			if err != nil {
				return fmt.Errorf("decode %s: %w", p.entry.id(p.typ), err)
			}
			out[i] = m.assembleOffer(p.typ, p.entry, decoded)
			return nil
		})
	}
	if err := dg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manager) assembleOffer(typ OfferType, e rawOfferEntry, decoded bolt12.Offer) Offer {
	return Offer{
		ID:           e.id(typ),
		Bolt12:       e.Bolt12,
		Type:         typ,
		Denomination: decoded.Denomination,
		Amount:       decoded.Amount,
		Description:  decoded.Description,
		Issuer:       decoded.Issuer,
		Label:        e.Label,
		Active:       e.Active,
		SingleUse:    e.SingleUse,
		Used:         e.Used,
		ConnectionID: m.conn.ConnectionID,
		NodeID:       m.conn.NodeID,
	}
}

// createOfferResult covers both the offer and invoicerequest responses.
type createOfferResult struct {
	OfferID   string `json:"offer_id"`
	InvreqID  string `json:"invreq_id"`
	Bolt12    string `json:"bolt12"`
	Active    bool   `json:"active"`
	SingleUse bool   `json:"single_use"`
	Used      bool   `json:"used"`
}

// CreatePayOptions configures a new pay offer. An empty AmountSats creates
// an "any amount" offer. Expiry is an absolute unix timestamp passed through
// verbatim; this build never does relative expiry arithmetic.
type CreatePayOptions struct {
	AmountSats     string
	Description    string
	Issuer         string
	Label          string
	QuantityMax    uint64
	AbsoluteExpiry uint64
	SingleUse      bool
}

// CreatePay creates a reusable "pay me" offer on the node.
func (m *Manager) CreatePay(ctx context.Context, opts CreatePayOptions) (Offer, error) {
	offer, err := m.createPay(ctx, opts)
	if err != nil {
		return Offer{}, m.conn.Fail(err, ctxCreatePay)
	}
	m.recordOffer(ctx, offer)
	return offer, nil
}

func (m *Manager) createPay(ctx context.Context, opts CreatePayOptions) (Offer, error) {
	if opts.Label == "" {
		return Offer{}, ErrLabelRequired
	}

	amt := anyAmount
	if opts.AmountSats != "" {
		msats, err := amount.SatsToMsats(opts.AmountSats)
		if err != nil {
			return Offer{}, err
		}
		amt = msats
	}

	params := map[string]any{
		"amount":      amt,
		"description": opts.Description,
		"label":       opts.Label,
	}
	if opts.Issuer != "" {
		params["issuer"] = opts.Issuer
	}
	if opts.QuantityMax > 0 {
		params["quantity_max"] = opts.QuantityMax
	}
	if opts.AbsoluteExpiry > 0 {
		params["absolute_expiry"] = opts.AbsoluteExpiry
	}
	if opts.SingleUse {
		params["single_use"] = true
	}

	var result createOfferResult
	if err := m.call(ctx, "offer", params, &result); err != nil {
		return Offer{}, err
	}

	return Offer{
		ID:             result.OfferID,
		Bolt12:         result.Bolt12,
		Type:           OfferTypePay,
		Denomination:   "sats",
		Amount:         opts.AmountSats,
		Description:    opts.Description,
		Issuer:         opts.Issuer,
		Label:          opts.Label,
		Active:         result.Active,
		SingleUse:      result.SingleUse,
		Used:           result.Used,
		AbsoluteExpiry: opts.AbsoluteExpiry,
		QuantityMax:    opts.QuantityMax,
		ConnectionID:   m.conn.ConnectionID,
		NodeID:         m.conn.NodeID,
	}, nil
}

// DisablePay disables a pay offer. There is no delete; disabling is the
// strongest state change the node supports.
func (m *Manager) DisablePay(ctx context.Context, offerID string) error {
	if err := m.call(ctx, "disableoffer", map[string]any{"offer_id": offerID}, nil); err != nil {
		return m.conn.Fail(err, ctxDisablePay)
	}
	return nil
}

// CreateWithdrawOptions configures a new invoice request. AmountSats is
// mandatory; a withdraw offer for "any amount" does not exist.
type CreateWithdrawOptions struct {
	AmountSats     string
	Description    string
	Issuer         string
	Label          string
	AbsoluteExpiry uint64
	SingleUse      bool
}

// CreateWithdraw creates a "pay me back" invoice request on the node.
func (m *Manager) CreateWithdraw(ctx context.Context, opts CreateWithdrawOptions) (Offer, error) {
	offer, err := m.createWithdraw(ctx, opts)
	if err != nil {
		return Offer{}, m.conn.Fail(err, ctxCreateWithdraw)
	}
	m.recordOffer(ctx, offer)
	return offer, nil
}

func (m *Manager) createWithdraw(ctx context.Context, opts CreateWithdrawOptions) (Offer, error) {
	if opts.AmountSats == "" {
		return Offer{}, ErrAmountRequired
	}
	if opts.Label == "" {
		return Offer{}, ErrLabelRequired
	}

	msats, err := amount.SatsToMsats(opts.AmountSats)
	if err != nil {
		return Offer{}, err
	}

	params := map[string]any{
		"amount":      msats,
		"description": opts.Description,
		"label":       opts.Label,
		// The node defaults invoice requests to single use; state our
		// choice explicitly either way.
		"single_use": opts.SingleUse,
	}
	if opts.Issuer != "" {
		params["issuer"] = opts.Issuer
	}
	if opts.AbsoluteExpiry > 0 {
		params["absolute_expiry"] = opts.AbsoluteExpiry
	}

	var result createOfferResult
	if err := m.call(ctx, "invoicerequest", params, &result); err != nil {
		return Offer{}, err
	}

	return Offer{
		ID:             result.InvreqID,
		Bolt12:         result.Bolt12,
		Type:           OfferTypeWithdraw,
		Denomination:   "sats",
		Amount:         opts.AmountSats,
		Description:    opts.Description,
		Issuer:         opts.Issuer,
		Label:          opts.Label,
		Active:         result.Active,
		SingleUse:      result.SingleUse,
		Used:           result.Used,
		AbsoluteExpiry: opts.AbsoluteExpiry,
		ConnectionID:   m.conn.ConnectionID,
		NodeID:         m.conn.NodeID,
	}, nil
}

// DisableWithdraw disables an invoice request.
func (m *Manager) DisableWithdraw(ctx context.Context, invReqID string) error {
	if err := m.call(ctx, "disableinvoicerequest", map[string]any{"invreq_id": invReqID}, nil); err != nil {
		return m.conn.Fail(err, ctxDisableWithdraw)
	}
	return nil
}

// FetchInvoiceOptions configures fetching an invoice against someone else's
// pay offer.
type FetchInvoiceOptions struct {
	Offer      string
	AmountSats string // required for any-amount offers, otherwise optional
	Quantity   uint64
	Timeout    uint64 // seconds
	PayerNote  string
}

// FetchInvoice asks the offer's issuer for an invoice and returns the raw
// bolt12 invoice string unparsed.
func (m *Manager) FetchInvoice(ctx context.Context, opts FetchInvoiceOptions) (string, error) {
	invoice, err := m.fetchInvoice(ctx, opts)
	if err != nil {
		return "", m.conn.Fail(err, ctxFetchInvoice)
	}
	return invoice, nil
}

func (m *Manager) fetchInvoice(ctx context.Context, opts FetchInvoiceOptions) (string, error) {
	if opts.Offer == "" {
		return "", ErrOfferRequired
	}

	params := map[string]any{"offer": opts.Offer}
	if opts.AmountSats != "" {
		msats, err := amount.SatsToMsats(opts.AmountSats)
		if err != nil {
			return "", err
		}
		params["amount_msat"] = msats
	}
	if opts.Quantity > 0 {
		params["quantity"] = opts.Quantity
	}
	if opts.Timeout > 0 {
		params["timeout"] = opts.Timeout
	}
	if opts.PayerNote != "" {
		params["payer_note"] = opts.PayerNote
	}

	var result struct {
		Invoice string `json:"invoice"`
	}
	if err := m.call(ctx, "fetchinvoice", params, &result); err != nil {
		return "", err
	}
	return result.Invoice, nil
}

// SendInvoiceOptions configures issuing an invoice against a withdraw offer.
// AmountMsats, when set, is passed through verbatim in the positional list.
type SendInvoiceOptions struct {
	Offer       string
	Label       string
	AmountMsats string
	Timeout     uint64 // seconds; defaults to defaultSendTimeout
	Quantity    uint64
}

type sendInvoiceResult struct {
	PaymentHash        string          `json:"payment_hash"`
	PaymentPreimage    string          `json:"payment_preimage"`
	Status             string          `json:"status"`
	Bolt12             string          `json:"bolt12"`
	ExpiresAt          int64           `json:"expires_at"`
	PaidAt             int64           `json:"paid_at"`
	AmountReceivedMsat json.RawMessage `json:"amount_received_msat"`
	PayIndex           uint64          `json:"pay_index"`
}

// SendInvoice issues an invoice for a withdraw offer and waits for the node
// to report payment.
//
// The sendinvoice params are positional and amount-conditional: with an
// amount the list is [offer, label, amount, timeout, quantity]; without one
// the amount slot is absent entirely, [offer, label, timeout, quantity]. A
// null or zero placeholder is a different call and the node will reject or
// misread it, so the two shapes are built separately.
func (m *Manager) SendInvoice(ctx context.Context, opts SendInvoiceOptions) (Invoice, error) {
	invoice, err := m.sendInvoice(ctx, opts)
	if err != nil {
		return Invoice{}, m.conn.Fail(err, ctxSendInvoice)
	}
	m.recordInvoice(ctx, invoice)
	return invoice, nil
}

func (m *Manager) sendInvoice(ctx context.Context, opts SendInvoiceOptions) (Invoice, error) {
	if opts.Offer == "" {
		return Invoice{}, ErrOfferRequired
	}
	if opts.Label == "" {
		return Invoice{}, ErrLabelRequired
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultSendTimeout
	}

	params := []any{opts.Offer, opts.Label}
	if opts.AmountMsats != "" {
		params = append(params, opts.AmountMsats)
	}
	params = append(params, timeout)
	if opts.Quantity > 0 {
		params = append(params, opts.Quantity)
	}

	started := m.now().Unix()

	var result sendInvoiceResult
	if err := m.call(ctx, "sendinvoice", params, &result); err != nil {
		return Invoice{}, err
	}

	amountMsats := opts.AmountMsats
	if result.AmountReceivedMsat != nil {
		received, err := amount.ParseMsatField(result.AmountReceivedMsat)
		if err != nil {
			return Invoice{}, err
		}
		amountMsats = received
	}

	var sats string
	if amountMsats != "" {
		var err error
		sats, err = amount.MsatsToSats(amountMsats)
		if err != nil {
			return Invoice{}, err
		}
	}

	// The node omits paid_at on some successful calls; synthesize a
	// completion time so the record is not open-ended. Best effort, not an
	// authoritative settlement time.
	completedAt := result.PaidAt
	if completedAt == 0 {
		completedAt = m.now().Unix()
	}

	request := result.Bolt12
	if request == "" {
		request = opts.Offer
	}

	return Invoice{
		ID:           opts.Label,
		Hash:         result.PaymentHash,
		Preimage:     result.PaymentPreimage,
		Type:         InvoiceTypeBolt12,
		Direction:    DirectionReceive,
		Amount:       sats,
		Status:       mapInvoiceStatus(result.Status),
		StartedAt:    started,
		CompletedAt:  completedAt,
		ExpiresAt:    result.ExpiresAt,
		PayIndex:     result.PayIndex,
		Request:      request,
		ConnectionID: m.conn.ConnectionID,
	}, nil
}

type payResult struct {
	PaymentHash     string          `json:"payment_hash"`
	PaymentPreimage string          `json:"payment_preimage"`
	CreatedAt       float64         `json:"created_at"`
	AmountMsat      json.RawMessage `json:"amount_msat"`
	AmountSentMsat  json.RawMessage `json:"amount_sent_msat"`
	Status          string          `json:"status"`
	Destination     string          `json:"destination"`
}

// PayInvoice pays a fetched bolt12 invoice. The pay call does not return an
// identifier for this path, so the Invoice carries a freshly generated one.
func (m *Manager) PayInvoice(ctx context.Context, bolt12Invoice string) (Invoice, error) {
	invoice, err := m.payInvoice(ctx, bolt12Invoice)
	if err != nil {
		return Invoice{}, m.conn.Fail(err, ctxPayInvoice)
	}
	m.recordInvoice(ctx, invoice)
	return invoice, nil
}

func (m *Manager) payInvoice(ctx context.Context, bolt12Invoice string) (Invoice, error) {
	if bolt12Invoice == "" {
		return Invoice{}, ErrOfferRequired
	}

	var result payResult
	if err := m.call(ctx, "pay", []any{bolt12Invoice}, &result); err != nil {
		return Invoice{}, err
	}

	amountMsats, err := amount.ParseMsatField(result.AmountMsat)
	if err != nil {
		return Invoice{}, err
	}
	sentMsats, err := amount.ParseMsatField(result.AmountSentMsat)
	if err != nil {
		return Invoice{}, err
	}

	sats, err := amount.MsatsToSats(amountMsats)
	if err != nil {
		return Invoice{}, err
	}
	fee, err := amount.FeeSats(sentMsats, amountMsats)
	if err != nil {
		return Invoice{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return Invoice{}, err
	}

	status := mapInvoiceStatus(result.Status)
	var completedAt int64
	if status == StatusComplete {
		completedAt = m.now().Unix()
	}

	return Invoice{
		ID:           id.String(),
		Hash:         result.PaymentHash,
		Preimage:     result.PaymentPreimage,
		Type:         InvoiceTypeBolt12,
		Direction:    DirectionSend,
		Amount:       sats,
		Fee:          fee,
		Status:       status,
		StartedAt:    int64(result.CreatedAt),
		CompletedAt:  completedAt,
		Request:      bolt12Invoice,
		ConnectionID: m.conn.ConnectionID,
	}, nil
}

func (m *Manager) call(ctx context.Context, method string, params any, result any) error {
	raw, err := m.conn.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("unmarshal %s result: %w", method, err)
	}
	return nil
}

func mapInvoiceStatus(s string) InvoiceStatus {
	switch s {
	case "paid", "complete":
		return StatusComplete
	case "unpaid", "pending":
		return StatusPending
	case "expired":
		return StatusExpired
	default:
		return StatusFailed
	}
}

func (m *Manager) recordOffer(ctx context.Context, o Offer) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.RecordOffer(ctx, o); err != nil {
		logging.Offers.Printf("failed to record offer %s: %v", o.ID, err)
	}
}

func (m *Manager) recordInvoice(ctx context.Context, inv Invoice) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.RecordInvoice(ctx, inv); err != nil {
		logging.Offers.Printf("failed to record invoice %s: %v", inv.ID, err)
	}
}
