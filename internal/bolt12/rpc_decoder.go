package bolt12

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"clnoffers/internal/amount"
	"clnoffers/internal/rpc"
)

// RPCDecoder implements Decoder via the node's decode method.
type RPCDecoder struct {
	caller rpc.Caller
}

// NewRPCDecoder creates a decoder backed by the given transport.
func NewRPCDecoder(caller rpc.Caller) *RPCDecoder {
	return &RPCDecoder{caller: caller}
}

// decodeResult is the subset of the decode response we consume. Amount
// fields are kept raw because the node returns either a bare integer or a
// legacy "Nmsat" string depending on version.
type decodeResult struct {
	Valid            *bool           `json:"valid"`
	Type             string          `json:"type"`
	OfferDescription string          `json:"offer_description"`
	OfferIssuer      string          `json:"offer_issuer"`
	OfferAmountMsat  json.RawMessage `json:"offer_amount_msat"`
	OfferCurrency    string          `json:"offer_currency"`
	OfferAmount      json.Number     `json:"offer_amount"`
	InvreqAmountMsat json.RawMessage `json:"invreq_amount_msat"`
}

func (d *RPCDecoder) Decode(ctx context.Context, bolt12 string) (Offer, error) {
	raw, err := d.caller.Call(ctx, "decode", map[string]any{"string": bolt12})
	if err != nil {
		return Offer{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var result decodeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return Offer{}, fmt.Errorf("%w: unexpected decode response: %w", ErrDecode, err)
	}
	if result.Valid != nil && !*result.Valid {
		return Offer{}, fmt.Errorf("%w: node reports invalid %s", ErrDecode, result.Type)
	}

	offer := Offer{
		Description: result.OfferDescription,
		Issuer:      result.OfferIssuer,
	}

	msatField := result.OfferAmountMsat
	if msatField == nil {
		msatField = result.InvreqAmountMsat
	}

	switch {
	case result.OfferCurrency != "":
		offer.Denomination = strings.ToLower(result.OfferCurrency)
		offer.Amount = result.OfferAmount.String()
	case msatField != nil:
		msats, err := amount.ParseMsatField(msatField)
		if err != nil {
			return Offer{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		sats, err := amount.MsatsToSats(msats)
		if err != nil {
			return Offer{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		offer.Denomination = "sats"
		offer.Amount = sats
	default:
		// Any-amount offer.
		offer.Denomination = "sats"
	}

	return offer, nil
}
