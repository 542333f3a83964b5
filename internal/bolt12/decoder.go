// Package bolt12 exposes decoding of BOLT12 strings as an opaque dependency.
// The binary TLV encoding itself is out of scope; the node already knows how
// to parse it, so the production decoder simply asks the node.
package bolt12

import (
	"context"
	"errors"
)

var ErrDecode = errors.New("malformed bolt12 string")

// Offer is the decoded view of a BOLT12 offer or invoice request string.
type Offer struct {
	Description  string
	Denomination string // "sats", "msats", "btc", or a lowercased fiat code
	Amount       string // decimal string in Denomination units; empty means "any amount"
	Issuer       string
}

// Decoder decodes an encoded BOLT12 string. Implementations may suspend
// (the production decoder is an RPC round-trip), so every call takes a
// context and callers fan decodes out concurrently.
type Decoder interface {
	Decode(ctx context.Context, bolt12 string) (Offer, error)
}
