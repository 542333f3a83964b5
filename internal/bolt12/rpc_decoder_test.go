package bolt12

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"clnoffers/internal/rpc"
)

func TestRPCDecoderOfferWithAmount(t *testing.T) {
	mock := rpc.NewMockCaller()
	mock.RespondRaw("decode", `{
		"type": "bolt12 offer",
		"valid": true,
		"offer_description": "coffee",
		"offer_issuer": "cafe",
		"offer_amount_msat": 100000
	}`)

	dec := NewRPCDecoder(mock)
	offer, err := dec.Decode(context.Background(), "lno1abc")
	require.NoError(t, err)
	require.Equal(t, Offer{
		Description:  "coffee",
		Denomination: "sats",
		Amount:       "100",
		Issuer:       "cafe",
	}, offer)

	calls := mock.CallsTo("decode")
	require.Len(t, calls, 1)
	require.JSONEq(t, `{"string":"lno1abc"}`, string(calls[0].Params))
}

func TestRPCDecoderLegacyMsatSuffix(t *testing.T) {
	mock := rpc.NewMockCaller()
	mock.RespondRaw("decode", `{
		"valid": true,
		"offer_description": "tip",
		"offer_amount_msat": "7000msat"
	}`)

	offer, err := NewRPCDecoder(mock).Decode(context.Background(), "lno1legacy")
	require.NoError(t, err)
	require.Equal(t, "7", offer.Amount)
	require.Equal(t, "sats", offer.Denomination)
}

func TestRPCDecoderFiatOffer(t *testing.T) {
	mock := rpc.NewMockCaller()
	mock.RespondRaw("decode", `{
		"valid": true,
		"offer_description": "subscription",
		"offer_currency": "USD",
		"offer_amount": 500
	}`)

	offer, err := NewRPCDecoder(mock).Decode(context.Background(), "lno1fiat")
	require.NoError(t, err)
	require.Equal(t, "usd", offer.Denomination)
	require.Equal(t, "500", offer.Amount)
}

func TestRPCDecoderAnyAmount(t *testing.T) {
	mock := rpc.NewMockCaller()
	mock.RespondRaw("decode", `{"valid": true, "offer_description": "donate"}`)

	offer, err := NewRPCDecoder(mock).Decode(context.Background(), "lno1any")
	require.NoError(t, err)
	require.Empty(t, offer.Amount)
	require.Equal(t, "sats", offer.Denomination)
}

func TestRPCDecoderInvoiceRequestAmount(t *testing.T) {
	mock := rpc.NewMockCaller()
	mock.RespondRaw("decode", `{
		"type": "bolt12 invoice_request",
		"valid": true,
		"offer_description": "refund",
		"invreq_amount_msat": 2000000
	}`)

	offer, err := NewRPCDecoder(mock).Decode(context.Background(), "lnr1abc")
	require.NoError(t, err)
	require.Equal(t, "2000", offer.Amount)
}

func TestRPCDecoderInvalidString(t *testing.T) {
	mock := rpc.NewMockCaller()
	mock.RespondRaw("decode", `{"type": "bolt12 offer", "valid": false}`)

	_, err := NewRPCDecoder(mock).Decode(context.Background(), "lno1junk")
	require.ErrorIs(t, err, ErrDecode)
}

func TestRPCDecoderTransportFailure(t *testing.T) {
	mock := rpc.NewMockCaller()
	mock.Fail("decode", &rpc.RPCError{Code: -32600, Message: "bad request"})

	_, err := NewRPCDecoder(mock).Decode(context.Background(), "lno1abc")
	require.ErrorIs(t, err, ErrDecode)

	var rpcErr *rpc.RPCError
	require.ErrorAs(t, err, &rpcErr)
}
