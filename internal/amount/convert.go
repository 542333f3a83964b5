// Package amount converts between the denominations used on the node
// boundary. The node accounts in millisatoshi integer strings; the wallet
// mostly displays whole satoshis. All arithmetic goes through
// decimal.Decimal so sums of msat values never drift.
package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrFormat = errors.New("malformed amount")

var msatsPerSat = decimal.New(1000, 0)

// SatsToMsats multiplies a whole-satoshi amount by 1000. The input must be a
// non-negative integral decimal string.
func SatsToMsats(sats string) (string, error) {
	d, err := parseNonNegative(sats)
	if err != nil {
		return "", err
	}
	if !d.IsInteger() {
		return "", fmt.Errorf("%w: %q is not a whole sat amount", ErrFormat, sats)
	}
	return d.Mul(msatsPerSat).String(), nil
}

// MsatsToSats divides a millisatoshi amount by 1000 and rounds to the
// nearest whole sat.
func MsatsToSats(msats string) (string, error) {
	d, err := parseNonNegative(msats)
	if err != nil {
		return "", err
	}
	return d.Div(msatsPerSat).Round(0).String(), nil
}

// MsatsToSatsExact divides by 1000 without rounding, keeping sub-sat
// precision. Used for fee display where a 500 msat fee should read "0.5".
func MsatsToSatsExact(msats string) (string, error) {
	d, err := parseNonNegative(msats)
	if err != nil {
		return "", err
	}
	return d.DivRound(msatsPerSat, 3).String(), nil
}

// FormatMsatString normalizes a node-reported msat value to a bare numeric
// string. Older node versions append a literal "msat" suffix to amount
// fields; newer ones return plain integers.
func FormatMsatString(raw string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), "msat")
	d, err := parseNonNegative(trimmed)
	if err != nil {
		return "", err
	}
	if !d.IsInteger() {
		return "", fmt.Errorf("%w: %q is not an integral msat amount", ErrFormat, raw)
	}
	return d.String(), nil
}

// ParseMsatField normalizes an amount field from an RPC response. The node
// returns either a bare JSON integer or, on older versions, a string with a
// trailing "msat" suffix; both come back as a plain msat integer string.
func ParseMsatField(raw json.RawMessage) (string, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return FormatMsatString(asString)
	}

	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return FormatMsatString(asNumber.String())
	}

	return "", fmt.Errorf("%w: unexpected msat field %s", ErrFormat, string(raw))
}

// FeeSats computes a routing fee in whole sats from the sent and delivered
// msat amounts. The difference is non-negative by protocol; zero is a valid
// result.
func FeeSats(sentMsats, deliveredMsats string) (string, error) {
	sent, err := parseNonNegative(sentMsats)
	if err != nil {
		return "", err
	}
	delivered, err := parseNonNegative(deliveredMsats)
	if err != nil {
		return "", err
	}

	fee := sent.Sub(delivered)
	if fee.IsNegative() {
		return "", fmt.Errorf("%w: sent %s msat is less than delivered %s msat", ErrFormat, sentMsats, deliveredMsats)
	}
	return fee.Div(msatsPerSat).Round(0).String(), nil
}

func parseNonNegative(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrFormat, s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is negative", ErrFormat, s)
	}
	return d, nil
}
