// Package format renders on-chain amounts and terminal colours for display.
package format

import (
	"github.com/shopspring/decimal"
)

// Token is the unit raw planck-style integers are converted into.
type Token struct {
	Symbol   string
	Decimals int32
}

// Amount formats a raw integer amount in the smallest token unit.
//
// Values of at least one whole token are shown in tokens, smaller values in
// milli-tokens, always with three decimal places:
//
//	Amount(1_000_000_000_000, KSM) -> "1.000KSM"
//	Amount(500_000_000_000, KSM)   -> "500.000mKSM"
//	Amount(0, KSM)                 -> "0.000mKSM"
func Amount(raw decimal.Decimal, token Token) string {
	oneToken := decimal.New(1, token.Decimals)
	if raw.GreaterThanOrEqual(oneToken) {
		return raw.Shift(-token.Decimals).StringFixed(3) + token.Symbol
	}
	return raw.Shift(3-token.Decimals).StringFixed(3) + "m" + token.Symbol
}
