package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the precision assumed when a token's is not read on-chain.
const DefaultDecimals uint8 = 18

// ParseUnits converts a whole-unit amount into base units.
func ParseUnits(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount.String(), decimals)
	}
	return scaled.BigInt(), nil
}

// FormatUnits renders base units as a decimal string. Whole values keep a
// trailing ".0" so the output matches archives written by earlier versions.
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0.0"
	}
	text := decimal.NewFromBigInt(value, -int32(decimals)).String()
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}
