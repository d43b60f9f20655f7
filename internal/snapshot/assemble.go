// Package snapshot turns raw on-chain readings into a MarketData record.
package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"shinacap/internal/model"
)

// TimestampLayout renders UTC timestamps with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ratioScale is the extra places kept when burnt/total does not terminate.
const ratioScale = 18

var (
	// DefaultPriceScaleFactor relates the fixed sell amount to full supply.
	DefaultPriceScaleFactor = decimal.NewFromInt(100000)
	// DefaultTotalSupply is the known, never-queried supply of the base token.
	DefaultTotalSupply = decimal.NewFromInt(20000000000000)
)

// ErrInvalidInput is returned when a reading cannot be used in the formula.
var ErrInvalidInput = errors.New("invalid snapshot input")

// Params holds the constants of the market-cap formula.
type Params struct {
	PriceScaleFactor decimal.Decimal
	TotalSupply      decimal.Decimal
}

// DefaultParams returns the production constants.
func DefaultParams() Params {
	return Params{
		PriceScaleFactor: DefaultPriceScaleFactor,
		TotalSupply:      DefaultTotalSupply,
	}
}

// Inputs are the joined results of the quote, balance and oracle reads.
type Inputs struct {
	Quote               string
	BurntAmount         string
	Balances            model.Balances
	USDPerQuoteCurrency string
}

// RemainingFraction is 1 - burnt/totalSupply.
func RemainingFraction(burnt, totalSupply decimal.Decimal) (decimal.Decimal, error) {
	if !totalSupply.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: total supply must be positive", ErrInvalidInput)
	}
	if burnt.IsNegative() || burnt.GreaterThan(totalSupply) {
		return decimal.Decimal{}, fmt.Errorf("%w: burnt amount %s outside [0, %s]", ErrInvalidInput, burnt, totalSupply)
	}
	return decimal.NewFromInt(1).Sub(burnt.DivRound(totalSupply, divisionPlaces(burnt, totalSupply))), nil
}

// divisionPlaces is enough places for burnt/total to be exact whenever the
// quotient terminates, as it does for any power-of-ten total supply.
func divisionPlaces(burnt, total decimal.Decimal) int32 {
	places := int32(ratioScale) + int32(len(total.Coefficient().String()))
	if e := burnt.Exponent(); e < 0 {
		places -= e
	}
	if e := total.Exponent(); e < 0 {
		places -= e
	}
	return places
}

// MarketCap is quote * scale * remainingFraction, without rounding.
func MarketCap(quote, scale, remainingFraction decimal.Decimal) decimal.Decimal {
	return quote.Mul(scale).Mul(remainingFraction)
}

// Assembler builds MarketData records.
type Assembler struct {
	params Params
	now    func() time.Time
}

// NewAssembler returns an Assembler. A nil clock means time.Now.
func NewAssembler(params Params, now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{params: params, now: now}
}

// Assemble computes the market cap and stamps the record with the assembly time.
func (a *Assembler) Assemble(in Inputs) (model.MarketData, error) {
	quote, err := parseField("quote", in.Quote)
	if err != nil {
		return model.MarketData{}, err
	}
	burnt, err := parseField("burnt amount", in.BurntAmount)
	if err != nil {
		return model.MarketData{}, err
	}
	usd, err := parseField("usd per quote currency", in.USDPerQuoteCurrency)
	if err != nil {
		return model.MarketData{}, err
	}
	if !a.params.PriceScaleFactor.IsPositive() {
		return model.MarketData{}, fmt.Errorf("%w: price scale factor must be positive", ErrInvalidInput)
	}

	fraction, err := RemainingFraction(burnt, a.params.TotalSupply)
	if err != nil {
		return model.MarketData{}, err
	}
	mcap := MarketCap(quote, a.params.PriceScaleFactor, fraction)

	return model.MarketData{
		MarketCapInBaseCurrency: mcap.String(),
		BurntAmount:             in.BurntAmount,
		BaseTokenPoolBalance:    in.Balances.BaseToken,
		QuoteTokenPoolBalance:   in.Balances.QuoteToken,
		USDPerQuoteCurrency:     in.USDPerQuoteCurrency,
		TotalSupply:             a.params.TotalSupply.String(),
		Timestamp:               a.now().UTC().Format(TimestampLayout),
		USDMarketCap:            mcap.Mul(usd).StringFixed(2),
	}, nil
}

func parseField(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidInput, name, value, err)
	}
	return d, nil
}
