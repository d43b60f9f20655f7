package dex

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var testQuoter = common.HexToAddress("0xb27308f9F90D607463bb33eA1BeBb41C27CE5AB6")

func TestQuoteExactInputSingle(t *testing.T) {
	quoter, err := QuoterABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	amountIn, err := ParseUnits(decimal.NewFromInt(200000000), DefaultDecimals)
	if err != nil {
		t.Fatalf("parse units: %v", err)
	}
	want, _ := new(big.Int).SetString("1500000000000000000", 10)

	caller := newFakeCaller()
	caller.on(t, testQuoter, quoter, "quoteExactInputSingle",
		[]interface{}{testToken0, testToken1, big.NewInt(10000), amountIn, new(big.Int)},
		want,
	)

	got, err := NewQuoter(caller, testQuoter).QuoteExactInputSingle(context.Background(), QuoteParams{
		TokenIn:  testToken0,
		TokenOut: testToken1,
		Fee:      10000,
		AmountIn: amountIn,
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Fatalf("quote mismatch: %s != %s", got, want)
	}
	if FormatUnits(got, DefaultDecimals) != "1.5" {
		t.Fatalf("format mismatch: %s", FormatUnits(got, DefaultDecimals))
	}
}

func TestQuoteExactInputSingleRejectsZeroAmount(t *testing.T) {
	_, err := NewQuoter(newFakeCaller(), testQuoter).QuoteExactInputSingle(context.Background(), QuoteParams{
		TokenIn:  testToken0,
		TokenOut: testToken1,
		Fee:      10000,
		AmountIn: new(big.Int),
	})
	if err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestQuoteExactInputSingleRevert(t *testing.T) {
	_, err := NewQuoter(newFakeCaller(), testQuoter).QuoteExactInputSingle(context.Background(), QuoteParams{
		TokenIn:  testToken0,
		TokenOut: testToken1,
		Fee:      3000,
		AmountIn: big.NewInt(1),
	})
	if err == nil {
		t.Fatalf("expected revert error")
	}
}
