package dex

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestERC20BalanceOfAndDecimals(t *testing.T) {
	parsed, err := ERC20ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	dead := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	burnt, _ := new(big.Int).SetString("5000000000000000000000000000000", 10)

	caller := newFakeCaller()
	caller.on(t, testToken0, parsed, "balanceOf", []interface{}{dead}, burnt)
	caller.on(t, testToken0, parsed, "decimals", nil, uint8(18))

	token := NewERC20(caller, testToken0)
	bal, err := token.BalanceOf(context.Background(), dead)
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if FormatUnits(bal, 18) != "5000000000000.0" {
		t.Fatalf("balance mismatch: %s", FormatUnits(bal, 18))
	}

	decimals, err := token.Decimals(context.Background())
	if err != nil {
		t.Fatalf("decimals: %v", err)
	}
	if decimals != 18 {
		t.Fatalf("decimals mismatch: %d", decimals)
	}

	if _, err := token.BalanceOf(context.Background(), testPool); err == nil {
		t.Fatalf("expected error for unstubbed owner")
	}
}
