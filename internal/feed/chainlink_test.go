package feed

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type stubCaller struct {
	resp []byte
	err  error
	to   common.Address
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To != nil {
		s.to = *msg.To
	}
	return s.resp, s.err
}

func TestLatestAnswer(t *testing.T) {
	parsed, err := AggregatorABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	resp, err := parsed.Methods["latestAnswer"].Outputs.Pack(big.NewInt(123456000000))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	feedAddr := common.HexToAddress("0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419")
	caller := &stubCaller{resp: resp}
	answer, err := NewChainlink(caller, feedAddr).LatestAnswer(context.Background())
	if err != nil {
		t.Fatalf("latest answer: %v", err)
	}
	if answer.Int64() != 123456000000 {
		t.Fatalf("answer mismatch: %s", answer)
	}
	if caller.to != feedAddr {
		t.Fatalf("call target mismatch: %s", caller.to.Hex())
	}

	price, err := FormatPrice(answer, DefaultDecimals)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if price != "1234.56" {
		t.Fatalf("price mismatch: %s", price)
	}
}

func TestDecimals(t *testing.T) {
	parsed, err := AggregatorABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	resp, err := parsed.Methods["decimals"].Outputs.Pack(uint8(8))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	decimals, err := NewChainlink(&stubCaller{resp: resp}, common.Address{}).Decimals(context.Background())
	if err != nil {
		t.Fatalf("decimals: %v", err)
	}
	if decimals != 8 {
		t.Fatalf("decimals mismatch: %d", decimals)
	}
}

func TestLatestAnswerError(t *testing.T) {
	boom := errors.New("rpc down")
	_, err := NewChainlink(&stubCaller{err: boom}, common.Address{}).LatestAnswer(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped rpc error, got %v", err)
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		answer int64
		want   string
	}{
		{123456000000, "1234.56"},
		{180000000000, "1800.00"},
		{123456789012, "1234.57"},
		{1, "0.00"},
	}
	for _, tc := range cases {
		got, err := FormatPrice(big.NewInt(tc.answer), 8)
		if err != nil {
			t.Fatalf("format %d: %v", tc.answer, err)
		}
		if got != tc.want {
			t.Fatalf("FormatPrice(%d) = %s, want %s", tc.answer, got, tc.want)
		}
	}

	if _, err := FormatPrice(big.NewInt(0), 8); err == nil {
		t.Fatalf("expected error for zero answer")
	}
	if _, err := FormatPrice(nil, 8); err == nil {
		t.Fatalf("expected error for nil answer")
	}
}
