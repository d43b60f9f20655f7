package dex

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var errReverted = errors.New("execution reverted")

// fakeCaller answers eth_call requests from a table keyed by target and calldata.
type fakeCaller struct {
	mu        sync.Mutex
	responses map[string][]byte
	calls     int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: make(map[string][]byte)}
}

func callKey(to common.Address, data []byte) string {
	return to.Hex() + ":" + hexutil.Encode(data)
}

func (f *fakeCaller) on(t *testing.T, to common.Address, parsed abi.ABI, method string, args []interface{}, outputs ...interface{}) {
	t.Helper()
	input, err := parsed.Pack(method, args...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	output, err := parsed.Methods[method].Outputs.Pack(outputs...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	f.mu.Lock()
	f.responses[callKey(to, input)] = output
	f.mu.Unlock()
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if msg.To == nil {
		return nil, errors.New("missing target")
	}
	resp, ok := f.responses[callKey(*msg.To, msg.Data)]
	if !ok {
		return nil, errReverted
	}
	return resp, nil
}

func TestInt24FromBigBounds(t *testing.T) {
	if v, err := int24FromBig(big.NewInt(-887272)); err != nil || v != -887272 {
		t.Fatalf("unexpected result: %d %v", v, err)
	}
	if _, err := int24FromBig(big.NewInt(1 << 23)); err == nil {
		t.Fatalf("expected overflow")
	}
}

func TestUint24FromBigBounds(t *testing.T) {
	if v, err := uint24FromBig(big.NewInt(10000)); err != nil || v != 10000 {
		t.Fatalf("unexpected result: %d %v", v, err)
	}
	if _, err := uint24FromBig(big.NewInt(-1)); err == nil {
		t.Fatalf("expected error for negative fee")
	}
	if _, err := uint24FromBig(big.NewInt(1 << 24)); err == nil {
		t.Fatalf("expected overflow")
	}
}
