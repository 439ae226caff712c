package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func TestToCallArg(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	arg, ok := toCallArg(ethereum.CallMsg{To: &to, Data: []byte{0x18, 0x16, 0x0d, 0xdd}}).(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected call arg type")
	}
	if got, ok := arg["to"].(*common.Address); !ok || *got != to {
		t.Fatalf("to mismatch: %v", arg["to"])
	}
	if got, ok := arg["data"].(hexutil.Bytes); !ok || got.String() != "0x18160ddd" {
		t.Fatalf("data mismatch: %v", arg["data"])
	}
	if _, ok := arg["from"]; ok {
		t.Fatalf("from should be omitted for zero sender")
	}
}
