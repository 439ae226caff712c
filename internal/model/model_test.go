package model

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestBeneficialOwner(t *testing.T) {
	vault := common.HexToAddress("0x1111111111111111111111111111111111111111")
	owner := common.HexToAddress("0x2222222222222222222222222222222222222222")
	holder := common.HexToAddress("0x3333333333333333333333333333333333333333")
	m := VaultOwnerMap{vault: owner}

	if got := m.BeneficialOwner(vault); got != owner {
		t.Fatalf("vault should resolve to owner, got %s", got.Hex())
	}
	if got := m.BeneficialOwner(holder); got != holder {
		t.Fatalf("holder should resolve to itself, got %s", got.Hex())
	}

	var empty VaultOwnerMap
	if got := empty.BeneficialOwner(vault); got != vault {
		t.Fatalf("nil map should resolve to holder, got %s", got.Hex())
	}
}

func TestCirculatingShares(t *testing.T) {
	b := PoolBalances{ShareTotalSupply: big.NewInt(1050), DeadShareBalance: big.NewInt(50)}
	if got := b.CirculatingShares().String(); got != "1000" {
		t.Fatalf("circulating shares: %s", got)
	}
	if b.ShareTotalSupply.Int64() != 1050 {
		t.Fatalf("total supply mutated: %s", b.ShareTotalSupply)
	}

	b.DeadShareBalance = nil
	if got := b.CirculatingShares().String(); got != "1050" {
		t.Fatalf("circulating shares without dead balance: %s", got)
	}
	if got := (PoolBalances{}).CirculatingShares().Sign(); got != 0 {
		t.Fatalf("empty balances should be zero")
	}
}

func TestWrapperKindConverts(t *testing.T) {
	if WrapperDirect.Converts() {
		t.Fatalf("direct should not convert")
	}
	for _, kind := range DerivativeKinds {
		if !kind.Converts() {
			t.Fatalf("%s should convert", kind)
		}
	}
}
