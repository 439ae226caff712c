package postgres

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"liquidityBreakdown/internal/model"
)

func TestNewStoreRequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"breakdown_runs", "breakdown_owners"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("schema missing %s", table)
		}
	}
}

func TestOwnerRowsOrder(t *testing.T) {
	token := common.HexToAddress("0x00000000000000000000000000000000000000a0")
	poolLow := common.HexToAddress("0x0000000000000000000000000000000000000001")
	poolHigh := common.HexToAddress("0x0000000000000000000000000000000000000002")
	ownerA := common.HexToAddress("0x000000000000000000000000000000000000000a")
	ownerB := common.HexToAddress("0x000000000000000000000000000000000000000b")

	tree := &model.AttributionTree{
		ChainID:           1,
		InputTokenAddress: token,
		GeneratedAt:       time.UnixMilli(1700000000000),
		Breakdown: map[common.Address]model.TokenAttribution{
			token: {
				poolHigh: {
					WrapperKind: model.WrapperDirect,
					Owners: map[common.Address]*model.OwnerShare{
						ownerA: {ShareAmount: big.NewInt(1), TokenBalance: big.NewInt(2)},
					},
				},
				poolLow: {
					WrapperKind: model.WrapperButton,
					Owners: map[common.Address]*model.OwnerShare{
						ownerB: {ShareAmount: big.NewInt(3), TokenBalance: big.NewInt(4), EquivalentInputTokenBalance: big.NewInt(5)},
						ownerA: {ShareAmount: big.NewInt(6), TokenBalance: big.NewInt(7), EquivalentInputTokenBalance: big.NewInt(8)},
					},
				},
			},
		},
	}

	rows := ownerRows(tree)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Pool != poolLow.Hex() || rows[0].Owner != ownerA.Hex() {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Owner != ownerB.Hex() || rows[1].Wrapper != "button" {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	if rows[2].Pool != poolHigh.Hex() || rows[2].EquivalentBalance != nil {
		t.Fatalf("unexpected third row: %+v", rows[2])
	}
}

func TestNumeric(t *testing.T) {
	if numeric(nil).Valid {
		t.Fatalf("nil should encode as NULL")
	}
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	n := numeric(huge)
	if !n.Valid || n.Int.Cmp(huge) != 0 || n.Exp != 0 {
		t.Fatalf("unexpected numeric: %+v", n)
	}
}
