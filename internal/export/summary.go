package export

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"liquidityBreakdown/internal/model"
)

// TokenSummary is a human-readable rollup of one token of a tree.
type TokenSummary struct {
	Token        common.Address
	Pools        int
	Owners       int
	TokenBalance decimal.Decimal

	// EquivalentBalance is in input token units; zero for the input token itself.
	EquivalentBalance decimal.Decimal
}

// Summarize rolls each token up, scaling raw amounts by the token's decimals.
// Tokens missing from decimals are reported unscaled. The result is sorted by
// token address.
func Summarize(tree *model.AttributionTree, decimals map[common.Address]uint8) []TokenSummary {
	if tree == nil {
		return nil
	}
	inputDecimals := int32(decimals[tree.InputTokenAddress])

	out := make([]TokenSummary, 0, len(tree.Breakdown))
	for token, pools := range tree.Breakdown {
		balance := new(big.Int)
		equivalent := new(big.Int)
		owners := 0
		for _, p := range pools {
			if p.TokenBalance != nil {
				balance.Add(balance, p.TokenBalance)
			}
			if p.EquivalentInputTokenBalance != nil {
				equivalent.Add(equivalent, p.EquivalentInputTokenBalance)
			}
			owners += len(p.Owners)
		}
		out = append(out, TokenSummary{
			Token:             token,
			Pools:             len(pools),
			Owners:            owners,
			TokenBalance:      decimal.NewFromBigInt(balance, -int32(decimals[token])),
			EquivalentBalance: decimal.NewFromBigInt(equivalent, -inputDecimals),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Token[:], out[j].Token[:]) < 0
	})
	return out
}
