package attribution

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"liquidityBreakdown/internal/model"
)

// PoolInput is everything needed to break a pool down to its owners.
type PoolInput struct {
	Pool common.Address
	// TotalShareSupply already excludes the dead address holding.
	TotalShareSupply *big.Int
	TokenBalance     *big.Int
	// EquivalentInputTokenBalance is the whole-pool balance converted to the
	// input token, nil when the token is the input token itself.
	EquivalentInputTokenBalance *big.Int
	WrapperKind                 model.WrapperKind
	Records                     []model.OwnershipRecord
}

// Allocate splits the pool balance across records in proportion to their
// shares, rounding down, and merges records that share a beneficial owner.
func Allocate(in PoolInput, vaults model.VaultOwnerMap) (*model.PoolAttribution, error) {
	if in.TotalShareSupply == nil || in.TokenBalance == nil {
		return nil, fmt.Errorf("pool %s: missing supply or balance", in.Pool.Hex())
	}

	out := &model.PoolAttribution{
		TotalShareSupply: new(big.Int).Set(in.TotalShareSupply),
		TokenBalance:     new(big.Int).Set(in.TokenBalance),
		WrapperKind:      in.WrapperKind,
		Owners:           make(map[common.Address]*model.OwnerShare),
	}
	if in.EquivalentInputTokenBalance != nil {
		out.EquivalentInputTokenBalance = new(big.Int).Set(in.EquivalentInputTokenBalance)
	}

	for _, record := range in.Records {
		if record.ShareAmount == nil || record.ShareAmount.Sign() == 0 {
			continue
		}
		if record.ShareAmount.Sign() < 0 {
			return nil, fmt.Errorf("pool %s: negative share %s for %s", in.Pool.Hex(), record.ShareAmount, record.OwnerAddress.Hex())
		}
		if in.TotalShareSupply.Sign() <= 0 {
			return nil, fmt.Errorf("pool %s: share supply %s cannot back positions", in.Pool.Hex(), in.TotalShareSupply)
		}

		tokenBalance := proportion(in.TokenBalance, record.ShareAmount, in.TotalShareSupply)
		var equivalent *big.Int
		if in.EquivalentInputTokenBalance != nil {
			equivalent = proportion(in.EquivalentInputTokenBalance, record.ShareAmount, in.TotalShareSupply)
		}

		owner := vaults.BeneficialOwner(record.OwnerAddress)
		entry, ok := out.Owners[owner]
		if !ok {
			entry = &model.OwnerShare{
				ShareAmount:  new(big.Int),
				TokenBalance: new(big.Int),
			}
			if in.EquivalentInputTokenBalance != nil {
				entry.EquivalentInputTokenBalance = new(big.Int)
			}
			out.Owners[owner] = entry
		}

		entry.ShareAmount.Add(entry.ShareAmount, record.ShareAmount)
		entry.TokenBalance.Add(entry.TokenBalance, tokenBalance)
		if equivalent != nil {
			entry.EquivalentInputTokenBalance.Add(entry.EquivalentInputTokenBalance, equivalent)
		}
	}

	return out, nil
}

// proportion returns floor(total * share / supply).
func proportion(total, share, supply *big.Int) *big.Int {
	out := new(big.Int).Mul(total, share)
	return out.Quo(out, supply)
}
