package attribution

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"liquidityBreakdown/internal/model"
)

// Quantity names used in ReconciliationError.
const (
	QuantityShareAmount       = "shareAmount"
	QuantityTokenBalance      = "tokenBalance"
	QuantityEquivalentBalance = "equivalentInputTokenBalance"
)

// Validate checks every pool of the tree: owner shares must add up to the share
// supply exactly, and owner balances must be within one unit per owner of the
// pool balances. Tokens and pools are checked in address order so the reported
// violation is stable.
func Validate(tree *model.AttributionTree) error {
	if tree == nil {
		return nil
	}
	for _, token := range sortedAddresses(tree.Breakdown) {
		pools := tree.Breakdown[token]
		for _, pool := range sortedAddresses(pools) {
			if err := validatePool(token, pool, pools[pool]); err != nil {
				return err
			}
		}
	}
	return nil
}

func validatePool(token, pool common.Address, p *model.PoolAttribution) error {
	shareSum := new(big.Int)
	balanceSum := new(big.Int)
	equivalentSum := new(big.Int)
	for _, owner := range p.Owners {
		addTo(shareSum, owner.ShareAmount)
		addTo(balanceSum, owner.TokenBalance)
		addTo(equivalentSum, owner.EquivalentInputTokenBalance)
	}

	if shareSum.Cmp(orZero(p.TotalShareSupply)) != 0 {
		return &ReconciliationError{
			Token:     token,
			Pool:      pool,
			Quantity:  QuantityShareAmount,
			Expected:  orZero(p.TotalShareSupply),
			Actual:    shareSum,
			Tolerance: new(big.Int),
		}
	}

	// Flooring loses less than one unit per owner.
	tolerance := big.NewInt(int64(len(p.Owners)))
	if !withinTolerance(balanceSum, orZero(p.TokenBalance), tolerance) {
		return &ReconciliationError{
			Token:     token,
			Pool:      pool,
			Quantity:  QuantityTokenBalance,
			Expected:  orZero(p.TokenBalance),
			Actual:    balanceSum,
			Tolerance: tolerance,
		}
	}

	if p.EquivalentInputTokenBalance != nil && !withinTolerance(equivalentSum, p.EquivalentInputTokenBalance, tolerance) {
		return &ReconciliationError{
			Token:     token,
			Pool:      pool,
			Quantity:  QuantityEquivalentBalance,
			Expected:  p.EquivalentInputTokenBalance,
			Actual:    equivalentSum,
			Tolerance: tolerance,
		}
	}
	return nil
}

func withinTolerance(actual, expected, tolerance *big.Int) bool {
	diff := new(big.Int).Sub(actual, expected)
	return diff.Abs(diff).Cmp(tolerance) <= 0
}

func addTo(sum, v *big.Int) {
	if v != nil {
		sum.Add(sum, v)
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func sortedAddresses[V any](m map[common.Address]V) []common.Address {
	keys := make([]common.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}
