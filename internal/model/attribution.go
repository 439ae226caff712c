package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// OwnerShare is the merged holding of one beneficial owner in a pool.
type OwnerShare struct {
	ShareAmount                 *big.Int
	TokenBalance                *big.Int
	EquivalentInputTokenBalance *big.Int
}

// PoolAttribution breaks one pool's token balance down to its owners.
// TotalShareSupply excludes the dead address holding.
type PoolAttribution struct {
	TotalShareSupply            *big.Int
	TokenBalance                *big.Int
	EquivalentInputTokenBalance *big.Int
	WrapperKind                 WrapperKind
	Owners                      map[common.Address]*OwnerShare
}

// TokenAttribution holds the pools of a single token keyed by pool address.
type TokenAttribution map[common.Address]*PoolAttribution

// AttributionTree is the per-run artifact: token -> pool -> owner.
type AttributionTree struct {
	ChainID           uint64
	InputTokenAddress common.Address
	GeneratedAt       time.Time
	Breakdown         map[common.Address]TokenAttribution
}

// PoolBalances are the chain reads a pool needs before allocation.
type PoolBalances struct {
	ShareTotalSupply *big.Int
	DeadShareBalance *big.Int
	TokenBalance     *big.Int
}

// CirculatingShares returns the share supply minus the dead address holding.
func (b PoolBalances) CirculatingShares() *big.Int {
	if b.ShareTotalSupply == nil {
		return big.NewInt(0)
	}
	out := new(big.Int).Set(b.ShareTotalSupply)
	if b.DeadShareBalance != nil {
		out.Sub(out, b.DeadShareBalance)
	}
	return out
}
