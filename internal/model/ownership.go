package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OwnershipRecord is one liquidity position as reported by the indexer.
type OwnershipRecord struct {
	PoolAddress  common.Address
	OwnerAddress common.Address
	ShareAmount  *big.Int
}

// VaultOwnerMap maps vault contracts to their beneficial owners.
// It is built once per run and only read afterwards.
type VaultOwnerMap map[common.Address]common.Address

// BeneficialOwner returns the owner recorded for a vault, or the holder
// itself when it is not a known vault.
func (m VaultOwnerMap) BeneficialOwner(holder common.Address) common.Address {
	if owner, ok := m[holder]; ok {
		return owner
	}
	return holder
}
