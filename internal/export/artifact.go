package export

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"liquidityBreakdown/internal/chain"
	"liquidityBreakdown/internal/model"
)

// Artifact is the JSON document written for a run. Amounts are decimal strings.
type Artifact struct {
	ChainID           uint64                             `json:"chainId"`
	InputTokenAddress string                             `json:"inputTokenAddress"`
	Timestamp         int64                              `json:"timestamp"`
	Breakdown         map[string]map[string]PoolArtifact `json:"breakdown"`
}

// PoolArtifact is one pool of the breakdown.
type PoolArtifact struct {
	LiquidityTokenTotalSupply   string                  `json:"liquidityTokenTotalSupply"`
	TokenBalance                string                  `json:"tokenBalance"`
	EquivalentInputTokenBalance string                  `json:"equivalentInputTokenBalance,omitempty"`
	Wrapper                     string                  `json:"wrapper,omitempty"`
	Users                       map[string]UserArtifact `json:"users"`
}

// UserArtifact is one owner entry of a pool.
type UserArtifact struct {
	LiquidityTokenBalance               string `json:"liquidityTokenBalance"`
	ComputedTokenBalance                string `json:"computedTokenBalance"`
	ComputedEquivalentInputTokenBalance string `json:"computedEquivalentInputTokenBalance,omitempty"`
}

// NewArtifact converts a tree to its wire form. Addresses are checksummed and
// the direct wrapper kind is left out.
func NewArtifact(tree *model.AttributionTree) Artifact {
	out := Artifact{
		ChainID:           tree.ChainID,
		InputTokenAddress: tree.InputTokenAddress.Hex(),
		Timestamp:         tree.GeneratedAt.UnixMilli(),
		Breakdown:         make(map[string]map[string]PoolArtifact, len(tree.Breakdown)),
	}
	for token, pools := range tree.Breakdown {
		tokenOut := make(map[string]PoolArtifact, len(pools))
		for pool, p := range pools {
			poolOut := PoolArtifact{
				LiquidityTokenTotalSupply:   amount(p.TotalShareSupply),
				TokenBalance:                amount(p.TokenBalance),
				EquivalentInputTokenBalance: optionalAmount(p.EquivalentInputTokenBalance),
				Users:                       make(map[string]UserArtifact, len(p.Owners)),
			}
			if p.WrapperKind != model.WrapperDirect {
				poolOut.Wrapper = string(p.WrapperKind)
			}
			for owner, share := range p.Owners {
				poolOut.Users[owner.Hex()] = UserArtifact{
					LiquidityTokenBalance:               amount(share.ShareAmount),
					ComputedTokenBalance:                amount(share.TokenBalance),
					ComputedEquivalentInputTokenBalance: optionalAmount(share.EquivalentInputTokenBalance),
				}
			}
			tokenOut[pool.Hex()] = poolOut
		}
		out.Breakdown[token.Hex()] = tokenOut
	}
	return out
}

// Tree parses the artifact back into an attribution tree.
func (a Artifact) Tree() (*model.AttributionTree, error) {
	input, err := chain.ParseAddress(a.InputTokenAddress)
	if err != nil {
		return nil, fmt.Errorf("inputTokenAddress: %w", err)
	}
	tree := &model.AttributionTree{
		ChainID:           a.ChainID,
		InputTokenAddress: input,
		GeneratedAt:       time.UnixMilli(a.Timestamp).UTC(),
		Breakdown:         make(map[common.Address]model.TokenAttribution, len(a.Breakdown)),
	}

	for tokenHex, pools := range a.Breakdown {
		token, err := chain.ParseAddress(tokenHex)
		if err != nil {
			return nil, fmt.Errorf("breakdown: %w", err)
		}
		tokenOut := make(model.TokenAttribution, len(pools))
		for poolHex, p := range pools {
			pool, err := chain.ParseAddress(poolHex)
			if err != nil {
				return nil, fmt.Errorf("token %s: %w", tokenHex, err)
			}
			attribution, err := p.attribution()
			if err != nil {
				return nil, fmt.Errorf("token %s pool %s: %w", tokenHex, poolHex, err)
			}
			tokenOut[pool] = attribution
		}
		tree.Breakdown[token] = tokenOut
	}
	return tree, nil
}

func (p PoolArtifact) attribution() (*model.PoolAttribution, error) {
	supply, err := parseAmount("liquidityTokenTotalSupply", p.LiquidityTokenTotalSupply)
	if err != nil {
		return nil, err
	}
	balance, err := parseAmount("tokenBalance", p.TokenBalance)
	if err != nil {
		return nil, err
	}
	equivalent, err := parseOptionalAmount("equivalentInputTokenBalance", p.EquivalentInputTokenBalance)
	if err != nil {
		return nil, err
	}

	kind := model.WrapperDirect
	if p.Wrapper != "" {
		kind = model.WrapperKind(p.Wrapper)
	}
	out := &model.PoolAttribution{
		TotalShareSupply:            supply,
		TokenBalance:                balance,
		EquivalentInputTokenBalance: equivalent,
		WrapperKind:                 kind,
		Owners:                      make(map[common.Address]*model.OwnerShare, len(p.Users)),
	}

	for userHex, u := range p.Users {
		owner, err := chain.ParseAddress(userHex)
		if err != nil {
			return nil, fmt.Errorf("users: %w", err)
		}
		shares, err := parseAmount("liquidityTokenBalance", u.LiquidityTokenBalance)
		if err != nil {
			return nil, err
		}
		tokenBalance, err := parseAmount("computedTokenBalance", u.ComputedTokenBalance)
		if err != nil {
			return nil, err
		}
		userEquivalent, err := parseOptionalAmount("computedEquivalentInputTokenBalance", u.ComputedEquivalentInputTokenBalance)
		if err != nil {
			return nil, err
		}
		out.Owners[owner] = &model.OwnerShare{
			ShareAmount:                 shares,
			TokenBalance:                tokenBalance,
			EquivalentInputTokenBalance: userEquivalent,
		}
	}
	return out, nil
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func optionalAmount(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func parseAmount(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid amount %q", field, s)
	}
	return v, nil
}

func parseOptionalAmount(field, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return parseAmount(field, s)
}
