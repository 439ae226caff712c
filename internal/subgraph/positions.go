package subgraph

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityBreakdown/internal/model"
)

const pairsQuery = `
query getPairs($first: Int!, $lastID: ID!, $tokenId: String!) {
  pairs(
    first: $first
    orderBy: id
    orderDirection: asc
    where: { and: [{ id_gt: $lastID }, { or: [{ token0: $tokenId }, { token1: $tokenId }] }] }
  ) {
    id
  }
}`

const liquidityPositionsQuery = `
query getLiquidityPositions($first: Int!, $lastID: ID!, $pairId: ID!) {
  pair(id: $pairId) {
    liquidityPositions(first: $first, orderBy: id, orderDirection: asc, where: { id_gt: $lastID }) {
      id
      amount
      user {
        id
      }
    }
  }
}`

type pairsResponse struct {
	Pairs []entityRef `json:"pairs"`
}

type positionData struct {
	ID     string    `json:"id"`
	Amount string    `json:"amount"`
	User   entityRef `json:"user"`
}

type positionsResponse struct {
	Pair *struct {
		LiquidityPositions []positionData `json:"liquidityPositions"`
	} `json:"pair"`
}

// FindPools returns every pool that holds token on either side.
func (c *Client) FindPools(ctx context.Context, token common.Address) ([]common.Address, error) {
	pairs, err := FetchAll(ctx, c.buttonswap, Collection[pairsResponse, entityRef]{
		Name:      "pairs",
		Document:  pairsQuery,
		Variables: map[string]interface{}{"tokenId": entityID(token)},
		Items:     func(resp pairsResponse) []entityRef { return resp.Pairs },
		ID:        func(p entityRef) string { return p.ID },
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[common.Address]struct{}, len(pairs))
	pools := make([]common.Address, 0, len(pairs))
	for _, p := range pairs {
		pool, err := parseEntityAddress(p.ID)
		if err != nil {
			return nil, &IndexerQueryError{Query: "pairs", Err: err}
		}
		if _, ok := seen[pool]; ok {
			continue
		}
		seen[pool] = struct{}{}
		pools = append(pools, pool)
	}

	c.logger.Info("pools found", zap.String("token", token.Hex()), zap.Int("pools", len(pools)))
	return pools, nil
}

// FindPositions returns the nonzero liquidity positions of pool.
func (c *Client) FindPositions(ctx context.Context, pool common.Address) ([]model.OwnershipRecord, error) {
	positions, err := FetchAll(ctx, c.buttonswap, Collection[positionsResponse, positionData]{
		Name:      "liquidityPositions",
		Document:  liquidityPositionsQuery,
		Variables: map[string]interface{}{"pairId": entityID(pool)},
		Items: func(resp positionsResponse) []positionData {
			if resp.Pair == nil {
				return nil
			}
			return resp.Pair.LiquidityPositions
		},
		ID: func(p positionData) string { return p.ID },
	})
	if err != nil {
		return nil, err
	}

	records := make([]model.OwnershipRecord, 0, len(positions))
	for _, p := range positions {
		amount, ok := new(big.Int).SetString(p.Amount, 10)
		if !ok || amount.Sign() < 0 {
			return nil, &IndexerQueryError{Query: "liquidityPositions", Err: fmt.Errorf("position %s: invalid amount %q", p.ID, p.Amount)}
		}
		if amount.Sign() == 0 {
			continue
		}
		owner, err := parseEntityAddress(p.User.ID)
		if err != nil {
			return nil, &IndexerQueryError{Query: "liquidityPositions", Err: fmt.Errorf("position %s: %w", p.ID, err)}
		}
		records = append(records, model.OwnershipRecord{
			PoolAddress:  pool,
			OwnerAddress: owner,
			ShareAmount:  amount,
		})
	}

	c.logger.Debug("positions found", zap.String("pool", pool.Hex()), zap.Int("positions", len(records)))
	return records, nil
}
