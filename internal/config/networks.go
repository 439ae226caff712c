package config

import "fmt"

const (
	subgraphBaseURL   = "https://api.thegraph.com/subgraphs/name/buttonwood-protocol/"
	infuraPlaceholder = "{infura}"
)

// Network holds the endpoints a run needs for one chain.
type Network struct {
	ChainID       uint64
	Name          string
	RPCURL        string
	ButtonswapURL string
	PointsURL     string
}

func (n Network) merge(o Network) Network {
	if o.RPCURL != "" {
		n.RPCURL = o.RPCURL
	}
	if o.ButtonswapURL != "" {
		n.ButtonswapURL = o.ButtonswapURL
	}
	if o.PointsURL != "" {
		n.PointsURL = o.PointsURL
	}
	return n
}

var defaultNetworks = map[uint64]Network{
	1: {
		ChainID:       1,
		Name:          "ethereum",
		RPCURL:        "https://mainnet.infura.io/v3/" + infuraPlaceholder,
		ButtonswapURL: subgraphBaseURL + "buttonswap",
		PointsURL:     subgraphBaseURL + "points",
	},
	10: {
		ChainID:       10,
		Name:          "optimism",
		RPCURL:        "https://mainnet.optimism.io",
		ButtonswapURL: subgraphBaseURL + "buttonswap-optimism",
		PointsURL:     subgraphBaseURL + "points-optimism",
	},
	8453: {
		ChainID:       8453,
		Name:          "base",
		RPCURL:        "https://mainnet.base.org",
		ButtonswapURL: subgraphBaseURL + "buttonswap-base-mainnet",
		PointsURL:     subgraphBaseURL + "points-base-mainnet",
	},
	42161: {
		ChainID:       42161,
		Name:          "arbitrum-one",
		RPCURL:        "https://arb1.arbitrum.io/rpc",
		ButtonswapURL: subgraphBaseURL + "buttonswap-arbitrum-one",
		PointsURL:     subgraphBaseURL + "points-arbitrum-one",
	},
	43114: {
		ChainID:       43114,
		Name:          "avalanche",
		RPCURL:        "https://avalanche-mainnet.infura.io/v3/" + infuraPlaceholder,
		ButtonswapURL: subgraphBaseURL + "buttonswap-avalanche",
		PointsURL:     subgraphBaseURL + "points-avalanche",
	},
}

// UnknownNetworkError is returned for a chain id with no network entry.
type UnknownNetworkError struct {
	ChainID uint64
}

func (e *UnknownNetworkError) Error() string {
	return fmt.Sprintf("unsupported chain id %d", e.ChainID)
}
