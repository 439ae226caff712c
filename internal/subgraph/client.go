package subgraph

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Client queries the buttonswap subgraph for pools and positions and the
// points subgraph for vaults of a single network.
type Client struct {
	buttonswap *Fetcher
	points     *Fetcher
	logger     *zap.Logger
}

// NewClient builds a Client from one fetcher per subgraph.
func NewClient(buttonswap, points *Fetcher, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{buttonswap: buttonswap, points: points, logger: logger}
}

type entityRef struct {
	ID string `json:"id"`
}

func entityID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func parseEntityAddress(id string) (common.Address, error) {
	if !common.IsHexAddress(id) {
		return common.Address{}, fmt.Errorf("invalid address id %q", id)
	}
	return common.HexToAddress(id), nil
}
