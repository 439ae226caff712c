package wrapper

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityBreakdown/internal/model"
)

// Discoverer finds the wrapped derivatives of a token.
type Discoverer struct {
	registry Registry
	logger   *zap.Logger
}

// NewDiscoverer builds a Discoverer over registry.
func NewDiscoverer(registry Registry, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{registry: registry, logger: logger}
}

// Discover returns the button then unbutton wrappers of token on chainID.
// An empty result is not an error.
func (d *Discoverer) Discover(ctx context.Context, chainID uint64, token common.Address) ([]model.WrappedTokenLink, error) {
	d.logger.Info("fetching wrapper map")
	m, err := d.registry.Load(ctx)
	if err != nil {
		return nil, err
	}

	links := Filter(m, chainID, token, d.logger)
	d.logger.Info("wrapped tokens found", zap.String("token", token.Hex()), zap.Int("wrapped", len(links)))
	return links, nil
}

// Filter selects the entries of m that wrap token on chainID.
func Filter(m Map, chainID uint64, token common.Address, logger *zap.Logger) []model.WrappedTokenLink {
	if logger == nil {
		logger = zap.NewNop()
	}

	links := make([]model.WrappedTokenLink, 0)
	for _, kind := range model.DerivativeKinds {
		for _, pair := range m.Wrappers[string(kind)] {
			if pair.ChainID != chainID {
				continue
			}
			if !common.IsHexAddress(pair.Unwrapped) || !common.IsHexAddress(pair.Wrapped) {
				logger.Debug("skip invalid wrapper entry", zap.String("kind", string(kind)), zap.String("unwrapped", pair.Unwrapped), zap.String("wrapped", pair.Wrapped))
				continue
			}
			if common.HexToAddress(pair.Unwrapped) != token {
				continue
			}
			links = append(links, model.WrappedTokenLink{
				Kind:      kind,
				Unwrapped: token,
				Wrapped:   common.HexToAddress(pair.Wrapped),
			})
		}
	}
	return links
}
