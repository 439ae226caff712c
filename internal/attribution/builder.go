package attribution

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"liquidityBreakdown/internal/metrics"
	"liquidityBreakdown/internal/model"
)

// VaultSource resolves vault contracts to their owners.
type VaultSource interface {
	ResolveVaultOwners(ctx context.Context) (model.VaultOwnerMap, error)
}

// PoolSource discovers pools holding a token and the positions in a pool.
type PoolSource interface {
	FindPools(ctx context.Context, token common.Address) ([]common.Address, error)
	FindPositions(ctx context.Context, pool common.Address) ([]model.OwnershipRecord, error)
}

// WrapperSource discovers wrapped derivatives of a token.
type WrapperSource interface {
	Discover(ctx context.Context, chainID uint64, token common.Address) ([]model.WrappedTokenLink, error)
}

// PoolReader reads pool balances and wrapper conversions from chain.
type PoolReader interface {
	PoolBalances(ctx context.Context, pool, token, dead common.Address) (model.PoolBalances, error)
	WrapperToUnderlying(ctx context.Context, wrapper common.Address, amount *big.Int) (*big.Int, error)
}

// Config holds the per-run settings of a Builder.
type Config struct {
	ChainID     uint64
	DeadAddress common.Address
	// MaxConcurrency bounds the pools processed at once for each token; zero means unbounded.
	MaxConcurrency int
}

// Builder assembles the attribution tree for an input token.
type Builder struct {
	cfg      Config
	vaults   VaultSource
	pools    PoolSource
	wrappers WrapperSource
	reader   PoolReader
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewBuilder builds a Builder with its dependencies.
func NewBuilder(cfg Config, vaults VaultSource, pools PoolSource, wrappers WrapperSource, reader PoolReader, m *metrics.Metrics, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Builder{
		cfg:      cfg,
		vaults:   vaults,
		pools:    pools,
		wrappers: wrappers,
		reader:   reader,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for GeneratedAt.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build attributes the input token and every wrapped variant down to owners.
// Any failure aborts the whole build.
func (b *Builder) Build(ctx context.Context, inputToken common.Address) (*model.AttributionTree, error) {
	if b.vaults == nil || b.pools == nil || b.wrappers == nil || b.reader == nil {
		return nil, fmt.Errorf("builder dependencies are incomplete")
	}
	start := time.Now()
	defer func() {
		b.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	var (
		vaultOwners model.VaultOwnerMap
		links       []model.WrappedTokenLink
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vaultOwners, err = b.vaults.ResolveVaultOwners(gctx)
		if err != nil {
			return fmt.Errorf("resolve vault owners: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		links, err = b.wrappers.Discover(gctx, b.cfg.ChainID, inputToken)
		if err != nil {
			return fmt.Errorf("discover wrapped tokens: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tokens := tokenLinks(inputToken, links)
	b.logger.Info("building breakdown",
		zap.Uint64("chain_id", b.cfg.ChainID),
		zap.String("token", inputToken.Hex()),
		zap.Int("wrapped_tokens", len(tokens)-1),
		zap.Int("vaults", len(vaultOwners)),
	)

	results := make([]model.TokenAttribution, len(tokens))
	g, gctx = errgroup.WithContext(ctx)
	for i, link := range tokens {
		g.Go(func() error {
			attribution, err := b.buildToken(gctx, link, vaultOwners)
			if err != nil {
				return fmt.Errorf("token %s: %w", link.Wrapped.Hex(), err)
			}
			results[i] = attribution
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tree := &model.AttributionTree{
		ChainID:           b.cfg.ChainID,
		InputTokenAddress: inputToken,
		GeneratedAt:       b.now().UTC(),
		Breakdown:         make(map[common.Address]model.TokenAttribution, len(tokens)),
	}
	owners := 0
	for i, link := range tokens {
		tree.Breakdown[link.Wrapped] = results[i]
		for _, pool := range results[i] {
			owners += len(pool.Owners)
		}
	}
	b.metrics.OwnersAttributed.Set(float64(owners))

	return tree, nil
}

// tokenLinks puts the input token first as a direct link and drops repeated wrappers.
func tokenLinks(input common.Address, links []model.WrappedTokenLink) []model.WrappedTokenLink {
	out := []model.WrappedTokenLink{{Kind: model.WrapperDirect, Unwrapped: input, Wrapped: input}}
	seen := map[common.Address]struct{}{input: {}}
	for _, link := range links {
		if _, ok := seen[link.Wrapped]; ok {
			continue
		}
		seen[link.Wrapped] = struct{}{}
		out = append(out, link)
	}
	return out
}

func (b *Builder) buildToken(ctx context.Context, link model.WrappedTokenLink, vaults model.VaultOwnerMap) (model.TokenAttribution, error) {
	pools, err := b.pools.FindPools(ctx, link.Wrapped)
	if err != nil {
		return nil, fmt.Errorf("find pools: %w", err)
	}

	results := make([]*model.PoolAttribution, len(pools))
	g, gctx := errgroup.WithContext(ctx)
	if b.cfg.MaxConcurrency > 0 {
		g.SetLimit(b.cfg.MaxConcurrency)
	}
	for i, pool := range pools {
		g.Go(func() error {
			attribution, err := b.buildPool(gctx, link, pool, vaults)
			if err != nil {
				return fmt.Errorf("pool %s: %w", pool.Hex(), err)
			}
			results[i] = attribution
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(model.TokenAttribution, len(pools))
	for i, pool := range pools {
		out[pool] = results[i]
	}
	return out, nil
}

func (b *Builder) buildPool(ctx context.Context, link model.WrappedTokenLink, pool common.Address, vaults model.VaultOwnerMap) (*model.PoolAttribution, error) {
	var (
		records  []model.OwnershipRecord
		balances model.PoolBalances
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = b.pools.FindPositions(gctx, pool)
		return err
	})
	g.Go(func() error {
		b.logger.Debug("querying pool supply and balance", zap.String("pool", pool.Hex()))
		var err error
		balances, err = b.reader.PoolBalances(gctx, pool, link.Wrapped, b.cfg.DeadAddress)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var equivalent *big.Int
	if link.Kind.Converts() {
		var err error
		equivalent, err = b.reader.WrapperToUnderlying(ctx, link.Wrapped, balances.TokenBalance)
		if err != nil {
			return nil, fmt.Errorf("convert balance: %w", err)
		}
	}

	attribution, err := Allocate(PoolInput{
		Pool:                        pool,
		TotalShareSupply:            balances.CirculatingShares(),
		TokenBalance:                balances.TokenBalance,
		EquivalentInputTokenBalance: equivalent,
		WrapperKind:                 link.Kind,
		Records:                     records,
	}, vaults)
	if err != nil {
		return nil, err
	}

	b.metrics.PoolsAttributed.WithLabelValues(string(link.Kind)).Inc()
	b.logger.Debug("pool attributed",
		zap.String("pool", pool.Hex()),
		zap.String("wrapper", string(link.Kind)),
		zap.Int("positions", len(records)),
		zap.Int("owners", len(attribution.Owners)),
	)
	return attribution, nil
}
