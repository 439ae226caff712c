package attribution

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquidityBreakdown/internal/metrics"
	"liquidityBreakdown/internal/model"
)

var (
	inputToken   = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	buttonToken  = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	directPool   = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	buttonPool   = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	deadAddress  = common.HexToAddress("0x000000000000000000000000000000000000dead")
	errPoolQuery = errors.New("indexer down")
)

type fakeVaults struct {
	owners model.VaultOwnerMap
	err    error
}

func (f fakeVaults) ResolveVaultOwners(context.Context) (model.VaultOwnerMap, error) {
	return f.owners, f.err
}

type fakeWrappers struct {
	links []model.WrappedTokenLink
	err   error
}

func (f fakeWrappers) Discover(_ context.Context, chainID uint64, token common.Address) ([]model.WrappedTokenLink, error) {
	return f.links, f.err
}

type fakePools struct {
	pools        map[common.Address][]common.Address
	positions    map[common.Address][]model.OwnershipRecord
	positionsErr error
}

func (f fakePools) FindPools(_ context.Context, token common.Address) ([]common.Address, error) {
	return f.pools[token], nil
}

func (f fakePools) FindPositions(_ context.Context, pool common.Address) ([]model.OwnershipRecord, error) {
	if f.positionsErr != nil {
		return nil, f.positionsErr
	}
	return f.positions[pool], nil
}

type fakeReader struct {
	balances map[common.Address]model.PoolBalances

	mu          sync.Mutex
	conversions []common.Address
	deads       []common.Address
}

func (f *fakeReader) PoolBalances(_ context.Context, pool, token, dead common.Address) (model.PoolBalances, error) {
	f.mu.Lock()
	f.deads = append(f.deads, dead)
	f.mu.Unlock()
	b, ok := f.balances[pool]
	if !ok {
		return model.PoolBalances{}, errors.New("unknown pool")
	}
	return b, nil
}

// WrapperToUnderlying halves the amount.
func (f *fakeReader) WrapperToUnderlying(_ context.Context, wrapper common.Address, amount *big.Int) (*big.Int, error) {
	f.mu.Lock()
	f.conversions = append(f.conversions, wrapper)
	f.mu.Unlock()
	return new(big.Int).Quo(amount, big.NewInt(2)), nil
}

func fixture() (fakeVaults, fakeWrappers, fakePools, *fakeReader) {
	vaults := fakeVaults{owners: model.VaultOwnerMap{vaultAddr: ownerB}}
	wrappers := fakeWrappers{links: []model.WrappedTokenLink{
		{Kind: model.WrapperButton, Unwrapped: inputToken, Wrapped: buttonToken},
		{Kind: model.WrapperUnbutton, Unwrapped: inputToken, Wrapped: buttonToken},
	}}
	pools := fakePools{
		pools: map[common.Address][]common.Address{
			inputToken:  {directPool},
			buttonToken: {buttonPool},
		},
		positions: map[common.Address][]model.OwnershipRecord{
			directPool: {record(ownerA, 600), record(vaultAddr, 400)},
			buttonPool: {record(ownerA, 3), record(ownerB, 2), record(ownerC, 2), record(ownerC, 0)},
		},
	}
	reader := &fakeReader{balances: map[common.Address]model.PoolBalances{
		directPool: {ShareTotalSupply: big.NewInt(1050), DeadShareBalance: big.NewInt(50), TokenBalance: big.NewInt(2000)},
		buttonPool: {ShareTotalSupply: big.NewInt(7), DeadShareBalance: big.NewInt(0), TokenBalance: big.NewInt(10)},
	}}
	return vaults, wrappers, pools, reader
}

func TestBuilderBuildsTree(t *testing.T) {
	vaults, wrappers, pools, reader := fixture()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "test")
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	b := NewBuilder(Config{ChainID: 10, DeadAddress: deadAddress, MaxConcurrency: 2}, vaults, pools, wrappers, reader, m, nil).
		WithClock(func() time.Time { return at })
	tree, err := b.Build(context.Background(), inputToken)
	require.NoError(t, err)

	assert.Equal(t, uint64(10), tree.ChainID)
	assert.Equal(t, inputToken, tree.InputTokenAddress)
	assert.Equal(t, at, tree.GeneratedAt)
	require.Len(t, tree.Breakdown, 2)

	direct := tree.Breakdown[inputToken][directPool]
	require.NotNil(t, direct)
	assert.Equal(t, model.WrapperDirect, direct.WrapperKind)
	assert.Equal(t, "1000", direct.TotalShareSupply.String())
	assert.Nil(t, direct.EquivalentInputTokenBalance)
	assert.Equal(t, "1200", direct.Owners[ownerA].TokenBalance.String())
	assert.Equal(t, "800", direct.Owners[ownerB].TokenBalance.String())

	button := tree.Breakdown[buttonToken][buttonPool]
	require.NotNil(t, button)
	assert.Equal(t, model.WrapperButton, button.WrapperKind)
	assert.Equal(t, "5", button.EquivalentInputTokenBalance.String())
	assert.Len(t, button.Owners, 3)
	assert.Equal(t, "4", button.Owners[ownerA].TokenBalance.String())
	assert.Equal(t, "2", button.Owners[ownerA].EquivalentInputTokenBalance.String())

	assert.NoError(t, Validate(tree))

	assert.Equal(t, []common.Address{buttonToken}, reader.conversions)
	for _, dead := range reader.deads {
		assert.Equal(t, deadAddress, dead)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PoolsAttributed.WithLabelValues(string(model.WrapperDirect))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PoolsAttributed.WithLabelValues(string(model.WrapperButton))))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.OwnersAttributed))
}

func TestBuilderTokenWithoutPools(t *testing.T) {
	vaults, _, pools, reader := fixture()
	b := NewBuilder(Config{ChainID: 1}, vaults, pools, fakeWrappers{}, reader, nil, nil)

	tree, err := b.Build(context.Background(), common.HexToAddress("0x0000000000000000000000000000000000000777"))
	require.NoError(t, err)
	require.Len(t, tree.Breakdown, 1)
	for _, pools := range tree.Breakdown {
		assert.Empty(t, pools)
	}
}

func TestBuilderFailsWholeRun(t *testing.T) {
	vaults, wrappers, pools, reader := fixture()

	t.Run("vaults", func(t *testing.T) {
		b := NewBuilder(Config{}, fakeVaults{err: errPoolQuery}, pools, wrappers, reader, nil, nil)
		tree, err := b.Build(context.Background(), inputToken)
		assert.Nil(t, tree)
		assert.ErrorIs(t, err, errPoolQuery)
		assert.ErrorContains(t, err, "resolve vault owners")
	})

	t.Run("wrappers", func(t *testing.T) {
		b := NewBuilder(Config{}, vaults, pools, fakeWrappers{err: errPoolQuery}, reader, nil, nil)
		_, err := b.Build(context.Background(), inputToken)
		assert.ErrorIs(t, err, errPoolQuery)
	})

	t.Run("positions", func(t *testing.T) {
		broken := pools
		broken.positionsErr = errPoolQuery
		b := NewBuilder(Config{}, vaults, broken, wrappers, reader, nil, nil)
		tree, err := b.Build(context.Background(), inputToken)
		assert.Nil(t, tree)
		assert.ErrorIs(t, err, errPoolQuery)
	})

	t.Run("balances", func(t *testing.T) {
		empty := &fakeReader{}
		b := NewBuilder(Config{}, vaults, pools, wrappers, empty, nil, nil)
		_, err := b.Build(context.Background(), inputToken)
		assert.ErrorContains(t, err, "unknown pool")
	})
}

func TestBuilderRequiresDependencies(t *testing.T) {
	b := NewBuilder(Config{}, nil, nil, nil, nil, nil, nil)
	_, err := b.Build(context.Background(), inputToken)
	assert.Error(t, err)
}

func TestTokenLinksDropsRepeats(t *testing.T) {
	links := tokenLinks(inputToken, []model.WrappedTokenLink{
		{Kind: model.WrapperButton, Unwrapped: inputToken, Wrapped: buttonToken},
		{Kind: model.WrapperUnbutton, Unwrapped: inputToken, Wrapped: buttonToken},
		{Kind: model.WrapperButton, Unwrapped: inputToken, Wrapped: inputToken},
	})
	require.Len(t, links, 2)
	assert.Equal(t, model.WrapperDirect, links[0].Kind)
	assert.Equal(t, model.WrapperButton, links[1].Kind)
}
