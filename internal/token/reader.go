package token

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityBreakdown/internal/metrics"
	"liquidityBreakdown/internal/model"
)

// Caller issues read-only contract calls at the latest block.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	BatchCallContract(ctx context.Context, msgs []ethereum.CallMsg) ([][]byte, error)
}

// Config controls retries of contract reads.
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// Reader performs the token and pool reads needed to attribute a pool.
type Reader struct {
	cfg     Config
	caller  Caller
	metrics *metrics.Metrics
	logger  *zap.Logger

	decimals *decimalsCache
}

// NewReader builds a Reader with its dependencies.
func NewReader(cfg Config, caller Caller, m *metrics.Metrics, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Reader{cfg: cfg, caller: caller, metrics: m, logger: logger, decimals: newDecimalsCache()}
}

type call struct {
	abi    abi.ABI
	method string
	to     common.Address
	args   []interface{}
}

// PoolBalances reads the pool share supply, the dead address share balance and
// the pool's balance of token in a single batch.
func (r *Reader) PoolBalances(ctx context.Context, pool, token, dead common.Address) (model.PoolBalances, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return model.PoolBalances{}, fmt.Errorf("parse erc20 abi: %w", err)
	}

	values, err := r.batch(ctx, []call{
		{abi: erc20, method: "totalSupply", to: pool},
		{abi: erc20, method: "balanceOf", to: pool, args: []interface{}{dead}},
		{abi: erc20, method: "balanceOf", to: token, args: []interface{}{pool}},
	})
	if err != nil {
		return model.PoolBalances{}, fmt.Errorf("pool %s balances: %w", pool.Hex(), err)
	}

	balances := model.PoolBalances{}
	if balances.ShareTotalSupply, err = asBigInt(values[0]); err != nil {
		return model.PoolBalances{}, fmt.Errorf("totalSupply: %w", err)
	}
	if balances.DeadShareBalance, err = asBigInt(values[1]); err != nil {
		return model.PoolBalances{}, fmt.Errorf("dead balanceOf: %w", err)
	}
	if balances.TokenBalance, err = asBigInt(values[2]); err != nil {
		return model.PoolBalances{}, fmt.Errorf("token balanceOf: %w", err)
	}
	return balances, nil
}

// WrapperToUnderlying converts an amount of wrapper tokens to the underlying token.
func (r *Reader) WrapperToUnderlying(ctx context.Context, wrapper common.Address, amount *big.Int) (*big.Int, error) {
	parsed, err := WrapperABI()
	if err != nil {
		return nil, fmt.Errorf("parse wrapper abi: %w", err)
	}
	values, err := r.single(ctx, call{abi: parsed, method: "wrapperToUnderlying", to: wrapper, args: []interface{}{amount}})
	if err != nil {
		return nil, fmt.Errorf("wrapper %s: %w", wrapper.Hex(), err)
	}
	return asBigInt(values[0])
}

// Decimals reads the token's decimals, once per token.
func (r *Reader) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	if d, ok := r.decimals.get(token); ok {
		return d, nil
	}
	erc20, err := ERC20ABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := r.single(ctx, call{abi: erc20, method: "decimals", to: token})
	if err != nil {
		return 0, fmt.Errorf("token %s: %w", token.Hex(), err)
	}
	d, err := asUint8(values[0])
	if err != nil {
		return 0, err
	}
	r.decimals.set(token, d)
	return d, nil
}

func (r *Reader) single(ctx context.Context, c call) ([]interface{}, error) {
	msg, err := c.message()
	if err != nil {
		return nil, err
	}

	var resp []byte
	err = withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context, attempt int) error {
		r.metrics.ChainCalls.WithLabelValues(c.method).Inc()
		var err error
		resp, err = r.caller.CallContract(ctx, msg)
		if err != nil {
			r.logger.Warn("contract call failed", zap.String("method", c.method), zap.String("to", c.to.Hex()), zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", c.method, err)
	}
	return c.unpack(resp)
}

func (r *Reader) batch(ctx context.Context, calls []call) ([]interface{}, error) {
	msgs := make([]ethereum.CallMsg, len(calls))
	for i, c := range calls {
		msg, err := c.message()
		if err != nil {
			return nil, err
		}
		msgs[i] = msg
	}

	var resps [][]byte
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context, attempt int) error {
		for _, c := range calls {
			r.metrics.ChainCalls.WithLabelValues(c.method).Inc()
		}
		var err error
		resps, err = r.caller.BatchCallContract(ctx, msgs)
		if err != nil {
			r.logger.Warn("batch call failed", zap.Int("calls", len(msgs)), zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(resps) != len(calls) {
		return nil, fmt.Errorf("batch returned %d results for %d calls", len(resps), len(calls))
	}

	out := make([]interface{}, len(calls))
	for i, c := range calls {
		values, err := c.unpack(resps[i])
		if err != nil {
			return nil, err
		}
		out[i] = values[0]
	}
	return out, nil
}

func (c call) message() (ethereum.CallMsg, error) {
	data, err := c.abi.Pack(c.method, c.args...)
	if err != nil {
		return ethereum.CallMsg{}, fmt.Errorf("pack %s: %w", c.method, err)
	}
	to := c.to
	return ethereum.CallMsg{To: &to, Data: data}, nil
}

func (c call) unpack(resp []byte) ([]interface{}, error) {
	values, err := c.abi.Unpack(c.method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", c.method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", c.method, len(values))
	}
	return values, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
