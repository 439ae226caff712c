package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityBreakdown/internal/attribution"
	"liquidityBreakdown/internal/chain"
	"liquidityBreakdown/internal/config"
	"liquidityBreakdown/internal/export"
	"liquidityBreakdown/internal/export/postgres"
	"liquidityBreakdown/internal/metrics"
	"liquidityBreakdown/internal/model"
	"liquidityBreakdown/internal/subgraph"
	"liquidityBreakdown/internal/token"
	"liquidityBreakdown/internal/wrapper"
)

func runBreakdown(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	network, err := cfg.Network()
	if err != nil {
		return err
	}
	inputToken, err := chain.ParseAddress(cfg.Token)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	deadAddress, err := chain.ParseAddress(cfg.DeadAddress)
	if err != nil {
		return fmt.Errorf("dead-address: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "")
	defer func() {
		if err := metrics.WriteFile(cfg.MetricsFile, reg); err != nil {
			logger.Warn("write metrics file failed", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}()

	chainClient, err := chain.NewClient(ctx, network.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	if err := chainClient.VerifyChainID(ctx, network.ChainID); err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	indexer := subgraph.NewClient(
		subgraph.NewFetcher(subgraph.NewGraphQLTransport(network.ButtonswapURL, httpClient), cfg.PageSize, m, logger),
		subgraph.NewFetcher(subgraph.NewGraphQLTransport(network.PointsURL, httpClient), cfg.PageSize, m, logger),
		logger,
	)
	reader := token.NewReader(token.Config{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, m, logger)
	discoverer := wrapper.NewDiscoverer(wrapper.NewHTTPRegistry(cfg.WrapperMapURL, httpClient), logger)

	builder := attribution.NewBuilder(attribution.Config{
		ChainID:        network.ChainID,
		DeadAddress:    deadAddress,
		MaxConcurrency: cfg.MaxConcurrency,
	}, indexer, indexer, discoverer, reader, m, logger)

	logger.Info("breakdown start",
		zap.String("network", network.Name),
		zap.Uint64("chain_id", network.ChainID),
		zap.String("token", inputToken.Hex()),
		zap.String("buttonswap", network.ButtonswapURL),
		zap.String("points", network.PointsURL),
		zap.Int("page_size", cfg.PageSize),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.String("out_dir", cfg.OutDir),
	)

	tree, err := builder.Build(ctx, inputToken)
	if err != nil {
		var qerr *subgraph.IndexerQueryError
		if errors.As(err, &qerr) {
			logger.Error("indexer query failed", zap.String("query", qerr.Query), zap.String("cursor", qerr.Cursor), zap.Error(qerr.Err))
		}
		return fmt.Errorf("build breakdown: %w", err)
	}

	if err := attribution.Validate(tree); err != nil {
		m.ReconciliationFailures.Inc()
		logReconciliation(logger, err)
		return fmt.Errorf("validate breakdown: %w", err)
	}
	logger.Info("breakdown validated")

	exporters := []export.Exporter{export.NewFileExporter(cfg.OutDir)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		exporters = append(exporters, store)
	}
	for _, exporter := range exporters {
		location, err := exporter.Export(ctx, tree)
		if err != nil {
			return fmt.Errorf("export breakdown: %w", err)
		}
		logger.Info("output saved", zap.String("location", location))
	}

	logSummary(ctx, logger, reader, tree)
	return nil
}

// logSummary logs per-token totals. Decimals that cannot be read leave the token unscaled.
func logSummary(ctx context.Context, logger *zap.Logger, reader *token.Reader, tree *model.AttributionTree) {
	decimals := make(map[common.Address]uint8, len(tree.Breakdown))
	for tokenAddr := range tree.Breakdown {
		d, err := reader.Decimals(ctx, tokenAddr)
		if err != nil {
			logger.Warn("read decimals failed", zap.String("token", tokenAddr.Hex()), zap.Error(err))
			continue
		}
		decimals[tokenAddr] = d
	}

	for _, s := range export.Summarize(tree, decimals) {
		logger.Info("token summary",
			zap.String("token", s.Token.Hex()),
			zap.Int("pools", s.Pools),
			zap.Int("owners", s.Owners),
			zap.String("token_balance", s.TokenBalance.String()),
			zap.String("equivalent_balance", s.EquivalentBalance.String()),
		)
	}
}

func logReconciliation(logger *zap.Logger, err error) {
	var rerr *attribution.ReconciliationError
	if !errors.As(err, &rerr) {
		return
	}
	logger.Error("breakdown does not reconcile",
		zap.String("token", rerr.Token.Hex()),
		zap.String("pool", rerr.Pool.Hex()),
		zap.String("quantity", rerr.Quantity),
		zap.String("expected", rerr.Expected.String()),
		zap.String("actual", rerr.Actual.String()),
		zap.String("tolerance", rerr.Tolerance.String()),
	)
}
