package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityBreakdown/internal/attribution"
	"liquidityBreakdown/internal/config"
	"liquidityBreakdown/internal/export"
)

func runValidate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadValidate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input file is required")
	}

	tree, err := export.ReadFile(cfg.In)
	if err != nil {
		return err
	}

	pools, owners := 0, 0
	for _, token := range tree.Breakdown {
		pools += len(token)
		for _, pool := range token {
			owners += len(pool.Owners)
		}
	}

	if err := attribution.Validate(tree); err != nil {
		logReconciliation(logger, err)
		return fmt.Errorf("validate %s: %w", cfg.In, err)
	}

	logger.Info("breakdown validated",
		zap.String("in", cfg.In),
		zap.Uint64("chain_id", tree.ChainID),
		zap.String("token", tree.InputTokenAddress.Hex()),
		zap.Int("tokens", len(tree.Breakdown)),
		zap.Int("pools", pools),
		zap.Int("owners", owners),
	)
	return nil
}
