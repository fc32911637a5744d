package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tickScope/internal/config"
	"tickScope/internal/storage"
)

func runTicks(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTicks(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, "")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	pair, err := store.LookupPair(ctx, cfg.Token0, cfg.Token1)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("pair %s/%s not indexed", cfg.Token0, cfg.Token1)
	}
	if err != nil {
		return fmt.Errorf("lookup pair: %w", err)
	}

	states, err := store.ListTickStates(ctx, pair.ID)
	if err != nil {
		return fmt.Errorf("list tick states: %w", err)
	}

	out := bufio.NewWriter(os.Stdout)
	enc := json.NewEncoder(out)
	for _, st := range states {
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("encode tick state: %w", err)
		}
	}
	if err := out.Flush(); err != nil {
		return err
	}

	logger.Debug("ticks listed",
		zap.Int64("pair_id", pair.ID),
		zap.Int("ticks", len(states)),
	)
	return nil
}
