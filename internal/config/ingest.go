package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// IngestConfig holds configuration for the ingest command.
type IngestConfig struct {
	In                 string
	PageSize           int
	Store              StoreConfig
	CursorName         string
	CursorFile         string
	RecordFailedBlocks bool
	LogLevel           string
	LogFile            string
}

// LoadIngest merges .env, config file, environment variables, and flags into IngestConfig.
func LoadIngest(cfgFile string, flags *pflag.FlagSet) (IngestConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"page-size": 100,
	})
	if err != nil {
		return IngestConfig{}, err
	}

	cfg := IngestConfig{
		In:                 v.GetString("in"),
		PageSize:           v.GetInt("page-size"),
		Store:              storeConfig(v),
		CursorName:         v.GetString("cursor-name"),
		CursorFile:         v.GetString("cursor-file"),
		RecordFailedBlocks: v.GetBool("record-failed-blocks"),
		LogLevel:           v.GetString("log-level"),
		LogFile:            v.GetString("log-file"),
	}

	if cfg.In == "" {
		return IngestConfig{}, fmt.Errorf("input path is required")
	}
	if cfg.PageSize <= 0 {
		return IngestConfig{}, fmt.Errorf("page-size must be positive")
	}
	if err := cfg.Store.Validate(); err != nil {
		return IngestConfig{}, err
	}
	return cfg, nil
}

// TicksConfig holds configuration for the ticks query command.
type TicksConfig struct {
	Store    StoreConfig
	Token0   string
	Token1   string
	LogLevel string
}

// LoadTicks merges .env, config file, environment variables, and flags into TicksConfig.
// The pair is given as "token0,token1".
func LoadTicks(cfgFile string, flags *pflag.FlagSet) (TicksConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return TicksConfig{}, err
	}

	pair := getStringSlice(v, "pair")
	if len(pair) != 2 {
		return TicksConfig{}, fmt.Errorf("pair must be token0,token1, got %v", pair)
	}

	cfg := TicksConfig{
		Store:    storeConfig(v),
		Token0:   pair[0],
		Token1:   pair[1],
		LogLevel: v.GetString("log-level"),
	}
	if cfg.Store.Driver == DriverMemory {
		return TicksConfig{}, fmt.Errorf("store %q has nothing to query", DriverMemory)
	}
	if err := cfg.Store.Validate(); err != nil {
		return TicksConfig{}, err
	}
	return cfg, nil
}
