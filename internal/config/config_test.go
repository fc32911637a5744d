package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func runFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.String("rpc", "", "")
	fs.Int64("from", 1, "")
	fs.Int64("to", 0, "")
	fs.Int64("batch-size", 500, "")
	fs.String("store", "sqlite", "")
	fs.String("pg-dsn", "", "")
	fs.Bool("follow", false, "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", runFlags(t, "--rpc", "http://localhost:26657"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FromHeight != 1 || cfg.ToHeight != 0 || cfg.BatchSize != 500 || cfg.PerPage != 100 {
		t.Fatalf("unexpected heights: %+v", cfg)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.SQLitePath != "./data/tickscope.db" {
		t.Fatalf("unexpected store: %+v", cfg.Store)
	}
	if cfg.CursorName != "tickscope" || cfg.PollInterval != 5*time.Second || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("INDEXER_CURSOR_NAME", "replica")
	t.Setenv("INDEXER_PER_PAGE", "50")

	cfg, err := Load("", runFlags(t, "--rpc", "http://localhost:26657"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CursorName != "replica" || cfg.PerPage != 50 {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadConfigFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "rpc: http://node:26657\nfrom: 120\nto: 200\nstore: postgres\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("INDEXER_PG_DSN=postgres://u:p@db/tick\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("INDEXER_PG_DSN") })

	cfg, err := Load(cfgPath, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://node:26657" || cfg.FromHeight != 120 || cfg.ToHeight != 200 {
		t.Fatalf("config file not applied: %+v", cfg)
	}
	if cfg.Store.Driver != DriverPostgres || cfg.Store.PGDSN != "postgres://u:p@db/tick" {
		t.Fatalf(".env not applied: %+v", cfg.Store)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string][]string{
		"missing rpc":     {},
		"zero from":       {"--rpc", "x", "--from", "0"},
		"to below from":   {"--rpc", "x", "--from", "10", "--to", "5"},
		"postgres no dsn": {"--rpc", "x", "--store", "postgres"},
		"unknown store":   {"--rpc", "x", "--store", "mysql"},
		"zero batch size": {"--rpc", "x", "--batch-size", "0"},
	}
	for name, args := range cases {
		if _, err := Load("", runFlags(t, args...)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadTicksPair(t *testing.T) {
	fs := pflag.NewFlagSet("ticks", pflag.ContinueOnError)
	fs.String("pair", "", "")
	fs.String("store", "sqlite", "")
	if err := fs.Parse([]string{"--pair", " tokenA , tokenB "}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := LoadTicks("", fs)
	if err != nil {
		t.Fatalf("load ticks: %v", err)
	}
	if cfg.Token0 != "tokenA" || cfg.Token1 != "tokenB" {
		t.Fatalf("unexpected pair: %q %q", cfg.Token0, cfg.Token1)
	}

	if err := fs.Set("pair", "tokenA"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := LoadTicks("", fs); err == nil {
		t.Fatalf("expected error for incomplete pair")
	}
}

func TestLoadIngestRequiresInput(t *testing.T) {
	fs := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	fs.String("in", "", "")
	fs.Int("page-size", 100, "")
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := LoadIngest("", fs); err == nil {
		t.Fatalf("expected error without input")
	}

	if err := fs.Set("in", "./data/txs.jsonl"); err != nil {
		t.Fatalf("set: %v", err)
	}
	cfg, err := LoadIngest("", fs)
	if err != nil {
		t.Fatalf("load ingest: %v", err)
	}
	if cfg.In != "./data/txs.jsonl" || cfg.PageSize != 100 || cfg.Store.Driver != DriverSQLite {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("rpc: http://node:26657\nfrom: 120\nto: 500\nbatch-size: 50\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("INDEXER_FROM", "130")
	t.Setenv("INDEXER_BATCH_SIZE", "60")

	cfg, err := Load(cfgPath, runFlags(t, "--from", "140"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FromHeight != 140 {
		t.Fatalf("flag should win over env, got from=%d", cfg.FromHeight)
	}
	if cfg.BatchSize != 60 {
		t.Fatalf("env should win over config file, got batch-size=%d", cfg.BatchSize)
	}
	if cfg.ToHeight != 500 {
		t.Fatalf("config file should win over default, got to=%d", cfg.ToHeight)
	}
}
