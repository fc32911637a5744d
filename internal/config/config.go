package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver     string
	PGDSN      string
	SQLitePath string
}

// Validate checks that the selected driver has what it needs.
func (s StoreConfig) Validate() error {
	switch s.Driver {
	case DriverPostgres:
		if s.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for store %q", s.Driver)
		}
	case DriverSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("sqlite-path is required for store %q", s.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store %q (postgres, sqlite, memory)", s.Driver)
	}
	return nil
}

// Config holds configuration values for the run command, loaded from flags, env, or config file.
type Config struct {
	RPCURL             string
	FromHeight         int64
	ToHeight           int64
	BatchSize          int64
	PerPage            int
	Follow             bool
	PollInterval       time.Duration
	Store              StoreConfig
	CursorName         string
	CursorFile         string
	Archive            string
	Base64Attributes   bool
	RecordFailedBlocks bool
	MaxRetries         int
	RetryBackoff       time.Duration
	MetricsAddr        string
	LogLevel           string
	LogFile            string
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.FromHeight <= 0 {
		return fmt.Errorf("from must be positive, got %d", c.FromHeight)
	}
	if c.ToHeight != 0 && c.ToHeight < c.FromHeight {
		return fmt.Errorf("to (%d) is below from (%d)", c.ToHeight, c.FromHeight)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be positive")
	}
	if c.PerPage <= 0 || c.PerPage > 100 {
		return fmt.Errorf("per-page must be in [1, 100], got %d", c.PerPage)
	}
	if c.CursorName == "" && c.CursorFile == "" {
		return fmt.Errorf("cursor-name or cursor-file is required")
	}
	return c.Store.Validate()
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"from":          int64(1),
		"batch-size":    int64(500),
		"per-page":      100,
		"poll-interval": 5 * time.Second,
		"cursor-name":   "tickscope",
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"metrics-addr":  ":9102",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:             v.GetString("rpc"),
		FromHeight:         v.GetInt64("from"),
		ToHeight:           v.GetInt64("to"),
		BatchSize:          v.GetInt64("batch-size"),
		PerPage:            v.GetInt("per-page"),
		Follow:             v.GetBool("follow"),
		PollInterval:       v.GetDuration("poll-interval"),
		Store:              storeConfig(v),
		CursorName:         v.GetString("cursor-name"),
		CursorFile:         v.GetString("cursor-file"),
		Archive:            v.GetString("archive"),
		Base64Attributes:   v.GetBool("base64-attributes"),
		RecordFailedBlocks: v.GetBool("record-failed-blocks"),
		MaxRetries:         v.GetInt("max-retries"),
		RetryBackoff:       v.GetDuration("retry-backoff"),
		MetricsAddr:        v.GetString("metrics-addr"),
		LogLevel:           v.GetString("log-level"),
		LogFile:            v.GetString("log-file"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// newViper layers config sources. Viper resolves flag over env over config file over default;
// .env values are loaded into the environment first and rank as env.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	if err := loadDotEnv(cfgFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", DriverSQLite)
	v.SetDefault("sqlite-path", "./data/tickscope.db")
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// loadDotEnv loads the .env file beside the config file (or in the working directory).
// Variables already set in the environment win.
func loadDotEnv(cfgFile string) error {
	envPath := ".env"
	if cfgFile != "" {
		envPath = filepath.Join(filepath.Dir(cfgFile), ".env")
	}
	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func storeConfig(v *viper.Viper) StoreConfig {
	return StoreConfig{
		Driver:     strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		PGDSN:      v.GetString("pg-dsn"),
		SQLitePath: v.GetString("sqlite-path"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		if len(typed) == 1 {
			return splitAndClean(typed[0])
		}
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
