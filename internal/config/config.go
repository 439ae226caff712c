package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"liquidityBreakdown/internal/wrapper"
)

// Config holds configuration values for the run command, loaded from flags,
// env, or config file.
type Config struct {
	ChainID         uint64
	Token           string
	InfuraProjectID string
	RPCURL          string
	WrapperMapURL   string
	PageSize        int
	MaxConcurrency  int
	DeadAddress     string
	OutDir          string
	PGDSN           string
	MetricsFile     string
	MaxRetries      int
	RetryBackoff    time.Duration
	LogLevel        string

	// Overrides replaces fields of the built-in network table, keyed by chain id.
	Overrides map[uint64]Network
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault("wrapper-map-url", wrapper.DefaultMapURL)
	v.SetDefault("page-size", 1000)
	v.SetDefault("max-concurrency", 8)
	v.SetDefault("dead-address", "0x0000000000000000000000000000000000000000")
	v.SetDefault("out-dir", "./output")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	overrides, err := networkOverrides(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ChainID:         v.GetUint64("chain-id"),
		Token:           strings.TrimSpace(v.GetString("token")),
		InfuraProjectID: v.GetString("infura-project-id"),
		RPCURL:          v.GetString("rpc"),
		WrapperMapURL:   v.GetString("wrapper-map-url"),
		PageSize:        v.GetInt("page-size"),
		MaxConcurrency:  v.GetInt("max-concurrency"),
		DeadAddress:     v.GetString("dead-address"),
		OutDir:          v.GetString("out-dir"),
		PGDSN:           v.GetString("pg-dsn"),
		MetricsFile:     v.GetString("metrics-file"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		LogLevel:        v.GetString("log-level"),
		Overrides:       overrides,
	}

	if cfg.PageSize <= 0 {
		return Config{}, fmt.Errorf("page-size must be positive, got %d", cfg.PageSize)
	}
	if cfg.MaxConcurrency < 0 {
		return Config{}, fmt.Errorf("max-concurrency must not be negative, got %d", cfg.MaxConcurrency)
	}

	return cfg, nil
}

// Network resolves the endpoints for the configured chain id.
func (c Config) Network() (Network, error) {
	n, ok := defaultNetworks[c.ChainID]
	if !ok {
		return Network{}, &UnknownNetworkError{ChainID: c.ChainID}
	}
	if o, ok := c.Overrides[c.ChainID]; ok {
		n = n.merge(o)
	}
	if c.RPCURL != "" {
		n.RPCURL = c.RPCURL
	}

	if strings.Contains(n.RPCURL, infuraPlaceholder) {
		if c.InfuraProjectID == "" {
			return Network{}, fmt.Errorf("chain %d (%s): infura-project-id or rpc is required", n.ChainID, n.Name)
		}
		n.RPCURL = strings.ReplaceAll(n.RPCURL, infuraPlaceholder, c.InfuraProjectID)
	}
	return n, nil
}

// read layers the config file and flags onto v under the BREAKDOWN_ env prefix.
func read(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix("BREAKDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func networkOverrides(v *viper.Viper) (map[uint64]Network, error) {
	raw := v.GetStringMap("networks")
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[uint64]Network, len(raw))
	for key := range raw {
		chainID, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("networks: invalid chain id %q", key)
		}
		prefix := "networks." + key + "."
		out[chainID] = Network{
			ChainID:       chainID,
			RPCURL:        v.GetString(prefix + "rpc"),
			ButtonswapURL: v.GetString(prefix + "buttonswap"),
			PointsURL:     v.GetString(prefix + "points"),
		}
	}
	return out, nil
}
