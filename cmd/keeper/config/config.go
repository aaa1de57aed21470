// Package config loads the keeper's yaml configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/EigenExplorer/liquid-avs-token-sub007/oracle"
)

// TokenEntry is one token's source wiring as written in the config file.
type TokenEntry struct {
	Address          string `yaml:"address"`
	PrimaryKind      string `yaml:"primary_kind"`
	PrimarySource    string `yaml:"primary_source"`
	NeedsArg         bool   `yaml:"needs_arg"`
	FallbackSource   string `yaml:"fallback_source"`
	FallbackSelector string `yaml:"fallback_selector"`
}

// Parse converts the entry into the oracle's configuration types.
func (t TokenEntry) Parse() (common.Address, oracle.TokenConfig, error) {
	if !common.IsHexAddress(t.Address) {
		return common.Address{}, oracle.TokenConfig{}, fmt.Errorf("token address %q is not a hex address", t.Address)
	}
	token := common.HexToAddress(t.Address)

	kind, err := oracle.ParseSourceKind(t.PrimaryKind)
	if err != nil {
		return common.Address{}, oracle.TokenConfig{}, fmt.Errorf("token %s: %w", t.Address, err)
	}
	if !common.IsHexAddress(t.PrimarySource) {
		return common.Address{}, oracle.TokenConfig{}, fmt.Errorf("token %s: primary source %q is not a hex address", t.Address, t.PrimarySource)
	}

	cfg := oracle.TokenConfig{
		PrimaryKind:   kind,
		PrimarySource: common.HexToAddress(t.PrimarySource),
		NeedsArg:      t.NeedsArg,
	}
	if t.FallbackSource != "" {
		if !common.IsHexAddress(t.FallbackSource) {
			return common.Address{}, oracle.TokenConfig{}, fmt.Errorf("token %s: fallback source %q is not a hex address", t.Address, t.FallbackSource)
		}
		cfg.FallbackSource = common.HexToAddress(t.FallbackSource)
	}
	if t.FallbackSelector != "" {
		sel, err := oracle.ParseSelector(t.FallbackSelector)
		if err != nil {
			return common.Address{}, oracle.TokenConfig{}, fmt.Errorf("token %s: fallback selector: %w", t.Address, err)
		}
		cfg.FallbackSelector = sel
	}
	return token, cfg, nil
}

// KeeperConfig is the keeper's configuration file.
type KeeperConfig struct {
	RPCURL        string `yaml:"rpc_url"`
	MetricsListen string `yaml:"metrics_listen"`

	PriceUpdateFrequency time.Duration `yaml:"price_update_frequency"`
	PriceUpdateInterval  time.Duration `yaml:"price_update_interval"`
	RetryDelay           time.Duration `yaml:"retry_delay"`
	MaxRetries           int           `yaml:"max_retries"`
	DailySpec            string        `yaml:"daily_spec"`

	Tokens []TokenEntry `yaml:"tokens"`
}

// validate checks if the configuration is valid.
func (c *KeeperConfig) validate() error {
	if c.RPCURL == "" {
		return errors.New("config: rpc_url is required")
	}
	if len(c.Tokens) == 0 {
		return errors.New("config: at least one token is required")
	}
	for _, t := range c.Tokens {
		if _, _, err := t.Parse(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// LoadConfig reads a configuration file from the given path and unmarshals
// it into a KeeperConfig struct.
func LoadConfig(path string) (*KeeperConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg KeeperConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
