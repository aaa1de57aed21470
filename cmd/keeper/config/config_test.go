package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EigenExplorer/liquid-avs-token-sub007/oracle"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keeper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
rpc_url: "ws://localhost:8546"
metrics_listen: ":9091"
price_update_frequency: 12h
price_update_interval: 12h
retry_delay: 15m
max_retries: 3
daily_spec: "0 2 * * *"
tokens:
  - address: "0x00000000000000000000000000000000000000aa"
    primary_kind: feed-aggregator
    primary_source: "0x00000000000000000000000000000000000000f1"
    fallback_source: "0x00000000000000000000000000000000000000f3"
    fallback_selector: "0xaabbccdd"
    needs_arg: true
  - address: "0x00000000000000000000000000000000000000bb"
    primary_kind: pool-derived
    primary_source: "0x00000000000000000000000000000000000000f2"
`

func TestLoadConfig(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validConfig))
		require.NoError(t, err)

		assert.Equal(t, "ws://localhost:8546", cfg.RPCURL)
		assert.Equal(t, 12*time.Hour, cfg.PriceUpdateFrequency)
		assert.Equal(t, 15*time.Minute, cfg.RetryDelay)
		assert.Equal(t, 3, cfg.MaxRetries)
		require.Len(t, cfg.Tokens, 2)

		token, tokenCfg, err := cfg.Tokens[0].Parse()
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000aa"), token)
		assert.Equal(t, oracle.KindFeedAggregator, tokenCfg.PrimaryKind)
		assert.True(t, tokenCfg.NeedsArg)
		assert.Equal(t, oracle.Selector{0xaa, 0xbb, 0xcc, 0xdd}, tokenCfg.FallbackSelector)

		_, tokenCfg, err = cfg.Tokens[1].Parse()
		require.NoError(t, err)
		assert.Equal(t, oracle.KindPoolDerived, tokenCfg.PrimaryKind)
		assert.Equal(t, common.Address{}, tokenCfg.FallbackSource, "omitted fallback stays zero")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("MissingRPCURL", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `
tokens:
  - address: "0x00000000000000000000000000000000000000aa"
    primary_kind: feed-aggregator
    primary_source: "0x00000000000000000000000000000000000000f1"
`))
		assert.Error(t, err)
	})

	t.Run("NoTokens", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `rpc_url: "ws://localhost:8546"`))
		assert.Error(t, err)
	})

	t.Run("BadTokenEntry", func(t *testing.T) {
		for name, entry := range map[string]string{
			"bad address": `
  - address: "not-an-address"
    primary_kind: feed-aggregator
    primary_source: "0x00000000000000000000000000000000000000f1"`,
			"bad kind": `
  - address: "0x00000000000000000000000000000000000000aa"
    primary_kind: mystery
    primary_source: "0x00000000000000000000000000000000000000f1"`,
			"bad selector": `
  - address: "0x00000000000000000000000000000000000000aa"
    primary_kind: feed-aggregator
    primary_source: "0x00000000000000000000000000000000000000f1"
    fallback_selector: "0xaabb"`,
		} {
			_, err := LoadConfig(writeConfig(t, "rpc_url: \"ws://localhost:8546\"\ntokens:"+entry))
			assert.Error(t, err, name)
		}
	})
}
