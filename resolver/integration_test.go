package resolver

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EigenExplorer/liquid-avs-token-sub007/oracle"
)

// End-to-end over oracle + resolver: a refresh pass against fake contracts.
func TestRefreshThroughResolver(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	auth := oracle.NewAuth(oracle.CapConfigurator)

	newOracle := func(t *testing.T, caller ContractCaller) *oracle.Oracle {
		t.Helper()
		r := newTestResolver(t, caller, now)
		o, err := oracle.New(oracle.Config{
			Resolver: r,
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
			Now:      func() time.Time { return now },
		})
		require.NoError(t, err)
		return o
	}

	t.Run("FeedValueLandsNormalized", func(t *testing.T) {
		caller := newFakeCaller()
		caller.returns(feedAddr, latestRoundDataCall, packRound(t, big.NewInt(150000000), now.Unix()))
		caller.returns(feedAddr, decimalsCall, packDecimals(t, 8))

		o := newOracle(t, caller)
		require.NoError(t, o.ConfigureToken(auth, testToken, oracle.TokenConfig{
			PrimaryKind:   oracle.KindFeedAggregator,
			PrimarySource: feedAddr,
		}))

		require.True(t, o.RefreshAll(context.Background()))
		assert.Equal(t, uint256.MustFromDecimal("1500000000000000000"), o.GetRate(testToken))
		assert.False(t, o.ArePricesStale())
	})

	t.Run("FallbackStillAdvancesFreshness", func(t *testing.T) {
		caller := newFakeCaller()
		caller.reverts(feedAddr, latestRoundDataCall)
		caller.returns(fallbackAddr, fallbackSel[:], packWord(uint256.NewInt(990_000_000_000_000_000)))

		o := newOracle(t, caller)
		require.NoError(t, o.ConfigureToken(auth, testToken, oracle.TokenConfig{
			PrimaryKind:      oracle.KindFeedAggregator,
			PrimarySource:    feedAddr,
			FallbackSource:   fallbackAddr,
			FallbackSelector: fallbackSel,
		}))

		require.True(t, o.RefreshAll(context.Background()), "a fallback success still counts as progress")
		assert.Equal(t, uint256.NewInt(990_000_000_000_000_000), o.GetRate(testToken))
	})

	t.Run("DeadSourcesLeaveTableStale", func(t *testing.T) {
		caller := newFakeCaller()

		o := newOracle(t, caller)
		require.NoError(t, o.ConfigureToken(auth, testToken, oracle.TokenConfig{
			PrimaryKind:      oracle.KindFeedAggregator,
			PrimarySource:    feedAddr,
			FallbackSource:   fallbackAddr,
			FallbackSelector: fallbackSel,
		}))

		require.False(t, o.RefreshAll(context.Background()))
		assert.True(t, o.ArePricesStale())
		assert.True(t, o.GetRate(testToken).IsZero())
	})
}
