package oracle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(primary common.Address) (TokenConfig, Wiring) {
	cfg := TokenConfig{PrimaryKind: KindFeedAggregator, PrimarySource: primary}
	w, err := cfg.Decode()
	if err != nil {
		panic(err)
	}
	return cfg, w
}

func TestRegistry(t *testing.T) {
	tokenA := common.HexToAddress("0x000000000000000000000000000000000000000a")
	tokenB := common.HexToAddress("0x000000000000000000000000000000000000000b")
	tokenC := common.HexToAddress("0x000000000000000000000000000000000000000c")
	source := common.HexToAddress("0x00000000000000000000000000000000000000f1")

	cfg, w := testConfig(source)

	t.Run("Configure_AppendsOnce", func(t *testing.T) {
		r := newRegistry()

		assert.True(t, r.configure(tokenA, cfg, w), "first configure should report a new token")
		assert.False(t, r.configure(tokenA, cfg, w), "re-configure should overwrite in place")

		assert.Equal(t, []common.Address{tokenA}, r.all())
		assert.True(t, r.isConfigured(tokenA))
		assert.Equal(t, 1, r.len())
	})

	t.Run("Reconfigure_OverwritesWholeRecord", func(t *testing.T) {
		r := newRegistry()
		r.configure(tokenA, cfg, w)

		next := TokenConfig{
			PrimaryKind:      KindProtocolViewCall,
			PrimarySource:    source,
			NeedsArg:         true,
			FallbackSelector: Selector{0x01, 0x02, 0x03, 0x04},
		}
		nextW, err := next.Decode()
		require.NoError(t, err)
		r.configure(tokenA, next, nextW)

		got, ok := r.config(tokenA)
		require.True(t, ok)
		assert.Equal(t, next, got)

		gotW, ok := r.wiring(tokenA)
		require.True(t, ok)
		assert.Equal(t, nextW, gotW)
	})

	t.Run("Remove_SwapsWithLast", func(t *testing.T) {
		r := newRegistry()
		r.configure(tokenA, cfg, w)
		r.configure(tokenB, cfg, w)
		r.configure(tokenC, cfg, w)

		require.True(t, r.remove(tokenA))

		// The last token takes the removed slot; order is not stable.
		assert.Equal(t, []common.Address{tokenC, tokenB}, r.all())
		assert.False(t, r.isConfigured(tokenA))
		_, ok := r.config(tokenA)
		assert.False(t, ok)

		// The moved token must remain reachable through the index.
		require.True(t, r.remove(tokenC))
		assert.Equal(t, []common.Address{tokenB}, r.all())
	})

	t.Run("Remove_LastElement", func(t *testing.T) {
		r := newRegistry()
		r.configure(tokenA, cfg, w)
		r.configure(tokenB, cfg, w)

		require.True(t, r.remove(tokenB))
		assert.Equal(t, []common.Address{tokenA}, r.all())
	})

	t.Run("Remove_AbsentToken", func(t *testing.T) {
		r := newRegistry()
		assert.False(t, r.remove(tokenA))
	})

	t.Run("All_ReturnsDefensiveCopy", func(t *testing.T) {
		r := newRegistry()
		r.configure(tokenA, cfg, w)
		r.configure(tokenB, cfg, w)

		got := r.all()
		got[0] = tokenC
		assert.Equal(t, []common.Address{tokenA, tokenB}, r.all(), "mutating the copy must not affect the registry")
	})
}
