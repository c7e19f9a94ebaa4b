package state_test

import (
	"math/big"
	"sync"
	"testing"

	gethCommon "github.com/ethereum/go-ethereum/common"
	gethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evm-bench/evm/emulator/state"
)

func TestView(t *testing.T) {
	addr := gethCommon.Address{0x01}

	t.Run("empty view", func(t *testing.T) {
		view, err := state.NewEmptyView()
		require.NoError(t, err)
		require.Equal(t, gethTypes.EmptyRootHash, view.Root())
		require.False(t, view.StateDB().Exist(addr))
		require.Equal(t, 0, view.StateDB().GetBalance(addr).Sign())
	})

	t.Run("writes to a fork are not visible to the parent or siblings", func(t *testing.T) {
		base, err := state.NewEmptyView()
		require.NoError(t, err)

		fork1, err := base.Fork()
		require.NoError(t, err)
		fork2, err := base.Fork()
		require.NoError(t, err)

		fork1.StateDB().AddBalance(addr, big.NewInt(100))
		require.Equal(t, big.NewInt(100), fork1.StateDB().GetBalance(addr))

		require.Equal(t, 0, base.StateDB().GetBalance(addr).Sign())
		require.Equal(t, 0, fork2.StateDB().GetBalance(addr).Sign())
	})

	t.Run("pending changes of the parent are not forked", func(t *testing.T) {
		base, err := state.NewEmptyView()
		require.NoError(t, err)
		base.StateDB().AddBalance(addr, big.NewInt(7))

		fork, err := base.Fork()
		require.NoError(t, err)
		require.False(t, fork.StateDB().Exist(addr))
		require.Equal(t, 0, fork.StateDB().GetBalance(addr).Sign())
		require.Equal(t, big.NewInt(7), base.StateDB().GetBalance(addr))
	})

	t.Run("concurrent forks", func(t *testing.T) {
		base, err := state.NewEmptyView()
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				fork, err := base.Fork()
				if !assert.NoError(t, err) {
					return
				}
				fork.StateDB().AddBalance(addr, big.NewInt(int64(i+1)))
				assert.Equal(t, big.NewInt(int64(i+1)), fork.StateDB().GetBalance(addr))
			}(i)
		}
		wg.Wait()
		require.Equal(t, 0, base.StateDB().GetBalance(addr).Sign())
	})
}
