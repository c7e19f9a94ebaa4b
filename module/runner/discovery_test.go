package runner_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evm-bench/module/runner"
	"github.com/onflow/evm-bench/utils/unittest"
)

func TestDiscoverBlockFiles(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		names := []string{"bdf-100.json", "bdf-9.json", "bdf-20000.json", "notes.txt", "zeta.json", "alpha.json"}
		for _, name := range names {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "bdf-1.json"), 0755))

		files, err := runner.DiscoverBlockFiles(dir, runner.DefaultPrefix)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "bdf-9.json"),
			filepath.Join(dir, "bdf-100.json"),
			filepath.Join(dir, "bdf-20000.json"),
			filepath.Join(dir, "alpha.json"),
			filepath.Join(dir, "zeta.json"),
		}, files)
	})

	t.Run("empty directory", func(t *testing.T) {
		unittest.RunWithTempDir(t, func(dir string) {
			files, err := runner.DiscoverBlockFiles(dir, runner.DefaultPrefix)
			require.NoError(t, err)
			require.Empty(t, files)
		})
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := runner.DiscoverBlockFiles(filepath.Join(os.TempDir(), "does-not-exist-evm-bench"), runner.DefaultPrefix)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestParseBlockNumber(t *testing.T) {
	cases := []struct {
		path     string
		prefix   string
		expected uint64
	}{
		{"/data/blocks/bdf-18000000.json", "bdf-", 18_000_000},
		{"bdf-0.json", "bdf-", 0},
		{"block_77.json", "bdf-", 77},
		{"12345.json", "", 12345},
		{"mainnet-19000000.json", "mainnet-", 19_000_000},
	}
	for _, c := range cases {
		number, err := runner.ParseBlockNumber(c.path, c.prefix)
		require.NoError(t, err, c.path)
		assert.Equal(t, c.expected, number, c.path)
	}

	for _, path := range []string{"latest.json", "bdf-.json", "bdf-99999999999999999999999.json"} {
		_, err := runner.ParseBlockNumber(path, "bdf-")
		assert.Error(t, err, path)
	}
}
