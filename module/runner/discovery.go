package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultPrefix is the file name prefix of downloaded block files
const DefaultPrefix = "bdf-"

// BlockFileExt is the extension of block files
const BlockFileExt = ".json"

// DiscoverBlockFiles lists the block files of dir, ordered by block number.
// Files whose name carries no block number come last, by name.
// It only fails when dir cannot be read.
func DiscoverBlockFiles(dir string, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read block directory %s: %w", dir, err)
	}

	type blockFile struct {
		path   string
		number uint64
		ok     bool
	}

	files := make([]blockFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != BlockFileExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		number, err := ParseBlockNumber(path, prefix)
		files = append(files, blockFile{path: path, number: number, ok: err == nil})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.ok != b.ok {
			return a.ok
		}
		if a.ok && a.number != b.number {
			return a.number < b.number
		}
		return a.path < b.path
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// ParseBlockNumber extracts the block number from a block file name: the
// stem with prefix removed, or else the digits the stem ends with.
func ParseBlockNumber(path string, prefix string) (uint64, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	number, err := strconv.ParseUint(strings.TrimPrefix(stem, prefix), 10, 64)
	if err == nil {
		return number, nil
	}

	end := len(stem)
	start := end
	for start > 0 && stem[start-1] >= '0' && stem[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, fmt.Errorf("file name %s carries no block number", base)
	}
	number, err = strconv.ParseUint(stem[start:end], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number in file name %s: %w", base, err)
	}
	return number, nil
}
