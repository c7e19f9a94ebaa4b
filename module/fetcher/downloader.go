package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/sethvargo/go-retry"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/onflow/evm-bench/model/evmblock"
	"github.com/onflow/evm-bench/module"
	"github.com/onflow/evm-bench/utils/io"
)

// ErrBlockNotFound is returned when the node has no block at the requested number
var ErrBlockNotFound = errors.New("block not found")

// Caller sends JSON-RPC requests, *rpc.Client of go-ethereum implements it
type Caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Config is the configuration of a Downloader
type Config struct {
	// blocks are written to <OutputDir>/blocks
	OutputDir string
	Prefix    string
	Start     uint64
	Count     uint64
	// number of concurrent requests
	Workers        int
	RequestTimeout time.Duration
	RetryDelay     time.Duration
	MaxRetryDelay  time.Duration
	MaxRetries     uint64
	ShowProgress   bool
}

// DefaultConfig returns the default downloader configuration
func DefaultConfig() Config {
	return Config{
		OutputDir:      "./data_bdf",
		Prefix:         "bdf-",
		Start:          18_000_000,
		Count:          100_000,
		Workers:        20,
		RequestTimeout: 30 * time.Second,
		RetryDelay:     500 * time.Millisecond,
		MaxRetryDelay:  10 * time.Second,
		MaxRetries:     3,
		ShowProgress:   true,
	}
}

// Summary describes the outcome of a download
type Summary struct {
	Requested    uint64
	Downloaded   uint64
	Skipped      uint64
	Transactions uint64
	// block numbers that could not be fetched, ascending
	Failed  []uint64
	Elapsed time.Duration
}

// Downloader fetches blocks with their full transactions from an archive
// node and stores each of them as a JSON-RPC response document
type Downloader struct {
	log     zerolog.Logger
	client  Caller
	config  Config
	metrics module.DownloadMetrics
}

// NewDownloader creates a downloader sending requests through client
func NewDownloader(log zerolog.Logger, client Caller, config Config, metrics module.DownloadMetrics) *Downloader {
	return &Downloader{
		log:     log.With().Str("component", "block_downloader").Logger(),
		client:  client,
		config:  config,
		metrics: metrics,
	}
}

// BlocksDir returns the directory blocks are written to
func (d *Downloader) BlocksDir() string {
	return filepath.Join(d.config.OutputDir, "blocks")
}

// BlockPath returns the file a block is written to
func (d *Downloader) BlockPath(number uint64) string {
	return filepath.Join(d.BlocksDir(), fmt.Sprintf("%s%d.json", d.config.Prefix, number))
}

// CheckConnection returns the latest block number of the node and checks
// that the first requested block is available
func (d *Downloader) CheckConnection(ctx context.Context) (uint64, error) {
	var latest hexutil.Uint64
	if err := d.call(ctx, &latest, "eth_blockNumber"); err != nil {
		return 0, fmt.Errorf("could not get latest block number: %w", err)
	}

	var header json.RawMessage
	err := d.call(ctx, &header, "eth_getBlockByNumber", hexutil.EncodeUint64(d.config.Start), false)
	if err != nil {
		return 0, fmt.Errorf("could not get block %d: %w", d.config.Start, err)
	}
	if isNull(header) {
		return 0, fmt.Errorf("block %d is not available (latest %d): %w", d.config.Start, uint64(latest), ErrBlockNotFound)
	}
	return uint64(latest), nil
}

// DownloadBlock fetches one block and writes it to disk, retrying failed
// requests with an exponential backoff. A valid file already on disk is
// kept and reported as skipped. It returns the number of transactions of the block.
func (d *Downloader) DownloadBlock(ctx context.Context, number uint64) (txCount int, skipped bool, err error) {
	path := d.BlockPath(number)
	if count, ok := existingBlock(path); ok {
		return count, true, nil
	}

	start := time.Now()
	backoff := retry.NewExponential(d.config.RetryDelay)
	backoff = retry.WithCappedDuration(d.config.MaxRetryDelay, backoff)
	backoff = retry.WithJitterPercent(15, backoff)
	backoff = retry.WithMaxRetries(d.config.MaxRetries, backoff)

	var raw json.RawMessage
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			d.log.Debug().Uint64("block", number).Int("attempt", attempt).Msg("retrying download")
			d.metrics.BlockDownloadRetried()
		}
		attempt++

		err := d.call(ctx, &raw, "eth_getBlockByNumber", hexutil.EncodeUint64(number), true)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("could not fetch block %d: %w", number, err)
	}
	if isNull(raw) {
		return 0, false, fmt.Errorf("block %d returned null: %w", number, ErrBlockNotFound)
	}

	data, err := encodeEnvelope(raw)
	if err != nil {
		return 0, false, fmt.Errorf("could not encode block %d: %w", number, err)
	}
	block, err := evmblock.Decode(data)
	if err != nil {
		return 0, false, fmt.Errorf("node returned an invalid block %d: %w", number, err)
	}
	if err := os.MkdirAll(d.BlocksDir(), 0755); err != nil {
		return 0, false, fmt.Errorf("could not create blocks directory: %w", err)
	}
	if err := io.WriteFileAtomic(path, data); err != nil {
		return 0, false, err
	}

	d.metrics.BlockDownloaded(time.Since(start))
	return len(*block.Transactions), false, nil
}

// DownloadAll fetches the configured block range with bounded concurrency.
// Blocks that fail are tried once more one after the other at the end. The
// returned error aggregates the blocks that still failed.
func (d *Downloader) DownloadAll(ctx context.Context) (*Summary, error) {
	lock := io.NewDirLock(d.BlocksDir())
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			d.log.Warn().Err(err).Msg("could not release download directory lock")
		}
	}()

	start := time.Now()
	d.log.Info().
		Uint64("start", d.config.Start).
		Uint64("end", d.config.Start+d.config.Count-1).
		Int("workers", d.config.Workers).
		Str("output", d.BlocksDir()).
		Msg("downloading blocks")

	var (
		downloaded   = atomic.NewUint64(0)
		skipped      = atomic.NewUint64(0)
		transactions = atomic.NewUint64(0)
		mu           sync.Mutex
		failed       []uint64
	)

	record := func(txCount int, wasSkipped bool) {
		if wasSkipped {
			skipped.Inc()
		} else {
			downloaded.Inc()
		}
		transactions.Add(uint64(txCount))
	}

	bar := d.newBar(int64(d.config.Count), "downloading blocks")
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.Workers)

	for i := uint64(0); i < d.config.Count; i++ {
		number := d.config.Start + i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			txCount, wasSkipped, err := d.DownloadBlock(gCtx, number)
			if err != nil {
				d.log.Debug().Err(err).Uint64("block", number).Msg("block download failed")
				mu.Lock()
				failed = append(failed, number)
				mu.Unlock()
			} else {
				record(txCount, wasSkipped)
			}
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("download interrupted: %w", err)
	}
	_ = bar.Finish()

	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })

	var errs *multierror.Error
	var stillFailed []uint64
	if len(failed) > 0 {
		d.log.Warn().Int("failed", len(failed)).Msg("retrying failed blocks")
		retryBar := d.newBar(int64(len(failed)), "retrying")
		for _, number := range failed {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("download interrupted: %w", err)
			}
			txCount, wasSkipped, err := d.DownloadBlock(ctx, number)
			if err != nil {
				errs = multierror.Append(errs, err)
				stillFailed = append(stillFailed, number)
				d.metrics.BlockDownloadFailed()
			} else {
				record(txCount, wasSkipped)
			}
			_ = retryBar.Add(1)
		}
		_ = retryBar.Finish()
		d.log.Info().Int("recovered", len(failed)-len(stillFailed)).Msg("retry complete")
	}

	summary := &Summary{
		Requested:    d.config.Count,
		Downloaded:   downloaded.Load(),
		Skipped:      skipped.Load(),
		Transactions: transactions.Load(),
		Failed:       stillFailed,
		Elapsed:      time.Since(start),
	}

	d.log.Info().
		Uint64("requested", summary.Requested).
		Uint64("downloaded", summary.Downloaded).
		Uint64("skipped", summary.Skipped).
		Int("failed", len(summary.Failed)).
		Uint64("txs", summary.Transactions).
		Str("elapsed", units.HumanDuration(summary.Elapsed)).
		Msg("download complete")

	return summary, errs.ErrorOrNil()
}

func (d *Downloader) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if d.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.RequestTimeout)
		defer cancel()
	}
	return d.client.CallContext(ctx, result, method, args...)
}

func (d *Downloader) newBar(total int64, description string) *progressbar.ProgressBar {
	if d.config.ShowProgress {
		return progressbar.Default(total, description)
	}
	return progressbar.DefaultSilent(total, description)
}

type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
}

func encodeEnvelope(block json.RawMessage) ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(envelope{
		JSONRPC: "2.0",
		ID:      1,
		Result:  block,
	}, "", "  ")
}

// existingBlock returns the transaction count of a previously downloaded
// block, ok is false if there is no valid block at path
func existingBlock(path string) (int, bool) {
	if !io.FileExists(path) {
		return 0, false
	}
	block, err := evmblock.ReadFile(path)
	if err != nil || block.Number.IsEmpty() {
		return 0, false
	}
	return len(*block.Transactions), true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
