// Package tracker polls the gm contract's GMed logs and turns them into snapshots.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/h15s/gmtea/stats"
)

// Sentinel errors for failure cases
var (
	ErrConnectFailed     = errors.New("no RPC endpoint available")
	ErrBlockNumberFailed = errors.New("latest block lookup failed")
	ErrFetchLogsFailed   = errors.New("GMed log fetch failed")
	ErrDecodeFailed      = errors.New("GMed log decode failed")
	ErrSaveFailed        = errors.New("save snapshot failed")
)

// Default configuration values
const (
	DefaultPollInterval = 10 * time.Second
	DefaultLookback     = uint64(50000)
	DefaultChunkSize    = uint64(10000)
)

// Chain is the slice of an Ethereum client the tracker reads from
// ---------------------------------------------------------------
type Chain interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	Close()
}

// Connector hands out a live Chain for one sync.
// The string identifies the endpoint for observability.
type Connector interface {
	Connect(ctx context.Context) (Chain, string, error)
}

// Store persists snapshots
type Store interface {
	SaveSnapshot(ctx context.Context, s stats.Snapshot) error
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// Event represents a service lifecycle event
// ------------------------------------------
type Event any

type PollingStarted struct {
	Interval time.Duration
	Lookback uint64
}

type SyncCompleted struct {
	Snapshot stats.Snapshot
	Fetched  int // number of eth_getLogs requests
	Duration time.Duration
}

type SyncError struct {
	Err error
}

type PollingShutdown struct {
	Reason error // Why shutdown occurred (ctx.Err())
}
