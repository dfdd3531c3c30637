package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/h15s/gmtea/pkg/clock"
	"github.com/h15s/gmtea/pkg/gmabi"
	"github.com/h15s/gmtea/stats"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPollInterval sets the polling interval
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// WithLookback sets how many blocks behind the head are read
func WithLookback(blocks uint64) Option {
	return func(s *Service) { s.lookback = blocks }
}

// WithChunkSize sets the block span of a single eth_getLogs request.
// Zero reads the whole window in one request.
func WithChunkSize(blocks uint64) Option {
	return func(s *Service) { s.chunkSize = blocks }
}

// WithLocation sets the calendar used to decide what "today" is
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithChainID records the chain id on every snapshot
func WithChainID(id uint64) Option {
	return func(s *Service) { s.chainID = id }
}

// Service reads the GMed window right away and then once per interval
// -------------------------------------------------------------------
type Service struct {
	chains       Connector
	store        Store
	contract     common.Address
	clock        Clock
	pollInterval time.Duration
	lookback     uint64
	chunkSize    uint64
	location     *time.Location
	chainID      uint64
	events       chan Event
	refresh      chan struct{}
}

// NewService constructs a Service with required dependencies and options
// ---------------------------------------------------------------------
// By default, it uses a real clock, 10s poll interval, a 50000 block
// look-back read in 10000 block chunks, and the local calendar.
func NewService(chains Connector, store Store, contract common.Address, opts ...Option) *Service {
	s := &Service{
		chains:       chains,
		store:        store,
		contract:     contract,
		clock:        clock.SystemClock{},
		pollInterval: DefaultPollInterval,
		lookback:     DefaultLookback,
		chunkSize:    DefaultChunkSize,
		location:     time.Local,
		events:       make(chan Event, 10),
		refresh:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the tracker and returns the events channel and done channel.
//
// Shutdown pattern:
//  1. Cancel context to request shutdown: cancel()
//  2. Service stops producing events and closes events channel
//  3. Wait for complete shutdown: <-done
//
// Example:
//
//	events, done := service.Start(ctx)
//	defer func() {
//	  cancel()    // 1. Request shutdown
//	  <-done      // 2. Wait for complete shutdown
//	}()
func (s *Service) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		defer close(s.events)
		defer close(done)
		s.run(ctx)
	}()
	return s.events, done
}

// Refresh asks for a sync ahead of the next tick. Requests made while one
// is already queued are dropped.
func (s *Service) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// run polls until the context is cancelled. Syncs never overlap.
func (s *Service) run(ctx context.Context) {
	s.events <- PollingStarted{Interval: s.pollInterval, Lookback: s.lookback}

	s.syncAndReport(ctx)
	for {
		select {
		case <-ctx.Done():
			s.events <- PollingShutdown{Reason: ctx.Err()}
			return
		case <-s.refresh:
			s.syncAndReport(ctx)
		case <-s.clock.After(s.pollInterval):
			s.syncAndReport(ctx)
		}
	}
}

func (s *Service) syncAndReport(ctx context.Context) {
	start := s.clock.Now()
	snapshot, requests, err := s.sync(ctx)
	if err != nil {
		// a sync cut short by shutdown is not an error worth reporting
		if ctx.Err() == nil {
			s.events <- SyncError{Err: err}
		}
		return
	}

	s.events <- SyncCompleted{
		Snapshot: snapshot,
		Fetched:  requests,
		Duration: s.clock.Now().Sub(start),
	}
}

// sync rebuilds the counters from scratch and saves them
func (s *Service) sync(ctx context.Context) (stats.Snapshot, int, error) {
	// respect cancellation
	select {
	case <-ctx.Done():
		return stats.Snapshot{}, 0, ctx.Err()
	default:
	}

	chain, endpoint, err := s.chains.Connect(ctx)
	if err != nil {
		return stats.Snapshot{}, 0, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	defer chain.Close()

	latest, err := chain.BlockNumber(ctx)
	if err != nil {
		return stats.Snapshot{}, 0, fmt.Errorf("%w: %w", ErrBlockNumberFailed, err)
	}
	from, to := stats.Window(latest, s.lookback)

	events, requests, err := s.fetch(ctx, chain, from, to)
	if err != nil {
		return stats.Snapshot{}, requests, err
	}

	now := s.clock.Now()
	snapshot := stats.NewSnapshot(stats.Aggregate(events, now, s.location), from, to, now)
	snapshot.Endpoint = endpoint
	snapshot.ChainID = s.chainID
	snapshot.Contract = s.contract

	if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
		return stats.Snapshot{}, requests, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return snapshot, requests, nil
}

// fetch reads GMed logs in [from, to], chunkSize blocks per request
func (s *Service) fetch(ctx context.Context, chain Chain, from, to uint64) ([]stats.GMed, int, error) {
	var (
		events   []stats.GMed
		requests int
	)
	for _, r := range chunks(from, to, s.chunkSize) {
		logs, err := chain.FilterLogs(ctx, gmabi.FilterQuery(s.contract, r[0], r[1]))
		requests++
		if err != nil {
			return nil, requests, fmt.Errorf("%w: blocks %d-%d: %w", ErrFetchLogsFailed, r[0], r[1], err)
		}

		for _, l := range logs {
			ev, err := gmabi.Unpack(l)
			if err != nil {
				return nil, requests, fmt.Errorf("%w: tx %s: %w", ErrDecodeFailed, l.TxHash.Hex(), err)
			}
			events = append(events, stats.GMed{
				User:        ev.User,
				Timestamp:   time.Unix(int64(ev.Timestamp), 0), //nolint:gosec // block timestamps fit in int64
				BlockNumber: ev.BlockNumber,
				TxHash:      ev.TxHash,
			})
		}
	}
	return events, requests, nil
}

// chunks splits the inclusive range [from, to] into spans of at most size blocks
func chunks(from, to, size uint64) [][2]uint64 {
	if size == 0 || to-from < size {
		return [][2]uint64{{from, to}}
	}

	var out [][2]uint64
	for start := from; start <= to; start += size {
		end := start + size - 1
		if end > to {
			end = to
		}
		out = append(out, [2]uint64{start, end})
		if end == to {
			break
		}
	}
	return out
}
