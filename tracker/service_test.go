package tracker_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h15s/gmtea/pkg/evmrpc"
	"github.com/h15s/gmtea/pkg/evmrpc/evmrpctest"
	"github.com/h15s/gmtea/pkg/gmabi"
	"github.com/h15s/gmtea/stats"
	"github.com/h15s/gmtea/tracker"
)

var (
	contract = common.HexToAddress("0x4842A51Fac74B11aAD565134bD9f79e8b6dA5D47")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000A11CE")
	bob      = common.HexToAddress("0x0000000000000000000000000000000000000B0B")
	now      = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
)

const waitFor = 5 * time.Second

// TestServiceSyncBehavior tests how a single poll turns logs into counters
func TestServiceSyncBehavior(t *testing.T) {
	t.Parallel()

	t.Run("it syncs immediately on start", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)
		node.AddLogs(
			gmLog(alice, now.Add(-time.Hour), 100),
			gmLog(alice, now.Add(-48*time.Hour), 200),
			gmLog(bob, now, 300),
		)
		store := &captureStore{}

		// Act
		run := startTracker(t, newService(clock, store, endpoints(node)))
		completed := run.nextCompleted(t)

		// Assert
		assert.Equal(t, stats.Counts{TotalTx: 3, UniqueUsers: 2, DailyUsers: 2}, completed.Snapshot.Counts)
		assert.Equal(t, uint64(0), completed.Snapshot.FromBlock)
		assert.Equal(t, uint64(1000), completed.Snapshot.ToBlock)
		assert.Equal(t, uint64(evmrpctest.DefaultChainID), completed.Snapshot.ChainID)
		assert.Equal(t, contract, completed.Snapshot.Contract)
		assert.Equal(t, now, completed.Snapshot.TakenAt)
		assert.NotEmpty(t, completed.Snapshot.ID)
		assertSaved(t, store, completed.Snapshot)
	})

	t.Run("it only reads the look-back window", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 120000)
		node.AddLogs(
			gmLog(alice, now, 60000),
			gmLog(bob, now, 80000),
		)

		// Act
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(node), tracker.WithLookback(50000)))
		completed := run.nextCompleted(t)

		// Assert
		assert.Equal(t, uint64(70000), completed.Snapshot.FromBlock)
		assert.Equal(t, 1, completed.Snapshot.Counts.TotalTx)
	})

	t.Run("it splits the window into chunks", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 25000)
		node.SetMaxLogRange(10000)
		node.AddLogs(gmLog(alice, now, 5), gmLog(bob, now, 24999))

		// Act
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(node), tracker.WithChunkSize(10000)))
		completed := run.nextCompleted(t)

		// Assert
		assert.Equal(t, 3, completed.Fetched)
		assert.Equal(t, [][2]uint64{{0, 9999}, {10000, 19999}, {20000, 25000}}, node.LogQueries())
		assert.Equal(t, 2, completed.Snapshot.Counts.TotalTx)
	})

	t.Run("it reads the window in one request when chunking is off", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 25000)

		// Act
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(node), tracker.WithChunkSize(0)))
		completed := run.nextCompleted(t)

		// Assert
		assert.Equal(t, 1, completed.Fetched)
		assert.Equal(t, [][2]uint64{{0, 25000}}, node.LogQueries())
	})

	t.Run("it falls back to the next endpoint", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		down := evmrpctest.NewNode(t, 1000)
		down.Close()
		up := evmrpctest.NewNode(t, 1000)
		up.AddLogs(gmLog(alice, now, 10))

		// Act
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(down, up)))
		completed := run.nextCompleted(t)

		// Assert
		assert.Contains(t, completed.Snapshot.Endpoint, "#2")
		assert.Equal(t, 1, completed.Snapshot.Counts.TotalTx)
	})
}

// TestServiceFailureBehavior tests that failures are reported and polling carries on
func TestServiceFailureBehavior(t *testing.T) {
	t.Parallel()

	t.Run("it reports when every endpoint is down", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)
		node.Fail("eth_blockNumber", "node is syncing")

		// Act
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(node)))
		failed := run.nextError(t)

		// Assert
		require.ErrorIs(t, failed.Err, tracker.ErrConnectFailed)
		assert.ErrorIs(t, failed.Err, evmrpc.ErrAllEndpointsFailed)
	})

	t.Run("it keeps polling after a failure", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)
		node.Fail("eth_blockNumber", "node is syncing")
		store := &captureStore{}
		run := startTracker(t, newService(clock, store, endpoints(node)))
		run.nextError(t)

		// Act
		node.Recover("eth_blockNumber")
		clock.Tick()
		completed := run.nextCompleted(t)

		// Assert
		assert.Equal(t, uint64(1000), completed.Snapshot.ToBlock)
		assertSaved(t, store, completed.Snapshot)
	})

	t.Run("it reports log fetch failures", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)
		node.Fail("eth_getLogs", "query timeout")

		// Act
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(node)))
		failed := run.nextError(t)

		// Assert
		require.ErrorIs(t, failed.Err, tracker.ErrFetchLogsFailed)
		assert.Contains(t, failed.Err.Error(), "query timeout")
	})

	t.Run("it reports logs it cannot decode", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)
		broken := gmLog(alice, now, 10)
		broken.Data = broken.Data[:8]
		node.AddLogs(broken)

		// Act
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(node)))
		failed := run.nextError(t)

		// Assert
		assert.ErrorIs(t, failed.Err, tracker.ErrDecodeFailed)
	})

	t.Run("it reports store failures", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)
		store := &captureStore{err: errors.New("disk full")}

		// Act
		run := startTracker(t, newService(clock, store, endpoints(node)))
		failed := run.nextError(t)

		// Assert
		assert.ErrorIs(t, failed.Err, tracker.ErrSaveFailed)
	})
}

// TestServicePollingBehavior tests the polling schedule
func TestServicePollingBehavior(t *testing.T) {
	t.Parallel()

	t.Run("it rebuilds counters on every tick", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)
		node.AddLogs(gmLog(alice, now, 10))
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(node)))
		first := run.nextCompleted(t)

		// Act
		node.AddLogs(gmLog(bob, now, 1001))
		node.SetHead(1001)
		clock.Tick()
		second := run.nextCompleted(t)

		// Assert
		assert.Equal(t, stats.Counts{TotalTx: 1, UniqueUsers: 1, DailyUsers: 1}, first.Snapshot.Counts)
		assert.Equal(t, stats.Counts{TotalTx: 2, UniqueUsers: 2, DailyUsers: 2}, second.Snapshot.Counts)
		assert.NotEqual(t, first.Snapshot.ID, second.Snapshot.ID)
	})

	t.Run("it syncs on refresh without waiting for the tick", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)
		svc := newService(clock, &captureStore{}, endpoints(node))
		run := startTracker(t, svc)
		run.nextCompleted(t)

		// Act
		svc.Refresh()
		completed := run.nextCompleted(t)

		// Assert
		assert.Equal(t, uint64(1000), completed.Snapshot.ToBlock)
	})
}

// TestServiceEventEmission tests observability and event emission
func TestServiceEventEmission(t *testing.T) {
	t.Parallel()

	t.Run("it emits polling started with the configuration", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)

		// Act
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(node),
			tracker.WithPollInterval(time.Minute),
			tracker.WithLookback(100),
		))
		started := run.nextStarted(t)

		// Assert
		assert.Equal(t, time.Minute, started.Interval)
		assert.Equal(t, uint64(100), started.Lookback)
	})

	t.Run("it emits shutdown events", func(t *testing.T) {
		t.Parallel()

		// Arrange
		clock := newFakeClock()
		node := evmrpctest.NewNode(t, 1000)
		run := startTracker(t, newService(clock, &captureStore{}, endpoints(node)))
		run.nextCompleted(t)

		// Act
		run.cancel()
		<-run.done

		// Assert
		select {
		case shutdown := <-run.shutdown:
			assert.ErrorIs(t, shutdown.Reason, context.Canceled)
		case <-time.After(waitFor):
			t.Fatal("no shutdown event")
		}
	})
}

// Test setup helpers

func gmLog(user common.Address, at time.Time, block uint64) types.Log {
	txHash := common.BigToHash(new(big.Int).SetUint64(block))
	return gmabi.NewLog(contract, user, uint64(at.Unix()), block, txHash) //nolint:gosec // test timestamps are positive
}

func endpoints(nodes ...*evmrpctest.Node) []string {
	urls := make([]string, 0, len(nodes))
	for _, n := range nodes {
		urls = append(urls, n.URL())
	}
	return urls
}

func newService(clock *fakeClock, store tracker.Store, urls []string, opts ...tracker.Option) *tracker.Service {
	pool := evmrpc.NewPool(urls, evmrpc.WithProbeTimeout(time.Second))
	base := []tracker.Option{
		tracker.WithClock(clock),
		tracker.WithLocation(time.UTC),
		tracker.WithChainID(evmrpctest.DefaultChainID),
	}
	return tracker.NewService(tracker.PoolConnector{Pool: pool}, store, contract, append(base, opts...)...)
}

type trackerRun struct {
	cancel    context.CancelFunc
	done      <-chan struct{}
	started   chan tracker.PollingStarted
	completed chan tracker.SyncCompleted
	failed    chan tracker.SyncError
	shutdown  chan tracker.PollingShutdown
}

func startTracker(t *testing.T, svc *tracker.Service) *trackerRun {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())

	events, done := svc.Start(ctx)
	run := &trackerRun{
		cancel:    cancel,
		done:      done,
		started:   make(chan tracker.PollingStarted, 1),
		completed: make(chan tracker.SyncCompleted, 16),
		failed:    make(chan tracker.SyncError, 16),
		shutdown:  make(chan tracker.PollingShutdown, 1),
	}

	closer := tracker.NewSubscriber(events,
		tracker.OnPollingStarted(func(e tracker.PollingStarted) { run.started <- e }),
		tracker.OnSyncCompleted(func(e tracker.SyncCompleted) { run.completed <- e }),
		tracker.OnSyncError(func(e tracker.SyncError) { run.failed <- e }),
		tracker.OnPollingShutdown(func(e tracker.PollingShutdown) { run.shutdown <- e }),
	)
	t.Cleanup(func() {
		cancel()
		<-done
		closer()
	})
	return run
}

func (r *trackerRun) nextStarted(t *testing.T) tracker.PollingStarted {
	t.Helper()
	select {
	case e := <-r.started:
		return e
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for polling started")
		return tracker.PollingStarted{}
	}
}

func (r *trackerRun) nextCompleted(t *testing.T) tracker.SyncCompleted {
	t.Helper()
	select {
	case e := <-r.completed:
		return e
	case e := <-r.failed:
		t.Fatalf("unexpected sync error: %v", e.Err)
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for sync")
	}
	return tracker.SyncCompleted{}
}

func (r *trackerRun) nextError(t *testing.T) tracker.SyncError {
	t.Helper()
	select {
	case e := <-r.failed:
		return e
	case e := <-r.completed:
		t.Fatalf("expected sync error, got snapshot %+v", e.Snapshot.Counts)
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for sync error")
	}
	return tracker.SyncError{}
}

func assertSaved(t *testing.T, store *captureStore, expected stats.Snapshot) {
	t.Helper()
	saved := store.Saved()
	require.NotEmpty(t, saved)
	assert.Equal(t, expected, saved[len(saved)-1])
}

// fakeClock implements Clock interface for deterministic testing
type fakeClock struct {
	tick chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{tick: make(chan time.Time, 10)}
}

func (f *fakeClock) After(_ time.Duration) <-chan time.Time {
	return f.tick
}

func (f *fakeClock) Now() time.Time {
	return now
}

func (f *fakeClock) Tick() {
	f.tick <- now
}

type captureStore struct {
	mu    sync.Mutex
	saved []stats.Snapshot
	err   error
}

func (s *captureStore) SaveSnapshot(_ context.Context, snap stats.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, snap)
	return nil
}

func (s *captureStore) Saved() []stats.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stats.Snapshot(nil), s.saved...)
}
