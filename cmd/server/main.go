package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/h15s/gmtea/cmd/server/config"
	"github.com/h15s/gmtea/migrator"
	"github.com/h15s/gmtea/pkg/clock"
	"github.com/h15s/gmtea/pkg/evmrpc"
	"github.com/h15s/gmtea/pkg/logger"
	"github.com/h15s/gmtea/pkg/network"
	"github.com/h15s/gmtea/pkg/pgxdb"
	"github.com/h15s/gmtea/sender"
	"github.com/h15s/gmtea/store/memstore"
	"github.com/h15s/gmtea/store/pgxstore"
	"github.com/h15s/gmtea/tracker"
	"github.com/h15s/gmtea/web/gm"
	"github.com/h15s/gmtea/web/handler"
	"github.com/h15s/gmtea/web/handler/bind"
	"github.com/h15s/gmtea/web/live"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

// snapshotStore is what both store implementations provide
type snapshotStore interface {
	tracker.Store
	gm.LatestFinder
	gm.SnapshotsFinder
}

func main() {
	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "gm tea server starting",
		slog.String("version", version),
		slog.String("date", date),
	)

	gmNet, err := network.Load(cfg.NetworkFile)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load network", slog.Any("error", err))
		os.Exit(1)
	}
	gmNet = gmNet.WithRPCURLs(cfg.RPCURLs)

	loc, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load timezone", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		os.Exit(1)
	}

	key, err := sender.ParseKey(cfg.PrivateKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to parse private key", slog.Any("error", err))
		os.Exit(1)
	}

	store, storeCloser, err := openStore(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open snapshot store", slog.Any("error", err))
		os.Exit(1)
	}
	defer storeCloser()

	// One endpoint pool serves both reads and sends
	pool := evmrpc.NewPool(gmNet.RPCURLs, evmrpc.WithProbeTimeout(cfg.ProbeTimeout))

	hub := live.NewHub(log)

	board := handler.NewStatusBoard(func(s sender.Status) {
		log.InfoContext(ctx, "gm status", slog.String("stage", string(s.Stage)), slog.String("message", s.Message))
		if err := hub.Publish(live.KindStatus, bind.GetGMStatusResponse(s)); err != nil {
			log.ErrorContext(ctx, "Failed to publish status", slog.Any("error", err))
		}
	})

	gmSender := sender.New(sender.PoolConnector{Pool: pool}, key, gmNet,
		sender.WithConfirmTimeout(cfg.ConfirmTimeout),
	)
	if !gmSender.HasWallet() {
		log.WarnContext(ctx, "GM_PRIVATE_KEY is not set, sends will report a missing wallet")
	}

	// Create tracker service
	trackerService := tracker.NewService(
		tracker.PoolConnector{Pool: pool},
		store,
		gmNet.Contract,
		tracker.WithClock(clock.SystemClock{Location: loc}),
		tracker.WithPollInterval(cfg.PollInterval),
		tracker.WithLookback(gmNet.LookbackBlocks),
		tracker.WithChunkSize(cfg.ChunkSize),
		tracker.WithLocation(loc),
		tracker.WithChainID(gmNet.ChainID),
	)

	log.InfoContext(ctx, "Starting GMed tracker",
		slog.String("network", gmNet.Name),
		slog.String("contract", gmNet.Contract.Hex()),
		slog.Int("endpoints", len(gmNet.RPCURLs)),
	)
	events, done := trackerService.Start(ctx)

	subCloser := setupEventLogging(ctx, events, log, hub, gmNet)

	send := handler.NewGMSend(ctx, gmSender, board)
	router := handler.NewRouter(log,
		handler.NewPage(store, board, gmSender, gmNet),
		handler.NewStatsGet(store, gmNet),
		handler.NewStatsHistory(store, gmNet, loc),
		send,
		hub,
	)

	addr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.InfoContext(ctx, "Server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Server failed to start", slog.Any("error", err))
			stop()
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	log.InfoContext(ctx, "Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Server forced to shutdown", slog.Any("error", err))
	}

	// websocket connections are hijacked and not tracked by Shutdown
	hub.Close()
	send.Wait()

	<-done
	subCloser()
	log.InfoContext(ctx, "Server exited gracefully")
}

// openStore picks PostgreSQL when a database URL is configured and memory otherwise
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (snapshotStore, func(), error) {
	if cfg.DatabaseURL == "" {
		log.InfoContext(ctx, "Keeping snapshots in memory", slog.Int("capacity", cfg.HistorySize))
		return memstore.New(memstore.WithCapacity(cfg.HistorySize)), func() {}, nil
	}

	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	log.InfoContext(ctx, "Applying database migrations")
	applied, err := migrator.ApplyMigrations(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.InfoContext(ctx, "Database migrations applied", slog.Int("applied", applied))

	// the closer owns the pool from here on
	store, storeCloser := pgxstore.New(db)
	return store, storeCloser, nil
}

// setupEventLogging logs tracker events and pushes every snapshot to the live feed
func setupEventLogging(ctx context.Context, events <-chan tracker.Event, log *slog.Logger, hub *live.Hub, n network.Network) func() {
	return tracker.NewSubscriber(events,
		tracker.OnPollingStarted(func(event tracker.PollingStarted) {
			log.InfoContext(ctx, "Polling started",
				slog.Duration("interval", event.Interval),
				slog.Uint64("lookback", event.Lookback),
			)
		}),
		tracker.OnSyncCompleted(func(event tracker.SyncCompleted) {
			snap := event.Snapshot
			log.InfoContext(ctx, "Sync completed",
				slog.Int("totalTx", snap.Counts.TotalTx),
				slog.Int("uniqueUsers", snap.Counts.UniqueUsers),
				slog.Int("dailyUsers", snap.Counts.DailyUsers),
				slog.Uint64("fromBlock", snap.FromBlock),
				slog.Uint64("toBlock", snap.ToBlock),
				slog.String("endpoint", snap.Endpoint),
				slog.Int("requests", event.Fetched),
				slog.Duration("duration", event.Duration),
			)
			if err := hub.Publish(live.KindStats, bind.GetStatsResponse(snap, n)); err != nil {
				log.ErrorContext(ctx, "Failed to publish stats", slog.Any("error", err))
			}
		}),
		tracker.OnSyncError(func(event tracker.SyncError) {
			log.ErrorContext(ctx, "Sync failed", slog.Any("error", event.Err))
		}),
		tracker.OnPollingShutdown(func(event tracker.PollingShutdown) {
			log.InfoContext(ctx, "Polling stopped",
				slog.String("reason", event.Reason.Error()),
			)
		}),
	)
}
