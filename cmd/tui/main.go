package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/h15s/gmtea/cmd/tui/config"
	"github.com/h15s/gmtea/pkg/clock"
	"github.com/h15s/gmtea/pkg/evmrpc"
	"github.com/h15s/gmtea/pkg/logger"
	"github.com/h15s/gmtea/pkg/network"
	"github.com/h15s/gmtea/sender"
	"github.com/h15s/gmtea/store/memstore"
	"github.com/h15s/gmtea/tracker"
	"github.com/h15s/gmtea/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gmtea-tui:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	log := logger.New(logFile, logger.Config{LogLevel: cfg.LogLevel})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gmNet, err := network.Load(cfg.NetworkFile)
	if err != nil {
		return err
	}
	gmNet = gmNet.WithRPCURLs(cfg.RPCURLs)

	loc, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	key, err := sender.ParseKey(cfg.PrivateKey)
	if err != nil {
		return err
	}

	pool := evmrpc.NewPool(gmNet.RPCURLs, evmrpc.WithProbeTimeout(cfg.ProbeTimeout))

	gmSender := sender.New(sender.PoolConnector{Pool: pool}, key, gmNet,
		sender.WithConfirmTimeout(cfg.ConfirmTimeout),
	)

	trackerService := tracker.NewService(
		tracker.PoolConnector{Pool: pool},
		memstore.New(),
		gmNet.Contract,
		tracker.WithClock(clock.SystemClock{Location: loc}),
		tracker.WithPollInterval(cfg.PollInterval),
		tracker.WithLookback(gmNet.LookbackBlocks),
		tracker.WithChunkSize(cfg.ChunkSize),
		tracker.WithLocation(loc),
		tracker.WithChainID(gmNet.ChainID),
	)

	trackerCtx, stopTracker := context.WithCancel(ctx)
	defer stopTracker()
	events, done := trackerService.Start(trackerCtx)

	program := tea.NewProgram(
		tui.New(ctx, gmSender, trackerService, gmNet),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	subCloser := tracker.NewSubscriber(events,
		tracker.OnSyncCompleted(func(event tracker.SyncCompleted) {
			log.Info("Sync completed", slog.Int("totalTx", event.Snapshot.Counts.TotalTx))
			program.Send(tui.StatsMsg{Snapshot: event.Snapshot})
		}),
		tracker.OnSyncError(func(event tracker.SyncError) {
			log.Error("Sync failed", slog.Any("error", event.Err))
			program.Send(tui.SyncErrorMsg{Err: event.Err})
		}),
		tracker.OnPollingShutdown(func(event tracker.PollingShutdown) {
			log.Info("Polling stopped", slog.String("reason", event.Reason.Error()))
		}),
	)

	_, runErr := program.Run()

	stopTracker()
	<-done
	subCloser()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}
