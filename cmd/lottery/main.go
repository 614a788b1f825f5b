package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lottery/internal/config"
	"lottery/internal/logger"
	"lottery/internal/lottery"
	"lottery/internal/server"
	"lottery/internal/storage"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lottery: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := pflag.String("env-file", ".env", "Path to the environment file")
	listenAddr := pflag.String("listen", "", "HTTP listen address (overrides LOTTERY_LISTEN_ADDR)")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug logging")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	err = logger.Initialize(logger.Configuration{
		LogFile:   cfg.LogFile,
		ErrorFile: cfg.ErrorFile,
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	sqliteStorage, err := storage.NewSqliteStorage(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = sqliteStorage.Close() }()

	engine, err := lottery.NewEngine(lottery.Config{
		Storage:   sqliteStorage,
		ProgramID: cfg.ProgramID,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	state, err := engine.State(ctx)
	if errors.Is(err, lottery.ErrNotInitialized) {
		state, err = engine.Initialize(ctx, lottery.InitializeParams{Admin: cfg.Admin})
	}
	if err != nil {
		return err
	}
	if !state.Admin.Equals(cfg.Admin) {
		logger.Warn("lottery state belongs to another admin",
			logger.Address("configured", cfg.Admin),
			logger.Address("recorded", state.Admin),
		)
	}

	logger.Info("lottery ready",
		logger.Address("state", state.Address),
		logger.Address("custody", state.Custody.Address),
		zap.Uint64("round", state.CurrentRound),
		zap.Bool("airdrop", cfg.AllowAirdrop),
	)

	srv, err := server.New(server.Config{
		Engine:       engine,
		ListenAddr:   cfg.ListenAddr,
		AllowAirdrop: cfg.AllowAirdrop,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested")
		return nil
	})
	return g.Wait()
}
