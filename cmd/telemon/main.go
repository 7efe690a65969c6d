package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"telemon/internal/config"
	"telemon/internal/logger"
	"telemon/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel on termination signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Logger.Info().Msg("shutting down")
		cancel()
	}()

	svc := service.New(cfg)
	if err := svc.Run(ctx); err != nil {
		logger.Logger.Fatal().Err(err).Msg("service exited")
	}
}
