package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telemon/internal/config"
	"telemon/internal/handlers"
	"telemon/internal/logger"
	"telemon/internal/middleware"
	"telemon/internal/monitor"
	"telemon/internal/sink"
	"telemon/internal/source"
	"telemon/internal/state"
	"telemon/internal/stream"
	"telemon/internal/telemetry"
	"telemon/internal/threshold"
)

// Service is the high-level coordinator: it wires config, monitor, scheduler,
// sinks, and the HTTP surface, and owns graceful shutdown.
type Service struct {
	cfg        *config.Config
	monitor    *monitor.Monitor
	scheduler  *monitor.Scheduler
	sinks      *sink.Multi
	kafkaSink  *sink.KafkaSink
	mirror     *state.RedisMirror
	hub        *stream.Hub
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New constructs a Service with given config.
func New(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Run starts background goroutines and blocks until context cancelled.
func (s *Service) Run(ctx context.Context) error {
	log := logger.WithComponent("service")
	log.Info().Msg("service starting")

	if err := s.initMonitor(); err != nil {
		return fmt.Errorf("failed to initialize monitor: %w", err)
	}

	if err := s.initSinks(ctx); err != nil {
		return fmt.Errorf("failed to initialize sinks: %w", err)
	}

	s.initScheduler()
	s.scheduler.Start()

	s.initHTTPServer()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reportStats(ctx)
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return s.shutdown()
}

// initMonitor builds the telemetry core from configuration.
func (s *Service) initMonitor() error {
	mode, err := threshold.ParseMode(s.cfg.CombinationMode)
	if err != nil {
		return fmt.Errorf("combination mode %q: %w", s.cfg.CombinationMode, err)
	}

	m, err := monitor.New(monitor.Config{
		InitialSpeedKmh:        s.cfg.InitialSpeedKmh,
		InitialBatterySoC:      s.cfg.InitialBatterySoC,
		InitialTirePressurePsi: s.cfg.InitialTirePressure,
		Mode:                   mode,
		Thresholds: map[telemetry.Channel]threshold.Bounds{
			telemetry.ChannelSpeed: threshold.SingleBand(s.cfg.SpeedLowKmh, s.cfg.SpeedHighKmh),
			telemetry.ChannelBatterySoC: threshold.LowGuard(
				s.cfg.BatteryWarnLow, s.cfg.BatteryCritLow),
			telemetry.ChannelTirePressure: threshold.TwoTier(
				threshold.Band{Low: s.cfg.TireWarnLowPsi, High: s.cfg.TireWarnHighPsi},
				threshold.Band{Low: s.cfg.TireCritLowPsi, High: s.cfg.TireCritHighPsi},
			),
		},
	})
	if err != nil {
		return err
	}

	s.monitor = m
	slog := logger.WithComponent("service")
	slog.Info().
		Str("mode", mode.String()).
		Msg("monitor initialized")
	return nil
}

// initSinks assembles the alert fan-out: log always, Kafka and Redis and the
// websocket hub when configured.
func (s *Service) initSinks(ctx context.Context) error {
	log := logger.WithComponent("service")

	s.hub = stream.NewHub()
	s.sinks = sink.NewMulti()
	s.sinks.Add("log", sink.NewLogSink())
	s.sinks.Add("stream", s.hub)

	if len(s.cfg.KafkaBrokers) > 0 {
		ks, err := sink.NewKafkaSink(s.cfg.KafkaBrokers, s.cfg.KafkaTopic)
		if err != nil {
			return err
		}
		s.kafkaSink = ks
		s.sinks.Add("kafka", ks)
		log.Info().
			Strs("brokers", s.cfg.KafkaBrokers).
			Str("topic", s.cfg.KafkaTopic).
			Msg("kafka sink initialized")
	}

	if s.cfg.RedisAddr != "" {
		mirror, err := state.NewRedisMirror(ctx, s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB)
		if err != nil {
			return err
		}
		s.mirror = mirror
		s.sinks.Add("redis", mirror)
		log.Info().Str("addr", s.cfg.RedisAddr).Msg("redis mirror initialized")
	}

	return nil
}

// initScheduler wires the polling loop with the simulated source when
// enabled and the snapshot fan-out to the hub and the Redis mirror.
func (s *Service) initScheduler() {
	var src source.Source
	if s.cfg.SimulatorEnabled {
		src = source.NewCANBusSimulator(time.Now().UnixNano())
	}

	s.scheduler = monitor.NewScheduler(monitor.SchedulerConfig{
		Monitor:  s.monitor,
		Sink:     s.sinks,
		Source:   src,
		Interval: s.cfg.PollInterval,
		OnSnapshot: func(ctx context.Context, snap telemetry.Snapshot) {
			s.hub.BroadcastSnapshot(snap)
			if s.mirror != nil {
				if err := s.mirror.MirrorSnapshot(ctx, snap); err != nil {
					slog := logger.WithComponent("service")
					slog.Error().Err(err).Msg("snapshot mirror failed")
				}
			}
		},
	})

	slog := logger.WithComponent("service")
	slog.Info().
		Dur("interval", s.cfg.PollInterval).
		Bool("simulator", s.cfg.SimulatorEnabled).
		Msg("scheduler initialized")
}

// initHTTPServer initializes the HTTP server with handlers
func (s *Service) initHTTPServer() {
	mux := http.NewServeMux()

	api := handlers.NewAPI(s.monitor, s.scheduler)
	api.Register(mux)

	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         ":" + s.cfg.HTTPPort,
		Handler:      middleware.Chain(mux, middleware.Recovery, middleware.Logging),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// shutdown performs graceful shutdown: HTTP first so no new mutations come
// in, then the scheduler so no late sink call happens, then the sinks.
func (s *Service) shutdown() error {
	log := logger.WithComponent("service")
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("stopping HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("stopping scheduler")
	s.scheduler.Stop()

	log.Info().Msg("closing sinks")
	if err := s.sinks.Close(); err != nil {
		log.Error().Err(err).Msg("sink close error")
	}

	s.wg.Wait()
	log.Info().Msg("service stopped gracefully")
	return nil
}

// reportStats periodically logs statistics
func (s *Service) reportStats(ctx context.Context) {
	log := logger.WithComponent("service")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ev := log.Info().
				Bool("running", s.scheduler.Running()).
				Uint64("ticks", s.scheduler.Ticks())

			if s.kafkaSink != nil {
				stats := s.kafkaSink.Stats()
				ev = ev.
					Uint64("kafka_sent", stats.EventsSent).
					Uint64("kafka_failed", stats.EventsFailed)
			}
			ev.Msg("stats")
		}
	}
}

// healthHandler handles health check requests
func (s *Service) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.mirror != nil {
		if err := s.mirror.Ping(ctx); err != nil {
			http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// statsHandler returns current statistics
func (s *Service) statsHandler(w http.ResponseWriter, r *http.Request) {
	var kafkaStats sink.KafkaStats
	if s.kafkaSink != nil {
		kafkaStats = s.kafkaSink.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"scheduler": {
			"running": %t,
			"ticks": %d
		},
		"kafka": {
			"events_sent": %d,
			"events_failed": %d
		}
	}`,
		s.scheduler.Running(),
		s.scheduler.Ticks(),
		kafkaStats.EventsSent,
		kafkaStats.EventsFailed,
	)
}
