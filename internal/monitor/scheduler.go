package monitor

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"telemon/internal/logger"
	"telemon/internal/metrics"
	"telemon/internal/sink"
	"telemon/internal/source"
	"telemon/internal/telemetry"
)

const defaultInterval = 100 * time.Millisecond

// SchedulerConfig holds scheduler construction parameters. Source and
// OnSnapshot are optional; Sink receives alerts synchronously on the loop,
// so a slow sink delays the next tick.
type SchedulerConfig struct {
	Monitor    *Monitor
	Sink       sink.Sink
	Source     source.Source
	OnSnapshot func(ctx context.Context, snap telemetry.Snapshot)
	Interval   time.Duration
}

// Scheduler runs the periodic poll-evaluate-dispatch loop. Start and Stop
// are idempotent; Stop blocks until the loop has fully exited, so no sink
// call can happen after Stop returns.
type Scheduler struct {
	monitor    *Monitor
	sink       sink.Sink
	src        source.Source
	onSnapshot func(ctx context.Context, snap telemetry.Snapshot)
	interval   time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	ticks atomic.Uint64
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	return &Scheduler{
		monitor:    cfg.Monitor,
		sink:       cfg.Sink,
		src:        cfg.Source,
		onSnapshot: cfg.OnSnapshot,
		interval:   cfg.Interval,
	}
}

// Start launches the polling loop. A no-op when already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go s.loop(s.stop)

	log := logger.WithComponent("scheduler")
	log.Info().
		Dur("interval", s.interval).
		Msg("scheduler started")
}

// Stop signals the loop to exit and waits for it. A no-op when already
// stopped. After Stop returns, the sink receives no further calls.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	log := logger.WithComponent("scheduler")
	log.Info().Msg("scheduler stopped")
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Ticks returns the number of completed ticks across all runs.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

func (s *Scheduler) loop(stop <-chan struct{}) {
	defer s.wg.Done()

	log := logger.WithComponent("scheduler")

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("scheduler panic recovered")
			metrics.PanicsRecovered.WithLabelValues("scheduler").Inc()
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick polls the source, mirrors the snapshot, evaluates, and dispatches.
func (s *Scheduler) tick() {
	log := logger.WithComponent("scheduler")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.ticks.Add(1)
	metrics.SchedulerTicksTotal.Inc()

	if s.src != nil {
		sample, err := s.src.Read(ctx)
		if err != nil {
			log.Error().Err(err).Msg("source read failed")
		} else if err := s.monitor.Apply(sample); err != nil {
			log.Warn().Err(err).Msg("source sample rejected")
		}
	}

	snap := s.monitor.Snapshot()
	if s.onSnapshot != nil {
		s.onSnapshot(ctx, snap)
	}

	alerts := s.monitor.Evaluate(snap)
	if len(alerts) == 0 {
		return
	}

	start := time.Now()
	err := s.sink.Dispatch(ctx, alerts)
	metrics.SinkDispatchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		log.Error().
			Err(err).
			Int("alerts", len(alerts)).
			Msg("alert dispatch failed")
	}
}
