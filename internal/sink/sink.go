package sink

import (
	"context"
	"time"

	"github.com/google/uuid"

	"telemon/internal/alert"
	"telemon/internal/logger"
	"telemon/internal/metrics"
)

// Event wraps an alert with dispatch metadata. Evaluation output stays a
// pure value; identity and emission time are stamped here, at the boundary.
type Event struct {
	ID        string      `json:"id"`
	EmittedAt time.Time   `json:"emitted_at"`
	Alert     alert.Alert `json:"alert"`
}

// NewEvent stamps an alert for dispatch.
func NewEvent(a alert.Alert) Event {
	return Event{
		ID:        uuid.New().String(),
		EmittedAt: time.Now().UTC(),
		Alert:     a,
	}
}

// Sink receives the alerts produced by one evaluation. The scheduler invokes
// Dispatch synchronously on its own loop, so implementations must not block
// indefinitely or they stall the tick cadence.
type Sink interface {
	Dispatch(ctx context.Context, alerts []alert.Alert) error
	Close() error
}

// Func adapts a plain callback into a Sink.
type Func func(ctx context.Context, alerts []alert.Alert) error

func (f Func) Dispatch(ctx context.Context, alerts []alert.Alert) error { return f(ctx, alerts) }
func (f Func) Close() error                                             { return nil }

// LogSink writes every alert to the structured log.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Dispatch(ctx context.Context, alerts []alert.Alert) error {
	log := logger.WithComponent("alert_sink")
	for _, a := range alerts {
		log.Warn().
			Str("kind", string(a.Kind)).
			Str("severity", string(a.Severity)).
			Str("channel", a.ChannelName()).
			Float64("value", a.Value).
			Float64("bound", a.Bound).
			Int("count", a.Count).
			Msg("alert")
	}
	return nil
}

func (s *LogSink) Close() error { return nil }

// Multi fans alerts out to several sinks. Every sink is attempted; the first
// error is returned after the fan-out completes.
type Multi struct {
	sinks []Sink
	names []string
}

func NewMulti() *Multi { return &Multi{} }

// Add registers a named sink for fan-out.
func (m *Multi) Add(name string, s Sink) {
	m.sinks = append(m.sinks, s)
	m.names = append(m.names, name)
}

func (m *Multi) Dispatch(ctx context.Context, alerts []alert.Alert) error {
	var firstErr error
	for i, s := range m.sinks {
		if err := s.Dispatch(ctx, alerts); err != nil {
			metrics.SinkDispatchFailures.WithLabelValues(m.names[i]).Inc()
			log := logger.WithComponent("alert_sink")
			log.Error().
				Err(err).
				Str("sink", m.names[i]).
				Msg("sink dispatch failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
