package monitor

import (
	"time"

	"telemon/internal/alert"
	"telemon/internal/metrics"
	"telemon/internal/source"
	"telemon/internal/telemetry"
	"telemon/internal/threshold"
)

// Config holds construction parameters for a Monitor.
type Config struct {
	InitialSpeedKmh        float64
	InitialBatterySoC      float64
	InitialTirePressurePsi float64

	Thresholds map[telemetry.Channel]threshold.Bounds
	Mode       threshold.Mode
}

// Monitor is the live-state core: a thread-safe telemetry store plus a
// runtime-reconfigurable threshold policy, evaluated on demand. The store
// and the policy have independent locks and are never locked together.
type Monitor struct {
	store  *telemetry.Store
	policy *threshold.Policy
}

// New validates the initial readings and thresholds and builds a monitor.
// Any configuration error is surfaced here, never mid-evaluation.
func New(cfg Config) (*Monitor, error) {
	store, err := telemetry.NewStore(cfg.InitialSpeedKmh, cfg.InitialBatterySoC, cfg.InitialTirePressurePsi)
	if err != nil {
		return nil, err
	}

	policy, err := threshold.NewPolicy(cfg.Mode, cfg.Thresholds)
	if err != nil {
		return nil, err
	}

	return &Monitor{store: store, policy: policy}, nil
}

// Update validates and applies one channel reading.
func (m *Monitor) Update(ch telemetry.Channel, v float64) error {
	if err := m.store.Update(ch, v); err != nil {
		metrics.ReadingRejectionsTotal.WithLabelValues(ch.String()).Inc()
		return err
	}
	metrics.ReadingUpdatesTotal.WithLabelValues(ch.String()).Inc()
	return nil
}

// UpdateSpeed applies a new speed reading in km/h.
func (m *Monitor) UpdateSpeed(v float64) error { return m.Update(telemetry.ChannelSpeed, v) }

// UpdateBatterySoC applies a new battery state-of-charge percentage.
func (m *Monitor) UpdateBatterySoC(v float64) error { return m.Update(telemetry.ChannelBatterySoC, v) }

// UpdateTirePressure applies a new tire pressure reading in psi.
func (m *Monitor) UpdateTirePressure(v float64) error {
	return m.Update(telemetry.ChannelTirePressure, v)
}

// Apply updates all channels from one source sample. The first validation
// error is returned; remaining channels are still applied.
func (m *Monitor) Apply(sample source.Sample) error {
	var firstErr error
	for _, u := range []struct {
		ch telemetry.Channel
		v  float64
	}{
		{telemetry.ChannelSpeed, sample.SpeedKmh},
		{telemetry.ChannelBatterySoC, sample.BatterySoC},
		{telemetry.ChannelTirePressure, sample.TirePressurePsi},
	} {
		if err := m.Update(u.ch, u.v); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SetThreshold validates and atomically replaces one channel's bounds.
func (m *Monitor) SetThreshold(ch telemetry.Channel, b threshold.Bounds) error {
	if err := m.policy.SetBounds(ch, b); err != nil {
		metrics.ThresholdUpdatesTotal.WithLabelValues(ch.String(), "rejected").Inc()
		return err
	}
	metrics.ThresholdUpdatesTotal.WithLabelValues(ch.String(), "applied").Inc()
	return nil
}

// Thresholds returns a consistent copy of the current policy.
func (m *Monitor) Thresholds() threshold.View { return m.policy.View() }

// Snapshot returns a consistent copy of all channel readings.
func (m *Monitor) Snapshot() telemetry.Snapshot { return m.store.Snapshot() }

// Evaluate runs the evaluator over a snapshot and the current policy view.
func (m *Monitor) Evaluate(snap telemetry.Snapshot) []alert.Alert {
	start := time.Now()
	alerts := alert.Evaluate(snap, m.policy.View())
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	metrics.EvaluationsTotal.Inc()

	for _, a := range alerts {
		metrics.AlertsTotal.WithLabelValues(alertChannelLabel(a), string(a.Severity)).Inc()
	}
	return alerts
}

// CheckAlerts evaluates the latest snapshot on demand.
func (m *Monitor) CheckAlerts() []alert.Alert {
	return m.Evaluate(m.Snapshot())
}

func alertChannelLabel(a alert.Alert) string {
	if a.Kind == alert.KindMultipleAlerts {
		return "multiple"
	}
	return a.Channel.String()
}
