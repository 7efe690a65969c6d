package alert

import (
	"encoding/json"

	"telemon/internal/telemetry"
)

// Severity classifies how far a reading has left its safe envelope.
type Severity string

const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Kind is the discrete alert classification. A tagged variant replaces the
// bitmask encoding some monitor generations used, so the multiple-alerts
// case is an explicit value rather than a population-count check.
type Kind string

const (
	KindSpeedHigh        Kind = "SPEED_HIGH"
	KindSpeedLow         Kind = "SPEED_LOW"
	KindBatteryLow       Kind = "BATTERY_LOW"
	KindBatteryHigh      Kind = "BATTERY_HIGH"
	KindTirePressureLow  Kind = "TIRE_PRESSURE_LOW"
	KindTirePressureHigh Kind = "TIRE_PRESSURE_HIGH"
	KindMultipleAlerts   Kind = "MULTIPLE_ALERTS"
)

// direction of a breach relative to the safe band.
type direction uint8

const (
	directionLow direction = iota
	directionHigh
)

func kindFor(ch telemetry.Channel, dir direction) Kind {
	switch ch {
	case telemetry.ChannelSpeed:
		if dir == directionHigh {
			return KindSpeedHigh
		}
		return KindSpeedLow
	case telemetry.ChannelBatterySoC:
		if dir == directionHigh {
			return KindBatteryHigh
		}
		return KindBatteryLow
	case telemetry.ChannelTirePressure:
		if dir == directionHigh {
			return KindTirePressureHigh
		}
		return KindTirePressureLow
	default:
		return KindMultipleAlerts
	}
}

// Alert is one evaluation result. It is a transient value: produced by one
// evaluation, handed to the sink, never retained. For the multiple-alerts
// marker only Kind and Count are meaningful.
type Alert struct {
	Channel  telemetry.Channel `json:"-"`
	Kind     Kind              `json:"kind"`
	Severity Severity          `json:"severity"`
	Value    float64           `json:"value"`
	Bound    float64           `json:"bound"`
	Count    int               `json:"count,omitempty"`
}

// ChannelName is the string form of the channel for serialization; empty for
// the multiple-alerts marker, which spans channels.
func (a Alert) ChannelName() string {
	if a.Kind == KindMultipleAlerts {
		return ""
	}
	return a.Channel.String()
}

// MarshalJSON includes the channel by name.
func (a Alert) MarshalJSON() ([]byte, error) {
	type plain Alert
	return json.Marshal(struct {
		Channel string `json:"channel,omitempty"`
		plain
	}{
		Channel: a.ChannelName(),
		plain:   plain(a),
	})
}
