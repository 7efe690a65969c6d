package telemetry

import (
	"errors"
	"math"
	"time"
)

// Channel identifies one monitored sensor quantity. The declaration order is
// the evaluation order, so alert output is deterministic for identical input.
type Channel uint8

const (
	ChannelSpeed Channel = iota
	ChannelBatterySoC
	ChannelTirePressure
)

// Channels lists all tracked channels in evaluation order.
var Channels = [...]Channel{ChannelSpeed, ChannelBatterySoC, ChannelTirePressure}

func (c Channel) String() string {
	switch c {
	case ChannelSpeed:
		return "speed"
	case ChannelBatterySoC:
		return "battery_soc"
	case ChannelTirePressure:
		return "tire_pressure"
	default:
		return "unknown"
	}
}

// ParseChannel maps a channel name to its Channel value.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "speed":
		return ChannelSpeed, nil
	case "battery_soc":
		return ChannelBatterySoC, nil
	case "tire_pressure":
		return ChannelTirePressure, nil
	default:
		return 0, ErrUnknownChannel
	}
}

// Validation errors
var (
	ErrUnknownChannel   = errors.New("unknown telemetry channel")
	ErrNonFiniteReading = errors.New("reading must be a finite number")
	ErrSoCOutOfRange    = errors.New("battery SoC must be between 0 and 100")
	ErrNegativePressure = errors.New("tire pressure cannot be negative")
)

const (
	MinBatterySoC = 0.0
	MaxBatterySoC = 100.0
)

// ValidateReading checks that a value is representable on the given channel.
// Out-of-range readings are rejected rather than clamped so that a faulty
// producer is visible instead of silently corrected.
func ValidateReading(ch Channel, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrNonFiniteReading
	}

	switch ch {
	case ChannelSpeed:
		return nil
	case ChannelBatterySoC:
		if v < MinBatterySoC || v > MaxBatterySoC {
			return ErrSoCOutOfRange
		}
		return nil
	case ChannelTirePressure:
		if v < 0 {
			return ErrNegativePressure
		}
		return nil
	default:
		return ErrUnknownChannel
	}
}

// Snapshot is an immutable point-in-time copy of all channel values, captured
// under a single critical section. The values are mutually consistent with
// respect to store locking, not physically simultaneous sensor samples.
type Snapshot struct {
	SpeedKmh        float64   `json:"speed_kmh"`
	BatterySoC      float64   `json:"battery_soc"`
	TirePressurePsi float64   `json:"tire_pressure_psi"`
	TakenAt         time.Time `json:"taken_at"`
}

// Value returns the snapshot value for a channel.
func (s Snapshot) Value(ch Channel) float64 {
	switch ch {
	case ChannelSpeed:
		return s.SpeedKmh
	case ChannelBatterySoC:
		return s.BatterySoC
	case ChannelTirePressure:
		return s.TirePressurePsi
	default:
		return 0
	}
}
