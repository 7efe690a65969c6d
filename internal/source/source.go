package source

import (
	"context"
	"math/rand"
	"sync"
)

// Sample is one pull from a telemetry source: a value for every channel.
type Sample struct {
	SpeedKmh        float64
	BatterySoC      float64
	TirePressurePsi float64
}

// Source is an opaque telemetry producer the scheduler polls once per tick.
type Source interface {
	Read(ctx context.Context) (Sample, error)
}

// CANBusSimulator generates plausible vehicle telemetry: a speed ramp that
// wraps around, a slowly draining battery with occasional rapid drops, and
// tire pressure drifting around nominal with rare deflation events. All
// simulation state lives on the struct, so two simulators never interfere.
type CANBusSimulator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	tick int

	speed    float64
	soc      float64
	pressure float64
}

// NewCANBusSimulator seeds a simulator; the same seed replays the same drive.
func NewCANBusSimulator(seed int64) *CANBusSimulator {
	return &CANBusSimulator{
		rng:      rand.New(rand.NewSource(seed)),
		speed:    50,
		soc:      95,
		pressure: 32,
	}
}

// Read advances the simulation one step and returns the new sample.
func (s *CANBusSimulator) Read(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++

	// Speed ramps up 10 km/h every fifth read and wraps back down.
	if s.tick%5 == 0 {
		s.speed += 10
		if s.speed > 150 {
			s.speed = 50
		}
	}

	// Battery drains slowly; roughly one read in fifty drops sharply.
	s.soc -= 0.02
	if s.rng.Intn(50) == 0 {
		s.soc -= 3
	}
	if s.soc < 0 {
		s.soc = 0
	}

	// Tire pressure drifts around nominal; rare sudden deflation.
	s.pressure += (s.rng.Float64() - 0.5) * 0.2
	if s.rng.Intn(200) == 0 {
		s.pressure -= 6
	}
	if s.pressure < 0 {
		s.pressure = 0
	}

	return Sample{
		SpeedKmh:        s.speed,
		BatterySoC:      s.soc,
		TirePressurePsi: s.pressure,
	}, nil
}
