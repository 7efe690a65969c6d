package telemetry

import (
	"sync"
	"time"
)

// Store holds the current value of each tracked channel. All reads and writes
// go through one mutex, so a snapshot can never observe a torn cross-channel
// state. Updates never block on evaluation; the critical section only covers
// the field copy.
type Store struct {
	mu       sync.Mutex
	speed    float64
	soc      float64
	pressure float64
}

// NewStore creates a store seeded with initial readings. Each initial value
// is validated the same way as a runtime update.
func NewStore(speedKmh, batterySoC, tirePressurePsi float64) (*Store, error) {
	if err := ValidateReading(ChannelSpeed, speedKmh); err != nil {
		return nil, err
	}
	if err := ValidateReading(ChannelBatterySoC, batterySoC); err != nil {
		return nil, err
	}
	if err := ValidateReading(ChannelTirePressure, tirePressurePsi); err != nil {
		return nil, err
	}

	return &Store{
		speed:    speedKmh,
		soc:      batterySoC,
		pressure: tirePressurePsi,
	}, nil
}

// Update validates and stores a new value for a channel. On a validation
// error the store keeps its prior value.
func (s *Store) Update(ch Channel, v float64) error {
	if err := ValidateReading(ch, v); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch ch {
	case ChannelSpeed:
		s.speed = v
	case ChannelBatterySoC:
		s.soc = v
	case ChannelTirePressure:
		s.pressure = v
	}
	return nil
}

// UpdateSpeed stores a new speed reading in km/h.
func (s *Store) UpdateSpeed(v float64) error { return s.Update(ChannelSpeed, v) }

// UpdateBatterySoC stores a new battery state-of-charge percentage.
func (s *Store) UpdateBatterySoC(v float64) error { return s.Update(ChannelBatterySoC, v) }

// UpdateTirePressure stores a new tire pressure reading in psi.
func (s *Store) UpdateTirePressure(v float64) error { return s.Update(ChannelTirePressure, v) }

// Snapshot copies all channel values in one critical section.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		SpeedKmh:        s.speed,
		BatterySoC:      s.soc,
		TirePressurePsi: s.pressure,
	}
	s.mu.Unlock()

	snap.TakenAt = time.Now().UTC()
	return snap
}
