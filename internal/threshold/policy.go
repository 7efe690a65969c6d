package threshold

import (
	"fmt"
	"sync"

	"telemon/internal/telemetry"
)

// Mode governs how simultaneous breaches across channels are reported.
type Mode uint8

const (
	// ModeItemized reports every breached channel individually.
	ModeItemized Mode = iota
	// ModeSummarized collapses more than one breach into a single
	// multiple-alerts marker.
	ModeSummarized
)

func (m Mode) String() string {
	switch m {
	case ModeItemized:
		return "itemized"
	case ModeSummarized:
		return "summarized"
	default:
		return "unknown"
	}
}

// ParseMode maps a mode name to its Mode value.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "itemized":
		return ModeItemized, nil
	case "summarized":
		return ModeSummarized, nil
	default:
		return 0, ErrUnknownMode
	}
}

// Policy holds per-channel bounds and the combination mode. Bounds are
// replaced atomically under a RWMutex, so an evaluation sees either wholly
// the old or wholly the new configuration for a channel, never a mix.
type Policy struct {
	mu     sync.RWMutex
	mode   Mode
	bounds map[telemetry.Channel]Bounds
}

// NewPolicy validates every configured bound and builds a policy. Each
// tracked channel must have bounds.
func NewPolicy(mode Mode, bounds map[telemetry.Channel]Bounds) (*Policy, error) {
	if mode != ModeItemized && mode != ModeSummarized {
		return nil, ErrUnknownMode
	}

	own := make(map[telemetry.Channel]Bounds, len(bounds))
	for _, ch := range telemetry.Channels {
		b, ok := bounds[ch]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingChannel, ch)
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch, err)
		}
		own[ch] = b
	}

	return &Policy{mode: mode, bounds: own}, nil
}

// SetBounds validates and atomically replaces the bounds for one channel. On
// a validation error the prior bounds are kept.
func (p *Policy) SetBounds(ch telemetry.Channel, b Bounds) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("channel %s: %w", ch, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.bounds[ch]; !ok {
		return telemetry.ErrUnknownChannel
	}
	p.bounds[ch] = b
	return nil
}

// Bounds returns the current bounds for a channel.
func (p *Policy) Bounds(ch telemetry.Channel) (Bounds, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.bounds[ch]
	return b, ok
}

// Mode returns the combination mode.
func (p *Policy) Mode() Mode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// View is a consistent value copy of the whole policy, used for exactly one
// evaluation and never retained.
type View struct {
	Mode   Mode
	Bounds map[telemetry.Channel]Bounds
}

// View captures the mode and all bounds under one read lock.
func (p *Policy) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()

	bounds := make(map[telemetry.Channel]Bounds, len(p.bounds))
	for ch, b := range p.bounds {
		bounds[ch] = b
	}
	return View{Mode: p.mode, Bounds: bounds}
}
