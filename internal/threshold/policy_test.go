package threshold

import (
	"errors"
	"sync"
	"testing"

	"telemon/internal/telemetry"
)

func validBounds() map[telemetry.Channel]Bounds {
	return map[telemetry.Channel]Bounds{
		telemetry.ChannelSpeed:      SingleBand(0, 120),
		telemetry.ChannelBatterySoC: LowGuard(20, 10),
		telemetry.ChannelTirePressure: TwoTier(
			Band{Low: 28, High: 35},
			Band{Low: 25, High: 40},
		),
	}
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(ModeItemized, validBounds())
	if err != nil {
		t.Fatalf("NewPolicy returned error: %v", err)
	}
	if p.Mode() != ModeItemized {
		t.Errorf("expected itemized mode, got %v", p.Mode())
	}
}

func TestNewPolicy_MissingChannel(t *testing.T) {
	bounds := validBounds()
	delete(bounds, telemetry.ChannelTirePressure)

	if _, err := NewPolicy(ModeItemized, bounds); !errors.Is(err, ErrMissingChannel) {
		t.Errorf("expected ErrMissingChannel, got %v", err)
	}
}

func TestNewPolicy_InvalidBounds(t *testing.T) {
	bounds := validBounds()
	bounds[telemetry.ChannelSpeed] = SingleBand(120, 0)

	if _, err := NewPolicy(ModeItemized, bounds); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("expected ErrInvalidBounds, got %v", err)
	}
}

func TestSetBounds_ReplacesAtomically(t *testing.T) {
	p, err := NewPolicy(ModeItemized, validBounds())
	if err != nil {
		t.Fatalf("NewPolicy returned error: %v", err)
	}

	if err := p.SetBounds(telemetry.ChannelSpeed, SingleBand(10, 90)); err != nil {
		t.Fatalf("SetBounds returned error: %v", err)
	}

	b, ok := p.Bounds(telemetry.ChannelSpeed)
	if !ok {
		t.Fatal("speed bounds missing after update")
	}
	if b.Band.Low != 10 || b.Band.High != 90 {
		t.Errorf("expected band [10, 90], got [%v, %v]", b.Band.Low, b.Band.High)
	}
}

func TestSetBounds_RejectedKeepsPrior(t *testing.T) {
	p, err := NewPolicy(ModeItemized, validBounds())
	if err != nil {
		t.Fatalf("NewPolicy returned error: %v", err)
	}

	if err := p.SetBounds(telemetry.ChannelSpeed, SingleBand(90, 10)); err == nil {
		t.Fatal("expected invalid bounds to be rejected")
	}

	b, _ := p.Bounds(telemetry.ChannelSpeed)
	if b.Band.Low != 0 || b.Band.High != 120 {
		t.Errorf("prior bounds not preserved: got [%v, %v]", b.Band.Low, b.Band.High)
	}
}

func TestSetBounds_UnknownChannel(t *testing.T) {
	p, err := NewPolicy(ModeItemized, validBounds())
	if err != nil {
		t.Fatalf("NewPolicy returned error: %v", err)
	}

	if err := p.SetBounds(telemetry.Channel(42), SingleBand(0, 1)); !errors.Is(err, telemetry.ErrUnknownChannel) {
		t.Errorf("expected ErrUnknownChannel, got %v", err)
	}
}

// A view must never observe a half-applied bounds replacement: each view of a
// channel is wholly old or wholly new.
func TestView_NoTornBounds(t *testing.T) {
	p, err := NewPolicy(ModeItemized, validBounds())
	if err != nil {
		t.Fatalf("NewPolicy returned error: %v", err)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		pairs := [][2]float64{{0, 120}, {50, 160}}
		for i := 0; i < 2000; i++ {
			pair := pairs[i%2]
			if err := p.SetBounds(telemetry.ChannelSpeed, SingleBand(pair[0], pair[1])); err != nil {
				t.Errorf("SetBounds failed: %v", err)
				return
			}
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}

		view := p.View()
		b := view.Bounds[telemetry.ChannelSpeed]
		ok := (b.Band.Low == 0 && b.Band.High == 120) || (b.Band.Low == 50 && b.Band.High == 160)
		if !ok {
			t.Fatalf("observed torn bounds: [%v, %v]", b.Band.Low, b.Band.High)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("itemized"); err != nil || m != ModeItemized {
		t.Errorf("ParseMode(itemized) = %v, %v", m, err)
	}
	if m, err := ParseMode("summarized"); err != nil || m != ModeSummarized {
		t.Errorf("ParseMode(summarized) = %v, %v", m, err)
	}
	if _, err := ParseMode("both"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}
