package threshold

import (
	"errors"
	"fmt"
	"math"
)

// Configuration errors
var (
	ErrInvalidBounds  = errors.New("invalid threshold bounds")
	ErrUnknownShape   = errors.New("unknown bounds shape")
	ErrUnknownMode    = errors.New("unknown combination mode")
	ErrMissingChannel = errors.New("no bounds configured for channel")
)

// Unbounded marks a side of a band that never triggers. Use +Unbounded for a
// missing high bound and -Unbounded for a missing low bound.
const Unbounded = math.MaxFloat64

// Band is a closed safe interval; values inside [Low, High] raise no alert.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func (b Band) valid() bool {
	return !math.IsNaN(b.Low) && !math.IsNaN(b.High) && b.Low < b.High
}

func (b Band) contains(other Band) bool {
	return b.Low <= other.Low && other.High <= b.High
}

// Shape selects how a channel's bounds are interpreted.
type Shape uint8

const (
	// ShapeSingleBand has one safe band; breaching it is always critical.
	ShapeSingleBand Shape = iota
	// ShapeTwoTier has a warning band nested inside a critical band.
	ShapeTwoTier
)

func (s Shape) String() string {
	switch s {
	case ShapeSingleBand:
		return "single_band"
	case ShapeTwoTier:
		return "two_tier"
	default:
		return "unknown"
	}
}

// Bounds is the threshold configuration for one channel: either a single safe
// band, or a warning band nested inside a critical band. One-sided channels
// (e.g. battery SoC, where only low is bad) leave the open side Unbounded.
type Bounds struct {
	Shape    Shape `json:"shape"`
	Band     Band  `json:"band,omitempty"`
	Warning  Band  `json:"warning,omitempty"`
	Critical Band  `json:"critical,omitempty"`
}

// SingleBand builds single-band bounds: below low or above high alerts.
func SingleBand(low, high float64) Bounds {
	return Bounds{Shape: ShapeSingleBand, Band: Band{Low: low, High: high}}
}

// TwoTier builds two-tier bounds with warning nested inside critical.
func TwoTier(warning, critical Band) Bounds {
	return Bounds{Shape: ShapeTwoTier, Warning: warning, Critical: critical}
}

// LowGuard builds two-tier bounds for a low-is-bad channel with no upper
// limits, e.g. battery state of charge.
func LowGuard(warnLow, critLow float64) Bounds {
	return TwoTier(
		Band{Low: warnLow, High: Unbounded},
		Band{Low: critLow, High: Unbounded},
	)
}

// Validate checks the ordering invariants: a single band must be ordered, and
// a two-tier critical band must contain the warning band. Violating bounds
// are rejected at construction and on update, never applied.
func (b Bounds) Validate() error {
	switch b.Shape {
	case ShapeSingleBand:
		if !b.Band.valid() {
			return fmt.Errorf("%w: band low %v must be below high %v",
				ErrInvalidBounds, b.Band.Low, b.Band.High)
		}
		return nil
	case ShapeTwoTier:
		if !b.Warning.valid() {
			return fmt.Errorf("%w: warning low %v must be below high %v",
				ErrInvalidBounds, b.Warning.Low, b.Warning.High)
		}
		if !b.Critical.valid() {
			return fmt.Errorf("%w: critical low %v must be below high %v",
				ErrInvalidBounds, b.Critical.Low, b.Critical.High)
		}
		if !b.Critical.contains(b.Warning) {
			return fmt.Errorf("%w: critical band [%v, %v] must contain warning band [%v, %v]",
				ErrInvalidBounds, b.Critical.Low, b.Critical.High, b.Warning.Low, b.Warning.High)
		}
		return nil
	default:
		return ErrUnknownShape
	}
}
