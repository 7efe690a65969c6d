package threshold

import (
	"errors"
	"math"
	"testing"
)

func TestSingleBandValidate(t *testing.T) {
	tests := []struct {
		name    string
		low     float64
		high    float64
		wantErr bool
	}{
		{"ordered", 50, 160, false},
		{"reversed", 160, 50, true},
		{"equal", 100, 100, true},
		{"nan low", math.NaN(), 100, true},
		{"open low side", -Unbounded, 120, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SingleBand(tt.low, tt.high).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBounds) {
				t.Errorf("expected ErrInvalidBounds, got %v", err)
			}
		})
	}
}

func TestTwoTierValidate(t *testing.T) {
	tests := []struct {
		name     string
		warning  Band
		critical Band
		wantErr  bool
	}{
		{
			"nested",
			Band{Low: 28, High: 35},
			Band{Low: 25, High: 40},
			false,
		},
		{
			"warning escapes critical low",
			Band{Low: 20, High: 35},
			Band{Low: 25, High: 40},
			true,
		},
		{
			"warning escapes critical high",
			Band{Low: 28, High: 45},
			Band{Low: 25, High: 40},
			true,
		},
		{
			"reversed warning",
			Band{Low: 35, High: 28},
			Band{Low: 25, High: 40},
			true,
		},
		{
			"reversed critical",
			Band{Low: 28, High: 35},
			Band{Low: 40, High: 25},
			true,
		},
		{
			"equal bands allowed",
			Band{Low: 25, High: 40},
			Band{Low: 25, High: 40},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TwoTier(tt.warning, tt.critical).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLowGuard(t *testing.T) {
	b := LowGuard(20, 10)
	if err := b.Validate(); err != nil {
		t.Fatalf("LowGuard should validate: %v", err)
	}
	if b.Warning.Low != 20 || b.Critical.Low != 10 {
		t.Errorf("unexpected low bounds: warning %v, critical %v", b.Warning.Low, b.Critical.Low)
	}

	// An inverted guard (critical above warning) must be rejected.
	if err := LowGuard(10, 20).Validate(); err == nil {
		t.Error("expected inverted low guard to be rejected")
	}
}

func TestUnknownShape(t *testing.T) {
	b := Bounds{Shape: Shape(99)}
	if err := b.Validate(); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("expected ErrUnknownShape, got %v", err)
	}
}
