package alert

import (
	"reflect"
	"testing"

	"telemon/internal/telemetry"
	"telemon/internal/threshold"
)

func itemizedView() threshold.View {
	return threshold.View{
		Mode: threshold.ModeItemized,
		Bounds: map[telemetry.Channel]threshold.Bounds{
			telemetry.ChannelSpeed:      threshold.SingleBand(50, 160),
			telemetry.ChannelBatterySoC: threshold.LowGuard(20, 10),
			telemetry.ChannelTirePressure: threshold.TwoTier(
				threshold.Band{Low: 28, High: 35},
				threshold.Band{Low: 25, High: 40},
			),
		},
	}
}

func snapshot(speed, soc, pressure float64) telemetry.Snapshot {
	return telemetry.Snapshot{SpeedKmh: speed, BatterySoC: soc, TirePressurePsi: pressure}
}

func TestEvaluate_SingleBand(t *testing.T) {
	view := itemizedView()

	tests := []struct {
		name     string
		speed    float64
		wantKind Kind
		fired    bool
	}{
		{"inside band", 100, "", false},
		{"at low bound", 50, "", false},
		{"at high bound", 160, "", false},
		{"above high", 170, KindSpeedHigh, true},
		{"below low", 40, KindSpeedLow, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := Evaluate(snapshot(tt.speed, 80, 32), view)
			if !tt.fired {
				if len(alerts) != 0 {
					t.Fatalf("expected no alerts, got %v", alerts)
				}
				return
			}
			if len(alerts) != 1 {
				t.Fatalf("expected 1 alert, got %d", len(alerts))
			}
			a := alerts[0]
			if a.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", a.Kind, tt.wantKind)
			}
			if a.Severity != SeverityCritical {
				t.Errorf("single-band breach severity = %v, want critical", a.Severity)
			}
			if a.Value != tt.speed {
				t.Errorf("observed value = %v, want %v", a.Value, tt.speed)
			}
		})
	}
}

func TestEvaluate_TwoTierPrecedence(t *testing.T) {
	view := itemizedView()

	tests := []struct {
		name    string
		soc     float64
		wantSev Severity
		fired   bool
	}{
		{"healthy", 80, "", false},
		{"warning band", 15, SeverityWarning, true},
		{"critical subsumes warning", 5, SeverityCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := Evaluate(snapshot(100, tt.soc, 32), view)
			if !tt.fired {
				if len(alerts) != 0 {
					t.Fatalf("expected no alerts, got %v", alerts)
				}
				return
			}
			if len(alerts) != 1 {
				t.Fatalf("expected exactly 1 alert, got %d", len(alerts))
			}
			a := alerts[0]
			if a.Kind != KindBatteryLow {
				t.Errorf("kind = %v, want %v", a.Kind, KindBatteryLow)
			}
			if a.Severity != tt.wantSev {
				t.Errorf("severity = %v, want %v", a.Severity, tt.wantSev)
			}
		})
	}
}

func TestEvaluate_TwoTierBothSides(t *testing.T) {
	view := itemizedView()

	tests := []struct {
		pressure float64
		wantKind Kind
		wantSev  Severity
	}{
		{24, KindTirePressureLow, SeverityCritical},
		{27, KindTirePressureLow, SeverityWarning},
		{36, KindTirePressureHigh, SeverityWarning},
		{41, KindTirePressureHigh, SeverityCritical},
	}

	for _, tt := range tests {
		alerts := Evaluate(snapshot(100, 80, tt.pressure), view)
		if len(alerts) != 1 {
			t.Fatalf("pressure %v: expected 1 alert, got %d", tt.pressure, len(alerts))
		}
		if alerts[0].Kind != tt.wantKind || alerts[0].Severity != tt.wantSev {
			t.Errorf("pressure %v: got %v/%v, want %v/%v",
				tt.pressure, alerts[0].Kind, alerts[0].Severity, tt.wantKind, tt.wantSev)
		}
	}
}

func TestEvaluate_FixedChannelOrder(t *testing.T) {
	// Speed and tire pressure breach simultaneously: speed reports first.
	alerts := Evaluate(snapshot(170, 80, 24), itemizedView())
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Channel != telemetry.ChannelSpeed {
		t.Errorf("first alert channel = %v, want speed", alerts[0].Channel)
	}
	if alerts[1].Channel != telemetry.ChannelTirePressure {
		t.Errorf("second alert channel = %v, want tire pressure", alerts[1].Channel)
	}
}

func TestEvaluate_Summarized(t *testing.T) {
	view := itemizedView()
	view.Mode = threshold.ModeSummarized

	// One breach passes through unchanged.
	alerts := Evaluate(snapshot(170, 80, 32), view)
	if len(alerts) != 1 || alerts[0].Kind != KindSpeedHigh {
		t.Fatalf("single breach should pass through, got %v", alerts)
	}

	// Two breaches collapse into one marker.
	alerts = Evaluate(snapshot(170, 80, 24), view)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 collapsed alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Kind != KindMultipleAlerts {
		t.Errorf("kind = %v, want %v", a.Kind, KindMultipleAlerts)
	}
	if a.Count != 2 {
		t.Errorf("count = %d, want 2", a.Count)
	}
	if a.Severity != SeverityCritical {
		t.Errorf("marker severity = %v, want critical (highest collapsed)", a.Severity)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	view := itemizedView()
	snap := snapshot(170, 5, 24)

	first := Evaluate(snap, view)
	second := Evaluate(snap, view)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("evaluation not deterministic: %v vs %v", first, second)
	}
}

func TestEvaluate_SkipsUnboundedChannels(t *testing.T) {
	view := itemizedView()
	delete(view.Bounds, telemetry.ChannelSpeed)

	alerts := Evaluate(snapshot(500, 80, 32), view)
	if len(alerts) != 0 {
		t.Errorf("channel without bounds should not alert, got %v", alerts)
	}
}
