package alert

import (
	"telemon/internal/telemetry"
	"telemon/internal/threshold"
)

// Evaluate tests a snapshot against a policy view and returns the resulting
// alerts in fixed channel order. It is pure and total: identical inputs give
// identical output, and no input combination fails. Channels the view has no
// bounds for are skipped.
func Evaluate(snap telemetry.Snapshot, view threshold.View) []Alert {
	var alerts []Alert

	for _, ch := range telemetry.Channels {
		b, ok := view.Bounds[ch]
		if !ok {
			continue
		}
		if a, fired := evaluateChannel(ch, snap.Value(ch), b); fired {
			alerts = append(alerts, a)
		}
	}

	if view.Mode == threshold.ModeSummarized && len(alerts) > 1 {
		return []Alert{summarize(alerts)}
	}
	return alerts
}

// evaluateChannel emits at most one alert: the safe regions of a band are
// mutually exclusive, and for two-tier bounds the critical test runs first
// so a critical breach subsumes the warning it implies.
func evaluateChannel(ch telemetry.Channel, v float64, b threshold.Bounds) (Alert, bool) {
	switch b.Shape {
	case threshold.ShapeTwoTier:
		switch {
		case v < b.Critical.Low:
			return breach(ch, directionLow, SeverityCritical, v, b.Critical.Low), true
		case v > b.Critical.High:
			return breach(ch, directionHigh, SeverityCritical, v, b.Critical.High), true
		case v < b.Warning.Low:
			return breach(ch, directionLow, SeverityWarning, v, b.Warning.Low), true
		case v > b.Warning.High:
			return breach(ch, directionHigh, SeverityWarning, v, b.Warning.High), true
		}
	default:
		// A single band is a hard limit, so breaching it is critical.
		switch {
		case v < b.Band.Low:
			return breach(ch, directionLow, SeverityCritical, v, b.Band.Low), true
		case v > b.Band.High:
			return breach(ch, directionHigh, SeverityCritical, v, b.Band.High), true
		}
	}
	return Alert{}, false
}

func breach(ch telemetry.Channel, dir direction, sev Severity, v, bound float64) Alert {
	return Alert{
		Channel:  ch,
		Kind:     kindFor(ch, dir),
		Severity: sev,
		Value:    v,
		Bound:    bound,
	}
}

// summarize collapses simultaneous breaches into a single marker carrying the
// breach count and the highest severity among them.
func summarize(alerts []Alert) Alert {
	sev := SeverityWarning
	for _, a := range alerts {
		if a.Severity == SeverityCritical {
			sev = SeverityCritical
			break
		}
	}
	return Alert{
		Kind:     KindMultipleAlerts,
		Severity: sev,
		Count:    len(alerts),
	}
}
