package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"telemon/internal/alert"
	"telemon/internal/monitor"
	"telemon/internal/telemetry"
	"telemon/internal/threshold"
)

// API exposes the monitor's call surface over HTTP: reading updates,
// threshold reconfiguration, on-demand alert checks, and scheduler control.
type API struct {
	monitor   *monitor.Monitor
	scheduler *monitor.Scheduler
}

// NewAPI creates the handler set for a monitor and its scheduler.
func NewAPI(m *monitor.Monitor, s *monitor.Scheduler) *API {
	return &API{monitor: m, scheduler: s}
}

// Register attaches all routes to the mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/telemetry", a.handleTelemetry)
	mux.HandleFunc("/alerts", a.handleAlerts)
	mux.HandleFunc("/thresholds", a.handleThresholds)
	mux.HandleFunc("/monitor/start", a.handleStart)
	mux.HandleFunc("/monitor/stop", a.handleStop)
	mux.HandleFunc("/monitor/status", a.handleStatus)
}

// telemetryUpdate is a partial update: absent channels keep their value.
type telemetryUpdate struct {
	SpeedKmh        *float64 `json:"speed_kmh,omitempty"`
	BatterySoC      *float64 `json:"battery_soc,omitempty"`
	TirePressurePsi *float64 `json:"tire_pressure_psi,omitempty"`
}

func (a *API) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.writeJSON(w, http.StatusOK, a.monitor.Snapshot())

	case http.MethodPost:
		var update telemetryUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			a.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if update.SpeedKmh == nil && update.BatterySoC == nil && update.TirePressurePsi == nil {
			a.writeError(w, http.StatusBadRequest, "no readings provided")
			return
		}

		for _, u := range []struct {
			ch telemetry.Channel
			v  *float64
		}{
			{telemetry.ChannelSpeed, update.SpeedKmh},
			{telemetry.ChannelBatterySoC, update.BatterySoC},
			{telemetry.ChannelTirePressure, update.TirePressurePsi},
		} {
			if u.v == nil {
				continue
			}
			if err := a.monitor.Update(u.ch, *u.v); err != nil {
				a.writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
		}

		a.writeJSON(w, http.StatusOK, a.monitor.Snapshot())

	default:
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *API) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := a.monitor.Snapshot()
	alerts := a.monitor.Evaluate(snap)
	if alerts == nil {
		alerts = []alert.Alert{}
	}

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot": snap,
		"alerts":   alerts,
		"count":    len(alerts),
	})
}

// bandInput allows one-sided bands: a missing low or high bound is open.
type bandInput struct {
	Low  *float64 `json:"low,omitempty"`
	High *float64 `json:"high,omitempty"`
}

func (b bandInput) toBand() threshold.Band {
	band := threshold.Band{Low: -threshold.Unbounded, High: threshold.Unbounded}
	if b.Low != nil {
		band.Low = *b.Low
	}
	if b.High != nil {
		band.High = *b.High
	}
	return band
}

// thresholdUpdate reconfigures one channel's bounds at runtime.
type thresholdUpdate struct {
	Channel  string     `json:"channel"`
	Shape    string     `json:"shape"`
	Band     *bandInput `json:"band,omitempty"`
	Warning  *bandInput `json:"warning,omitempty"`
	Critical *bandInput `json:"critical,omitempty"`
}

func (a *API) handleThresholds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		view := a.monitor.Thresholds()
		bounds := make(map[string]threshold.Bounds, len(view.Bounds))
		for ch, b := range view.Bounds {
			bounds[ch.String()] = b
		}
		a.writeJSON(w, http.StatusOK, map[string]interface{}{
			"mode":   view.Mode.String(),
			"bounds": bounds,
		})

	case http.MethodPut:
		var update thresholdUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			a.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		ch, err := telemetry.ParseChannel(update.Channel)
		if err != nil {
			a.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		bounds, err := update.toBounds()
		if err != nil {
			a.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := a.monitor.SetThreshold(ch, bounds); err != nil {
			a.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		a.writeJSON(w, http.StatusOK, map[string]interface{}{
			"channel": update.Channel,
			"bounds":  bounds,
		})

	default:
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (u thresholdUpdate) toBounds() (threshold.Bounds, error) {
	switch u.Shape {
	case "single_band":
		if u.Band == nil {
			return threshold.Bounds{}, errors.New("single_band requires a band")
		}
		b := u.Band.toBand()
		return threshold.SingleBand(b.Low, b.High), nil
	case "two_tier":
		if u.Warning == nil || u.Critical == nil {
			return threshold.Bounds{}, errors.New("two_tier requires warning and critical bands")
		}
		return threshold.TwoTier(u.Warning.toBand(), u.Critical.toBand()), nil
	default:
		return threshold.Bounds{}, threshold.ErrUnknownShape
	}
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	// Idempotent: starting a running scheduler is a no-op.
	a.scheduler.Start()
	a.writeJSON(w, http.StatusOK, map[string]bool{"running": true})
}

func (a *API) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	a.scheduler.Stop()
	a.writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"running": a.scheduler.Running(),
		"ticks":   a.scheduler.Ticks(),
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
