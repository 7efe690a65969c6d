package sink

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"telemon/internal/alert"
	"telemon/internal/telemetry"
)

// mockSink records dispatches and can be made to fail.
type mockSink struct {
	dispatched atomic.Uint64
	closed     atomic.Bool
	shouldFail bool
}

func (m *mockSink) Dispatch(ctx context.Context, alerts []alert.Alert) error {
	if m.shouldFail {
		return context.DeadlineExceeded
	}
	m.dispatched.Add(uint64(len(alerts)))
	return nil
}

func (m *mockSink) Close() error {
	m.closed.Store(true)
	return nil
}

func testAlerts() []alert.Alert {
	return []alert.Alert{
		{
			Channel:  telemetry.ChannelSpeed,
			Kind:     alert.KindSpeedHigh,
			Severity: alert.SeverityCritical,
			Value:    170,
			Bound:    160,
		},
	}
}

func TestMulti_FanOut(t *testing.T) {
	a := &mockSink{}
	b := &mockSink{}

	m := NewMulti()
	m.Add("a", a)
	m.Add("b", b)

	if err := m.Dispatch(context.Background(), testAlerts()); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if a.dispatched.Load() != 1 || b.dispatched.Load() != 1 {
		t.Errorf("fan-out missed a sink: a=%d b=%d", a.dispatched.Load(), b.dispatched.Load())
	}
}

func TestMulti_FailureDoesNotStopFanOut(t *testing.T) {
	failing := &mockSink{shouldFail: true}
	healthy := &mockSink{}

	m := NewMulti()
	m.Add("failing", failing)
	m.Add("healthy", healthy)

	err := m.Dispatch(context.Background(), testAlerts())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected first error to surface, got %v", err)
	}
	if healthy.dispatched.Load() != 1 {
		t.Error("healthy sink skipped after earlier failure")
	}
}

func TestMulti_Close(t *testing.T) {
	a := &mockSink{}
	b := &mockSink{}

	m := NewMulti()
	m.Add("a", a)
	m.Add("b", b)

	if err := m.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !a.closed.Load() || !b.closed.Load() {
		t.Error("not every sink was closed")
	}
}

func TestFuncAdapter(t *testing.T) {
	var got int
	f := Func(func(ctx context.Context, alerts []alert.Alert) error {
		got = len(alerts)
		return nil
	})

	if err := f.Dispatch(context.Background(), testAlerts()); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if got != 1 {
		t.Errorf("callback saw %d alerts, want 1", got)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}

func TestNewEvent_StampsIdentity(t *testing.T) {
	a := testAlerts()[0]
	e1 := NewEvent(a)
	e2 := NewEvent(a)

	if e1.ID == "" || e2.ID == "" {
		t.Fatal("event ID must not be empty")
	}
	if e1.ID == e2.ID {
		t.Error("two events share an ID")
	}
	if e1.EmittedAt.IsZero() {
		t.Error("emitted-at not stamped")
	}
	if e1.Alert != a {
		t.Error("alert payload altered")
	}
}

func TestLogSink(t *testing.T) {
	s := NewLogSink()
	if err := s.Dispatch(context.Background(), testAlerts()); err != nil {
		t.Errorf("Dispatch returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}
