package connectivity

import (
	"io"
	"log/slog"
	"testing"
)

func newTestMonitor() *Monitor {
	return NewMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMonitor_DefaultsToOnline(t *testing.T) {
	m := newTestMonitor()
	if !m.Online() {
		t.Error("Online() = false, want true initially")
	}
}

func TestMonitor_SetUpdatesState(t *testing.T) {
	m := newTestMonitor()

	m.Set(false)
	if m.Online() {
		t.Error("Online() = true after Set(false)")
	}

	m.Set(true)
	if !m.Online() {
		t.Error("Online() = false after Set(true)")
	}
}

func TestMonitor_SubscribeReceivesChanges(t *testing.T) {
	m := newTestMonitor()
	ch, cancel := m.Subscribe()
	defer cancel()

	m.Set(false)

	select {
	case got := <-ch:
		if got {
			t.Error("received true, want false")
		}
	default:
		t.Fatal("no notification received")
	}
}

func TestMonitor_NoNotificationWithoutChange(t *testing.T) {
	m := newTestMonitor()
	ch, cancel := m.Subscribe()
	defer cancel()

	// 既にオンラインなのでSet(true)は通知しない
	m.Set(true)

	select {
	case <-ch:
		t.Error("unexpected notification for unchanged state")
	default:
	}
}

func TestMonitor_CancelStopsDelivery(t *testing.T) {
	m := newTestMonitor()
	ch, cancel := m.Subscribe()
	cancel()

	m.Set(false)

	select {
	case <-ch:
		t.Error("received notification after cancel")
	default:
	}
}
