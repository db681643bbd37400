package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/voicenote/pkg/core"
)

func TestWatch_ReportsResources(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	device := newTestDevice(t, Config{})
	events, err := device.Watch(ctx, "")
	if err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	waitForWatcher(t, device, true)

	path := filepath.Join(device.Path, "external.wav")
	if err := WriteWAV(path, monoFormat, []byte{0, 0}); err != nil {
		t.Fatal(err)
	}
	// Ignored: outside the pattern.
	if err := os.WriteFile(filepath.Join(device.Path, "notes.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	e := waitForEvent(t, events)
	if e.Type != core.EventResourceCreated || e.Path != path {
		t.Fatalf("unexpected event %v", e)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	e = waitForEvent(t, events)
	if e.Type != core.EventResourceRemoved || e.Path != path {
		t.Fatalf("unexpected event %v", e)
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				waitForWatcher(t, device, false)
				return
			}
		case <-deadline:
			t.Fatal("events channel not closed after cancel")
		}
	}
}

func TestWatch_InvalidPattern(t *testing.T) {
	device := newTestDevice(t, Config{})
	if _, err := device.Watch(context.Background(), "[unclosed"); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestWatcherSupervisorRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	device := newTestDevice(t, Config{})

	created := make(chan *watchWorker, 2)
	spec := supervisor.Spec{
		Name: "notes-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			w := newWatchWorker(device, "*.wav", make(chan core.Event, 16))
			created <- w
			return w, nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      1,
			ResetDuration:   50 * time.Millisecond,
			MaxRestarts:     2,
			MaxDuration:     200 * time.Millisecond,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("test-watcher", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		t.Fatalf("failed to start supervisor: %v", err)
	}

	first := waitForWorker(t, created, "first")
	waitForWatcher(t, device, true)

	waitForWatcherInit(t, first)
	_ = first.watcher.Close()

	second := waitForWorker(t, created, "second")
	if first == second {
		t.Fatalf("expected supervisor to restart watcher with a new instance")
	}
	waitForWatcher(t, device, true)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := sup.Stop(stopCtx); err != nil {
		t.Fatalf("failed to stop supervisor: %v", err)
	}
}

func waitForEvent(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()

	select {
	case e, ok := <-events:
		if !ok {
			t.Fatal("events channel closed")
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return core.Event{}
	}
}

func waitForWorker(t *testing.T, ch <-chan *watchWorker, label string) *watchWorker {
	t.Helper()

	select {
	case w := <-ch:
		return w
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s worker", label)
		return nil
	}
}

func waitForWatcherInit(t *testing.T, w *watchWorker) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		if w.watcher != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for watcher initialization")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func waitForWatcher(t *testing.T, device *Device, expected bool) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		state, ok := device.State().(DeviceState)
		if ok && state.WatcherActive == expected {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for watcher state = %v", expected)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatch_ShutdownWithUnreadEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	device := newTestDevice(t, Config{})
	events := make(chan core.Event) // never read
	w := newWatchWorker(device, DefaultWatchPattern, events)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	waitForWatcher(t, device, true)

	if err := WriteWAV(filepath.Join(device.Path, "external.wav"), monoFormat, []byte{0, 0}); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(2 * time.Second)
	for device.State().(DeviceState).LastEvent == nil {
		select {
		case <-deadline:
			t.Fatal("no event reached the channel")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// The loop ends on its own while a send is blocked.
	if err := w.watcher.Close(); err != nil {
		t.Fatal(err)
	}
	waitForWatcher(t, device, false)

	if _, ok := <-events; ok {
		t.Fatal("expected the events channel to be closed")
	}
}

func TestWatch_LateSendAfterClose(t *testing.T) {
	device := newTestDevice(t, Config{})
	events := make(chan core.Event, 1)
	w := newWatchWorker(device, DefaultWatchPattern, events)
	w.debouncer = newDebouncer(5 * time.Millisecond)
	close(events)

	w.sendEvent(context.Background(), core.Event{Type: core.EventResourceCreated, Path: "late.wav", Timestamp: time.Now()})
	deadline := time.After(2 * time.Second)
	for device.State().(DeviceState).LastEvent == nil {
		select {
		case <-deadline:
			t.Fatal("timer never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
	w.debouncer.stopAndWait(time.Second)
}
