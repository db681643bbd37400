package core_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenote/pkg/adapters/memory"
	"github.com/aretw0/voicenote/pkg/core"
)

// stepClock advances one second on every reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func sequentialIDs() core.IDGenerator {
	var mu sync.Mutex
	n := 0
	return func(time.Time) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return strconv.Itoa(n), nil
	}
}

func newTestManager(t *testing.T, requireTitle bool) (*core.Manager, *memory.Device) {
	t.Helper()
	return newManagerWith(t, func(cfg *core.Config) { cfg.RequireTitle = requireTitle })
}

func newManagerWith(t *testing.T, configure func(*core.Config)) (*core.Manager, *memory.Device) {
	t.Helper()
	device := memory.NewDevice()
	cfg := core.Config{
		Device:       device,
		Clock:        newStepClock().Now,
		IDGenerator:  sequentialIDs(),
		RequireTitle: true,
	}
	configure(&cfg)
	m := core.NewManager(cfg)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m, device
}

// record runs a full start/stop cycle with the given title.
func record(t *testing.T, m *core.Manager, title string) core.VoiceNote {
	t.Helper()
	ctx := context.Background()
	m.SetTitle(title)
	require.NoError(t, m.StartRecording(ctx))
	note, err := m.StopRecording(ctx)
	require.NoError(t, err)
	require.NotNil(t, note)
	return *note
}

// collect drains events until n arrive or the timeout expires.
func collect(t *testing.T, ch <-chan core.Event, n int) []core.Event {
	t.Helper()
	var out []core.Event
	timeout := time.After(time.Second)
	for len(out) < n {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events: %v", len(out), n, out)
		}
	}
	return out
}

func types(events []core.Event) []core.EventType {
	out := make([]core.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func lastSound(t *testing.T, d *memory.Device) *memory.Sound {
	t.Helper()
	sounds := d.Sounds()
	require.NotEmpty(t, sounds)
	return sounds[len(sounds)-1]
}
