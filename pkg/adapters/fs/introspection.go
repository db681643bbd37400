package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// DeviceState exposes internal state for observability.
type DeviceState struct {
	Path           string     `json:"path"`
	CapturesOpened int        `json:"captures_opened"`
	ActiveCaptures int        `json:"active_captures"`
	SoundsLoaded   int        `json:"sounds_loaded"`
	ActiveSounds   int        `json:"active_sounds"`
	Speed          float64    `json:"speed"`
	WatcherActive  bool       `json:"watcher_active"`
	LastEvent      *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (d *Device) State() any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return DeviceState{
		Path:           d.Path,
		CapturesOpened: d.capturesOpened,
		ActiveCaptures: d.activeCaptures,
		SoundsLoaded:   d.soundsLoaded,
		ActiveSounds:   d.activeSounds,
		Speed:          d.config.Speed,
		WatcherActive:  d.watcherActive,
		LastEvent:      d.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (d *Device) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*Device)(nil)
var _ introspection.Component = (*Device)(nil)

func (d *Device) setWatcherActive(active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.watcherActive = active
}

func (d *Device) recordEvent(at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastEvent = &at
}
