package core

import (
	"github.com/aretw0/introspection"
)

// ManagerState exposes internal state for observability.
type ManagerState struct {
	Notes         int            `json:"notes"`
	Recording     RecordingState `json:"recording"`
	Playback      PlaybackState  `json:"playback"`
	PlayingNote   string         `json:"playing_note,omitempty"`
	Pending       bool           `json:"pending"`
	Subscribers   int            `json:"subscribers"`
	DroppedEvents uint64         `json:"dropped_events"`
	DeviceType    string         `json:"device_type"`
}

// State implements introspection.Introspectable.
func (m *Manager) State() any {
	playback, playing := m.playback.Status()
	subs, dropped := m.events.stats()
	_, pending := m.Pending()

	deviceType := "unknown"
	if m.device != nil {
		deviceType = "device"
		if comp, ok := m.device.(introspection.Component); ok {
			deviceType = comp.ComponentType()
		}
	}

	return ManagerState{
		Notes:         m.store.Len(),
		Recording:     m.recorder.Status(),
		Playback:      playback,
		PlayingNote:   playing,
		Pending:       pending,
		Subscribers:   subs,
		DroppedEvents: dropped,
		DeviceType:    deviceType,
	}
}

// ComponentType implements introspection.Component.
func (m *Manager) ComponentType() string {
	return "manager"
}

// RecorderState is the observable state of a RecordingController.
type RecorderState struct {
	Status         RecordingState `json:"status"`
	SessionsOpened int            `json:"sessions_opened"`
}

// State implements introspection.Introspectable.
func (c *RecordingController) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return RecorderState{Status: c.state, SessionsOpened: c.opened}
}

// ComponentType implements introspection.Component.
func (c *RecordingController) ComponentType() string {
	return "recorder"
}

// PlayerState is the observable state of a PlaybackController.
type PlayerState struct {
	Status        PlaybackState `json:"status"`
	NoteID        string        `json:"note_id,omitempty"`
	SoundsStarted int           `json:"sounds_started"`
}

// State implements introspection.Introspectable.
func (c *PlaybackController) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return PlayerState{Status: c.state, NoteID: c.noteID, SoundsStarted: c.started}
}

// ComponentType implements introspection.Component.
func (c *PlaybackController) ComponentType() string {
	return "player"
}

var (
	_ introspection.Introspectable = (*Manager)(nil)
	_ introspection.Component      = (*Manager)(nil)
	_ introspection.Introspectable = (*RecordingController)(nil)
	_ introspection.Introspectable = (*PlaybackController)(nil)
)
