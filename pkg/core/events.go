package core

import (
	"fmt"
	"time"
)

// EventType represents the kind of change observed by the presentation layer.
type EventType string

const (
	EventRecordingStarted EventType = "recording.started"
	EventRecordingStopped EventType = "recording.stopped"
	EventRecordingPending EventType = "recording.pending"
	EventNoteAdded        EventType = "note.added"
	EventNoteRemoved      EventType = "note.removed"
	EventPlaybackStarted  EventType = "playback.started"
	EventPlaybackStopped  EventType = "playback.stopped"
	EventPlaybackFinished EventType = "playback.finished"
	EventError            EventType = "error"

	// Emitted by Watchable devices.
	EventResourceCreated EventType = "resource.created"
	EventResourceRemoved EventType = "resource.removed"
)

// Event represents a state change or a failure notification.
type Event struct {
	Type      EventType
	NoteID    string
	Path      string
	Err       error
	Timestamp time.Time
}

// Kind reports the error kind carried by an error event.
func (e Event) Kind() ErrorKind {
	return KindOf(e.Err)
}

// String renders the event for logs and lifecycle sources.
func (e Event) String() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s [%s]: %v", e.Type, e.Kind(), e.Err)
	case e.NoteID != "":
		return fmt.Sprintf("%s %s", e.Type, e.NoteID)
	case e.Path != "":
		return fmt.Sprintf("%s %s", e.Type, e.Path)
	default:
		return string(e.Type)
	}
}
