package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces note ids. Ids must never repeat within a session.
type IDGenerator func(createdAt time.Time) (string, error)

// NewV7ID generates time-ordered UUIDv7 ids.
func NewV7ID(time.Time) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Config holds the dependencies of a Manager.
type Config struct {
	Device       Device
	Logger       *slog.Logger
	Clock        func() time.Time
	IDGenerator  IDGenerator
	Capture      CaptureConfig
	RequireTitle bool
	// DeleteAudio removes the audio resource together with the note.
	DeleteAudio bool
	EventBuffer int
}

// Manager is the voice-note manager: it wires the recording and playback
// controllers to the note store and reports every change as an Event.
type Manager struct {
	device   Device
	store    *NoteStore
	recorder *RecordingController
	playback *PlaybackController
	events   *broker
	logger   *slog.Logger
	clock    func() time.Time
	newID    IDGenerator

	requireTitle bool
	deleteAudio  bool

	mu      sync.Mutex
	title   string
	pending *Capture
}

// NewManager creates a Manager with an empty store.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := cfg.IDGenerator
	if newID == nil {
		newID = NewV7ID
	}
	capture := cfg.Capture
	if capture == (CaptureConfig{}) {
		capture = DefaultCaptureConfig()
	}

	m := &Manager{
		device:       cfg.Device,
		store:        NewNoteStore(),
		recorder:     NewRecordingController(cfg.Device, capture, logger, clock),
		playback:     NewPlaybackController(cfg.Device, logger),
		events:       newBroker(cfg.EventBuffer),
		logger:       logger,
		clock:        clock,
		newID:        newID,
		requireTitle: cfg.RequireTitle,
		deleteAudio:  cfg.DeleteAudio,
	}
	m.playback.OnFinish(func(id string) {
		m.publish(Event{Type: EventPlaybackFinished, NoteID: id})
	})
	return m
}

// Store exposes the note collection for read access.
func (m *Manager) Store() *NoteStore { return m.store }

// Recorder exposes the recording controller.
func (m *Manager) Recorder() *RecordingController { return m.recorder }

// Playback exposes the playback controller.
func (m *Manager) Playback() *PlaybackController { return m.playback }

// SetTitle sets the title used for the next note.
func (m *Manager) SetTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.title = title
}

// Title returns the title that will be used for the next note.
func (m *Manager) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// Pending returns the capture waiting for a title, if any.
func (m *Manager) Pending() (Capture, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return Capture{}, false
	}
	return *m.pending, true
}

// StartRecording starts a new capture. A pending capture is abandoned once
// the new one is running; it is kept when the start fails.
func (m *Manager) StartRecording(ctx context.Context) error {
	started, err := m.recorder.start(ctx)
	if err != nil {
		return m.fail("start recording", err)
	}
	if !started {
		return nil
	}
	if err := m.DiscardPending(ctx); err != nil {
		m.logger.Warn("failed to discard pending capture", "error", err)
	}
	m.publish(Event{Type: EventRecordingStarted})
	return nil
}

// StopRecording stops the capture and turns it into a note.
// When the draft is invalid (e.g. missing title) the capture is kept as
// pending and a validation error is returned.
func (m *Manager) StopRecording(ctx context.Context) (*VoiceNote, error) {
	capture, err := m.recorder.Stop(ctx)
	if err != nil {
		return nil, m.fail("stop recording", err)
	}
	m.publish(Event{Type: EventRecordingStopped, Path: capture.Path})

	note, err := m.commit(capture, m.Title())
	if err != nil {
		m.mu.Lock()
		m.pending = &capture
		m.mu.Unlock()
		m.publish(Event{Type: EventRecordingPending, Path: capture.Path})
		return nil, m.fail("save recording", err)
	}
	return &note, nil
}

// SavePending resolves the pending capture with title.
// An empty title falls back to the current title field.
func (m *Manager) SavePending(ctx context.Context, title string) (*VoiceNote, error) {
	m.mu.Lock()
	pending := m.pending
	if title == "" {
		title = m.title
	}
	m.mu.Unlock()

	if pending == nil {
		return nil, m.fail("save pending", fmt.Errorf("no pending recording: %w", ErrInvalidState))
	}

	note, err := m.commit(*pending, title)
	if err != nil {
		return nil, m.fail("save pending", err)
	}

	m.mu.Lock()
	if m.pending == pending {
		m.pending = nil
	}
	m.mu.Unlock()
	return &note, nil
}

// DiscardPending abandons the pending capture and removes its resource when
// the device supports it.
func (m *Manager) DiscardPending(ctx context.Context) error {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	if pending == nil {
		return nil
	}
	m.logger.Info("discarding pending recording", "path", pending.Path)
	return m.discard(ctx, pending.Path)
}

func (m *Manager) commit(capture Capture, title string) (VoiceNote, error) {
	draft := Draft{
		Title:        strings.TrimSpace(title),
		Path:         capture.Path,
		RequireTitle: m.requireTitle,
	}
	if err := draft.Validate(); err != nil {
		return VoiceNote{}, err
	}

	id, err := m.newID(capture.StoppedAt)
	if err != nil {
		return VoiceNote{}, fmt.Errorf("generate note id: %w", err)
	}

	note := VoiceNote{
		ID:       id,
		Title:    draft.Title,
		FilePath: capture.Path,
		Date:     capture.StoppedAt,
		Duration: capture.Duration(),
	}
	m.store.Append(note)

	m.mu.Lock()
	m.title = ""
	m.mu.Unlock()

	m.logger.Info("note saved", "id", note.ID, "title", note.Title, "path", note.FilePath)
	m.publish(Event{Type: EventNoteAdded, NoteID: note.ID, Path: note.FilePath})
	return note, nil
}

// Play starts playback of the note with the given id.
func (m *Manager) Play(ctx context.Context, id string) error {
	note, ok := m.store.Get(id)
	if !ok {
		return m.fail("play", fmt.Errorf("note %q: %w", id, ErrNotFound))
	}
	if err := m.playback.Play(ctx, note); err != nil {
		if errors.Is(err, ErrPlaybackCancelled) {
			// A stop already reported the outcome.
			return err
		}
		return m.fail("play", err)
	}
	m.publish(Event{Type: EventPlaybackStarted, NoteID: id, Path: note.FilePath})
	return nil
}

// StopPlayback stops the current sound. It is a no-op when nothing plays.
func (m *Manager) StopPlayback(ctx context.Context) error {
	id, stopped, err := m.playback.stop(ctx)
	if err != nil {
		return m.fail("stop playback", err)
	}
	if stopped {
		m.publish(Event{Type: EventPlaybackStopped, NoteID: id})
	}
	return nil
}

// Delete removes a note. Unknown ids are ignored.
func (m *Manager) Delete(ctx context.Context, id string) error {
	note, ok := m.store.Get(id)
	if !ok {
		return nil
	}

	if _, playing := m.playback.Status(); playing == id {
		if err := m.StopPlayback(ctx); err != nil {
			return err
		}
	}

	if !m.store.Remove(id) {
		return nil
	}
	m.logger.Info("note deleted", "id", id)
	m.publish(Event{Type: EventNoteRemoved, NoteID: id, Path: note.FilePath})

	if m.deleteAudio {
		if err := m.discard(ctx, note.FilePath); err != nil {
			return m.fail("delete audio", err)
		}
	}
	return nil
}

// List returns a snapshot of the notes in insertion order.
func (m *Manager) List() []VoiceNote {
	return m.store.List()
}

// Get returns a single note.
func (m *Manager) Get(id string) (VoiceNote, error) {
	note, ok := m.store.Get(id)
	if !ok {
		return VoiceNote{}, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	return note, nil
}

// Subscribe returns a stream of events. The channel is closed when ctx is
// done or the manager is closed.
func (m *Manager) Subscribe(ctx context.Context) <-chan Event {
	return m.events.subscribe(ctx)
}

// Watch observes external changes to audio resources if the device supports it.
func (m *Manager) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := m.device.(Watchable)
	if !ok {
		return nil, errors.New("device does not support watching")
	}
	return w.Watch(ctx, pattern)
}

// Close stops playback, abandons any in-flight recording and closes all
// subscriptions.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error
	if err := m.playback.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if m.recorder.Status() == RecordingActive {
		capture, err := m.recorder.Stop(ctx)
		if err != nil {
			errs = append(errs, err)
		} else if err := m.discard(ctx, capture.Path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.DiscardPending(ctx); err != nil {
		errs = append(errs, err)
	}
	m.events.close()
	return errors.Join(errs...)
}

func (m *Manager) discard(ctx context.Context, path string) error {
	d, ok := m.device.(Discarder)
	if !ok || path == "" {
		return nil
	}
	return d.Discard(ctx, path)
}

// fail logs err, publishes exactly one error event and returns err.
func (m *Manager) fail(op string, err error) error {
	m.logger.Warn(op+" failed", "kind", KindOf(err), "error", err)
	m.publish(Event{Type: EventError, Err: err})
	return err
}

func (m *Manager) publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = m.clock()
	}
	m.events.publish(e)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
