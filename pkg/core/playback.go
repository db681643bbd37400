package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"
)

// PlaybackState is the state of the PlaybackController.
type PlaybackState string

const (
	PlaybackIdle    PlaybackState = "idle"
	PlaybackLoading PlaybackState = "loading"
	PlaybackPlaying PlaybackState = "playing"
)

// PlaybackController owns the idle/playing state machine and drives the
// Player. Starting a note while another one plays stops the previous sound
// first, so there is never more than one audio output.
type PlaybackController struct {
	player Player
	logger *slog.Logger

	mu       sync.Mutex
	state    PlaybackState
	noteID   string
	sound    Sound
	gen      uint64
	started  int
	onFinish func(noteID string)
}

// NewPlaybackController creates a controller in the idle state.
func NewPlaybackController(player Player, logger *slog.Logger) *PlaybackController {
	if logger == nil {
		logger = discardLogger()
	}
	return &PlaybackController{
		player: player,
		logger: logger,
		state:  PlaybackIdle,
	}
}

// OnFinish registers fn to be called when a sound reaches its natural end.
// It is not called for explicit stops.
func (c *PlaybackController) OnFinish(fn func(noteID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinish = fn
}

// Status returns the current state and the id of the note being played.
func (c *PlaybackController) Status() (PlaybackState, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.noteID
}

// Play starts note, stopping whatever was playing before.
func (c *PlaybackController) Play(ctx context.Context, note VoiceNote) error {
	if note.FilePath == "" {
		return fmt.Errorf("play %s: empty file path: %w", note.ID, ErrResourceNotFound)
	}

	c.mu.Lock()
	if c.state == PlaybackLoading {
		c.mu.Unlock()
		return fmt.Errorf("play %s while loading: %w", note.ID, ErrInvalidState)
	}
	prev, prevID := c.sound, c.noteID
	c.gen++
	gen := c.gen
	c.state = PlaybackLoading
	c.sound = nil
	c.noteID = note.ID
	c.mu.Unlock()

	if prev != nil {
		if err := prev.Stop(ctx); err != nil {
			c.logger.Warn("failed to release previous sound", "note", prevID, "error", err)
		}
	}

	sound, err := c.player.Load(ctx, note.FilePath)
	if err != nil {
		c.resetIf(gen)
		return deviceError("load "+note.FilePath, err)
	}

	if err := sound.Play(ctx); err != nil {
		_ = sound.Stop(ctx)
		c.resetIf(gen)
		return deviceError("play "+note.FilePath, err)
	}

	c.mu.Lock()
	if c.gen != gen {
		// Stopped while loading.
		c.mu.Unlock()
		_ = sound.Stop(ctx)
		c.logger.Debug("playback cancelled during load", "note", note.ID)
		return fmt.Errorf("play %s: %w", note.ID, ErrPlaybackCancelled)
	}
	c.state = PlaybackPlaying
	c.sound = sound
	c.started++
	c.mu.Unlock()

	lifecycle.Go(context.Background(), func(context.Context) error {
		<-sound.Done()
		c.finished(gen)
		return nil
	})

	c.logger.Debug("playback started", "note", note.ID)
	return nil
}

// Stop releases the current sound. It is a no-op when idle.
func (c *PlaybackController) Stop(ctx context.Context) error {
	_, _, err := c.stop(ctx)
	return err
}

// stop is Stop reporting which note it stopped, if any. A sound that ended
// on its own before the lock was taken is not reported.
func (c *PlaybackController) stop(ctx context.Context) (id string, stopped bool, err error) {
	c.mu.Lock()
	if c.state == PlaybackIdle {
		c.mu.Unlock()
		return "", false, nil
	}
	c.gen++
	sound, id := c.sound, c.noteID
	c.state = PlaybackIdle
	c.sound = nil
	c.noteID = ""
	c.mu.Unlock()

	if sound == nil {
		return id, true, nil
	}
	if err := sound.Stop(ctx); err != nil {
		return id, true, deviceError("stop playback", err)
	}
	c.logger.Debug("playback stopped", "note", id)
	return id, true, nil
}

// finished handles the natural end of the sound started under gen.
func (c *PlaybackController) finished(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.state != PlaybackPlaying {
		c.mu.Unlock()
		return
	}
	sound, id, fn := c.sound, c.noteID, c.onFinish
	c.state = PlaybackIdle
	c.sound = nil
	c.noteID = ""
	c.mu.Unlock()

	if err := sound.Stop(context.Background()); err != nil {
		c.logger.Warn("failed to release finished sound", "note", id, "error", err)
	}
	c.logger.Debug("playback finished", "note", id)
	if fn != nil {
		fn(id)
	}
}

func (c *PlaybackController) resetIf(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.state = PlaybackIdle
	c.sound = nil
	c.noteID = ""
}
