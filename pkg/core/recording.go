package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RecordingState is the state of the RecordingController.
type RecordingState string

const (
	RecordingIdle     RecordingState = "idle"
	RecordingStarting RecordingState = "starting"
	RecordingActive   RecordingState = "recording"
	RecordingStopping RecordingState = "stopping"
)

// RecordingController owns the idle/recording state machine and drives the
// Microphone. At most one capture session is open at any time.
//
// Starting and stopping are transient states: while a device call is in
// flight the controller refuses overlapping transitions, the same way a
// disabled record button would.
type RecordingController struct {
	mic    Microphone
	cfg    CaptureConfig
	logger *slog.Logger
	clock  func() time.Time

	mu        sync.Mutex
	state     RecordingState
	session   CaptureSession
	startedAt time.Time
	opened    int
}

// NewRecordingController creates a controller in the idle state.
func NewRecordingController(mic Microphone, cfg CaptureConfig, logger *slog.Logger, clock func() time.Time) *RecordingController {
	if logger == nil {
		logger = discardLogger()
	}
	if clock == nil {
		clock = time.Now
	}
	return &RecordingController{
		mic:    mic,
		cfg:    cfg,
		logger: logger,
		clock:  clock,
		state:  RecordingIdle,
	}
}

// Status returns the current state.
func (c *RecordingController) Status() RecordingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start requests microphone access and opens a capture session.
// Calling Start while a session is starting or active is a no-op.
func (c *RecordingController) Start(ctx context.Context) error {
	_, err := c.start(ctx)
	return err
}

func (c *RecordingController) start(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state != RecordingIdle {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("start ignored, recorder busy", "state", state)
		return false, nil
	}
	c.state = RecordingStarting
	c.mu.Unlock()

	granted, err := c.mic.RequestPermission(ctx)
	if err != nil {
		c.setIdle()
		return false, deviceError("request permission", err)
	}
	if !granted {
		c.setIdle()
		return false, ErrPermissionDenied
	}

	session, err := c.mic.StartCapture(ctx, c.cfg)
	if err != nil {
		c.setIdle()
		return false, deviceError("start capture", err)
	}

	c.mu.Lock()
	c.state = RecordingActive
	c.session = session
	c.startedAt = c.clock()
	c.opened++
	c.mu.Unlock()

	c.logger.Debug("recording started")
	return true, nil
}

// Stop finalizes the capture sink. The controller returns to idle even when
// finalization fails; in that case no Capture is produced.
func (c *RecordingController) Stop(ctx context.Context) (Capture, error) {
	c.mu.Lock()
	if c.state != RecordingActive {
		state := c.state
		c.mu.Unlock()
		return Capture{}, fmt.Errorf("stop recording while %s: %w", state, ErrInvalidState)
	}
	c.state = RecordingStopping
	session := c.session
	startedAt := c.startedAt
	c.mu.Unlock()

	path, err := session.Stop(ctx)
	stoppedAt := c.clock()
	c.setIdle()

	if err != nil {
		return Capture{}, deviceError("stop capture", err)
	}
	if path == "" {
		return Capture{}, deviceError("stop capture", errors.New("capture produced no resource"))
	}

	c.logger.Debug("recording stopped", "path", path, "duration", stoppedAt.Sub(startedAt))
	return Capture{Path: path, StartedAt: startedAt, StoppedAt: stoppedAt}, nil
}

func (c *RecordingController) setIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = RecordingIdle
	c.session = nil
	c.startedAt = time.Time{}
}

// deviceError tags err as a device failure unless it is already classified.
func deviceError(op string, err error) error {
	if KindOf(err) != KindDevice || errors.Is(err, ErrDevice) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDevice, err)
}
