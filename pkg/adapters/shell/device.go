package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/voicenote/pkg/adapters/fs"
	"github.com/aretw0/voicenote/pkg/core"
)

// DefaultStopTimeout is how long a program has to exit after an interrupt.
const DefaultStopTimeout = 2 * time.Second

// Config holds the configuration for the external-program device.
type Config struct {
	Dir       string
	MustExist bool
	Logger    *slog.Logger

	RecordCommand []string
	PlayCommand   []string
	// Extension of the files the recorder writes.
	Extension string

	// Permission gates microphone access. Nil grants it.
	Permission fs.Permission

	StopTimeout time.Duration
	Clock       func() time.Time
}

// Device implements core.Device by running external programs.
type Device struct {
	*fs.Device
	config Config

	mu       sync.Mutex
	launched int
	running  int
}

// NewDevice creates a device recording into config.Dir.
func NewDevice(config Config) *Device {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(config.RecordCommand) == 0 {
		config.RecordCommand = DefaultRecordCommand
	}
	if len(config.PlayCommand) == 0 {
		config.PlayCommand = DefaultPlayCommand
	}
	if config.Extension == "" {
		config.Extension = ".wav"
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = DefaultStopTimeout
	}
	return &Device{
		Device: fs.NewDevice(fs.Config{
			Dir:        config.Dir,
			MustExist:  config.MustExist,
			Logger:     config.Logger,
			Permission: config.Permission,
			Clock:      config.Clock,
		}),
		config: config,
	}
}

// StartCapture implements core.Microphone.
func (d *Device) StartCapture(ctx context.Context, cfg core.CaptureConfig) (core.CaptureSession, error) {
	unlock, err := tryLock(d.Path)
	if err != nil {
		return nil, err
	}

	path := d.NewPath(d.config.Extension)
	proc, err := start(d.Path, Expand(d.config.RecordCommand, path, cfg), d.config.StopTimeout, d.config.Logger)
	if err != nil {
		unlock()
		return nil, err
	}
	d.track(1)

	return &captureSession{device: d, path: path, proc: proc, unlock: unlock}, nil
}

type captureSession struct {
	device *Device
	path   string
	proc   *process
	unlock func()
	once   sync.Once
}

// Stop implements core.CaptureSession.
func (s *captureSession) Stop(ctx context.Context) (string, error) {
	stopped := false
	s.once.Do(func() { stopped = true })
	if !stopped {
		return "", fmt.Errorf("capture already stopped")
	}
	defer s.unlock()
	defer s.device.track(-1)

	// A recorder that exits before being asked to has failed.
	if s.proc.terminate(ctx, s.device.config.StopTimeout) {
		_ = os.Remove(s.path)
		return "", fmt.Errorf("%w: %v", core.ErrDevice, s.proc.failure())
	}

	info, err := os.Stat(s.path)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(s.path)
		return "", fmt.Errorf("%w: recorder produced no audio: %v", core.ErrDevice, s.proc.failure())
	}
	s.device.config.Logger.Debug("capture saved", "path", s.path, "bytes", info.Size())
	return s.path, nil
}

// Load implements core.Player. The player program is only launched on Play.
func (d *Device) Load(ctx context.Context, path string) (core.Sound, error) {
	full, err := d.Resolve(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, core.ErrResourceNotFound)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrDevice, err)
	}
	return &sound{device: d, path: full, done: make(chan struct{})}, nil
}

type sound struct {
	device *Device
	path   string

	mu       sync.Mutex
	proc     *process
	released bool
	done     chan struct{}
	once     sync.Once
}

// Play implements core.Sound.
func (s *sound) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != nil || s.released {
		return fmt.Errorf("sound %s already played", s.path)
	}

	args := Expand(s.device.config.PlayCommand, s.path, core.CaptureConfig{})
	proc, err := start(filepath.Dir(s.path), args, s.device.config.StopTimeout, s.device.config.Logger)
	if err != nil {
		return err
	}
	s.proc = proc
	s.device.track(1)

	lifecycle.Go(context.Background(), func(context.Context) error {
		<-proc.exited
		if proc.err != nil && !s.isReleased() {
			s.device.config.Logger.Warn("player exited with error", "error", proc.failure())
		}
		s.release()
		return nil
	})
	return nil
}

// Stop implements core.Sound.
func (s *sound) Stop(ctx context.Context) error {
	s.mu.Lock()
	proc := s.proc
	s.released = true
	s.mu.Unlock()

	if proc != nil {
		proc.terminate(ctx, s.device.config.StopTimeout)
	}
	s.release()
	return nil
}

// Done implements core.Sound.
func (s *sound) Done() <-chan struct{} {
	return s.done
}

func (s *sound) isReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *sound) release() {
	s.once.Do(func() {
		s.mu.Lock()
		s.released = true
		played := s.proc != nil
		s.mu.Unlock()
		if played {
			s.device.track(-1)
		}
		close(s.done)
	})
}

func (d *Device) track(delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if delta > 0 {
		d.launched++
	}
	d.running += delta
}

// DeviceState exposes internal state for observability.
type DeviceState struct {
	fs.DeviceState
	RecordCommand []string `json:"record_command"`
	PlayCommand   []string `json:"play_command"`
	Launched      int      `json:"launched"`
	Running       int      `json:"running"`
}

// State implements introspection.Introspectable.
func (d *Device) State() any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DeviceState{
		DeviceState:   d.Device.State().(fs.DeviceState),
		RecordCommand: d.config.RecordCommand,
		PlayCommand:   d.config.PlayCommand,
		Launched:      d.launched,
		Running:       d.running,
	}
}

// ComponentType implements introspection.Component.
func (d *Device) ComponentType() string {
	return "shell"
}

var _ core.Device = (*Device)(nil)
var _ core.Discarder = (*Device)(nil)
var _ core.Watchable = (*Device)(nil)
var _ introspection.Introspectable = (*Device)(nil)
