// Package memory provides a scripted, in-memory audio device.
// It records nothing: captures produce synthetic resource names and sounds
// only end when told to. Useful for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/voicenote/pkg/core"
)

// Device implements core.Device, core.Discarder and introspection.Component.
type Device struct {
	mu sync.Mutex

	granted bool

	// Failure injection. A non-nil value is returned by the matching call.
	PermissionErr error
	StartErr      error
	StopErr       error
	LoadErr       error
	PlayErr       error

	// LoadGate, when set, holds Load until it is closed.
	LoadGate chan struct{}

	permissionRequests int
	capturesOpened     int
	activeCaptures     int
	resources          map[string]bool
	sounds             []*Sound
}

// NewDevice creates a device that grants microphone access.
func NewDevice() *Device {
	return &Device{
		granted:   true,
		resources: make(map[string]bool),
	}
}

// SetGranted controls the answer to permission requests.
func (d *Device) SetGranted(granted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.granted = granted
}

// AddResource registers an existing audio resource.
func (d *Device) AddResource(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resources[path] = true
}

// HasResource reports whether path exists on the device.
func (d *Device) HasResource(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resources[path]
}

// RequestPermission implements core.Microphone.
func (d *Device) RequestPermission(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.permissionRequests++
	if d.PermissionErr != nil {
		return false, d.PermissionErr
	}
	return d.granted, nil
}

// StartCapture implements core.Microphone.
func (d *Device) StartCapture(ctx context.Context, cfg core.CaptureConfig) (core.CaptureSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.StartErr != nil {
		return nil, d.StartErr
	}
	d.capturesOpened++
	d.activeCaptures++
	return &captureSession{
		device: d,
		path:   fmt.Sprintf("memory://capture-%d%s", d.capturesOpened, cfg.Extension),
	}, nil
}

type captureSession struct {
	device  *Device
	path    string
	stopped bool
}

func (s *captureSession) Stop(ctx context.Context) (string, error) {
	d := s.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.stopped {
		return "", fmt.Errorf("capture already stopped")
	}
	s.stopped = true
	d.activeCaptures--
	if d.StopErr != nil {
		return "", d.StopErr
	}
	d.resources[s.path] = true
	return s.path, nil
}

// Load implements core.Player.
func (d *Device) Load(ctx context.Context, path string) (core.Sound, error) {
	d.mu.Lock()
	gate := d.LoadGate
	d.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.LoadErr != nil {
		return nil, d.LoadErr
	}
	if !d.resources[path] {
		return nil, fmt.Errorf("%s: %w", path, core.ErrResourceNotFound)
	}
	s := &Sound{device: d, Path: path, done: make(chan struct{})}
	d.sounds = append(d.sounds, s)
	return s, nil
}

// Discard implements core.Discarder.
func (d *Device) Discard(ctx context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.resources, path)
	return nil
}

// Sounds returns every sound loaded so far, oldest first.
func (d *Device) Sounds() []*Sound {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Sound, len(d.sounds))
	copy(out, d.sounds)
	return out
}

// ActiveSounds counts sounds that are playing and not yet released.
func (d *Device) ActiveSounds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.sounds {
		if s.playing && !s.released {
			n++
		}
	}
	return n
}

// Stats reports call counters.
func (d *Device) Stats() (permissionRequests, capturesOpened, activeCaptures int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.permissionRequests, d.capturesOpened, d.activeCaptures
}

// ComponentType implements introspection.Component.
func (d *Device) ComponentType() string {
	return "memory"
}

// Sound is a loaded in-memory resource.
type Sound struct {
	device *Device
	Path   string

	playing  bool
	released bool
	done     chan struct{}
}

// Play implements core.Sound.
func (s *Sound) Play(ctx context.Context) error {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	if s.device.PlayErr != nil {
		return s.device.PlayErr
	}
	if s.released {
		return fmt.Errorf("sound %s already released", s.Path)
	}
	s.playing = true
	return nil
}

// Stop implements core.Sound.
func (s *Sound) Stop(ctx context.Context) error {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	s.release()
	return nil
}

// Finish simulates the media reaching its natural end.
func (s *Sound) Finish() {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	s.release()
}

// Released reports whether the sound has been stopped or finished.
func (s *Sound) Released() bool {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	return s.released
}

// Done implements core.Sound.
func (s *Sound) Done() <-chan struct{} {
	return s.done
}

func (s *Sound) release() {
	if s.released {
		return
	}
	s.released = true
	close(s.done)
}

var _ core.Device = (*Device)(nil)
var _ core.Discarder = (*Device)(nil)
