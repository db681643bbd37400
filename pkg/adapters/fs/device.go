// Package fs implements an audio device backed by a notes directory.
//
// Captures stream raw 16-bit PCM from a Source into WAV files that are
// committed atomically when the capture stops. Playback decodes those files
// and streams the samples to a Sink paced at real time.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/voicenote/pkg/core"
)

// DefaultChunk is the amount of audio handled per read or write.
const DefaultChunk = 20 * time.Millisecond

// Config holds the configuration for the filesystem device.
type Config struct {
	Dir       string
	MustExist bool
	Logger    *slog.Logger

	// Permission gates microphone access. Nil grants it.
	Permission Permission
	// Source opens the PCM stream for a capture. Nil records silence.
	Source SourceFunc
	// Sink opens the output for a sound. Nil discards the samples.
	Sink SinkFunc

	// Speed scales playback pacing. 1 is real time, 0 plays as fast as
	// the sink accepts data.
	Speed float64
	Chunk time.Duration

	// Prefix of the generated file names.
	Prefix string
	Clock  func() time.Time

	// ErrorHandler receives errors from background workers.
	ErrorHandler func(error)
}

// Device implements core.Device, core.Discarder and core.Watchable on a
// directory of WAV files.
type Device struct {
	Path   string
	config Config

	mu             sync.RWMutex
	capturesOpened int
	activeCaptures int
	soundsLoaded   int
	activeSounds   int
	watcherActive  bool
	lastEvent      *time.Time
}

// NewDevice creates a device rooted at config.Dir.
func NewDevice(config Config) *Device {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Permission == nil {
		config.Permission = AlwaysGrant()
	}
	if config.Source == nil {
		config.Source = Silence()
	}
	if config.Sink == nil {
		config.Sink = DiscardSink()
	}
	if config.Chunk <= 0 {
		config.Chunk = DefaultChunk
	}
	if config.Speed < 0 {
		config.Speed = 0
	}
	if config.Prefix == "" {
		config.Prefix = "note-"
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Device{
		Path:   config.Dir,
		config: config,
	}
}

// Initialize prepares the notes directory.
func (d *Device) Initialize(ctx context.Context) error {
	if d.config.MustExist {
		info, err := os.Stat(d.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("notes directory does not exist: %s", d.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("notes path is not a directory: %s", d.Path)
		}
		return nil
	}
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}
	return d.sweepTemp()
}

// sweepTemp removes captures left behind by a crashed process.
func (d *Device) sweepTemp() error {
	matches, err := filepath.Glob(filepath.Join(d.Path, TempFilePrefix+"*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		d.config.Logger.Debug("removing stale capture", "path", m)
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// RequestPermission implements core.Microphone.
func (d *Device) RequestPermission(ctx context.Context) (bool, error) {
	return d.config.Permission.Request(ctx)
}

// Discard implements core.Discarder. Paths outside the notes directory are
// refused.
func (d *Device) Discard(ctx context.Context, path string) error {
	full, err := d.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", core.ErrDevice, err)
	}
	d.config.Logger.Debug("resource discarded", "path", full)
	return nil
}

// Resolve maps a resource path to an absolute path inside the notes directory.
func (d *Device) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path: %w", core.ErrResourceNotFound)
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(d.Path, full)
	}
	root, err := filepath.Abs(d.Path)
	if err != nil {
		return "", err
	}
	full, err = filepath.Abs(full)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s: %w", path, d.Path, core.ErrResourceNotFound)
	}
	return full, nil
}

// NewPath picks an unused file name for a new capture.
func (d *Device) NewPath(ext string) string {
	stamp := d.config.Clock().Format("20060102-150405.000")
	stamp = strings.ReplaceAll(stamp, ".", "")
	base := filepath.Join(d.Path, d.config.Prefix+stamp)
	name := base + ext
	for i := 2; ; i++ {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
}

func (d *Device) trackCapture(delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if delta > 0 {
		d.capturesOpened++
	}
	d.activeCaptures += delta
}

func (d *Device) trackSound(delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if delta > 0 {
		d.soundsLoaded++
	}
	d.activeSounds += delta
}

var _ core.Device = (*Device)(nil)
var _ core.Discarder = (*Device)(nil)
var _ core.Watchable = (*Device)(nil)
