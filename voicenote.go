package voicenote

import (
	"log/slog"
	"time"

	"github.com/aretw0/voicenote/internal/platform"
	"github.com/aretw0/voicenote/pkg/adapters/fs"
	"github.com/aretw0/voicenote/pkg/core"
)

// --- Types ---

// Manager is the public alias for the voice note manager.
type Manager = core.Manager

// VoiceNote is the public alias for a saved recording.
type VoiceNote = core.VoiceNote

// Event is the public alias for manager notifications.
type Event = core.Event

// --- Configuration ---

// Option defines a functional option for configuring the manager.
type Option = platform.Option

// Adapter names.
const (
	AdapterFS     = platform.AdapterFS
	AdapterShell  = platform.AdapterShell
	AdapterMemory = platform.AdapterMemory
)

// WithLogger sets the logger for the manager and its device.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithDevice allows injecting a custom audio device.
func WithDevice(device core.Device) Option {
	return platform.WithDevice(device)
}

// WithAdapter selects the device adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithClock overrides the time source used for note dates.
func WithClock(clock func() time.Time) Option {
	return platform.WithClock(clock)
}

// WithIDGenerator overrides how note ids are minted.
func WithIDGenerator(gen core.IDGenerator) Option {
	return platform.WithIDGenerator(gen)
}

// WithCaptureConfig sets the audio format requested from the microphone.
func WithCaptureConfig(cfg core.CaptureConfig) Option {
	return platform.WithCaptureConfig(cfg)
}

// WithRequireTitle controls whether a note can be saved without a title.
func WithRequireTitle(required bool) Option {
	return platform.WithRequireTitle(required)
}

// WithDeleteAudio makes Delete remove the audio file along with the note.
func WithDeleteAudio(enabled bool) Option {
	return platform.WithDeleteAudio(enabled)
}

// WithEventBuffer allows specifying the size of each subscriber buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the notes directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithDevSafety controls the sandbox used when running via `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithPermission sets the microphone permission gate.
func WithPermission(p fs.Permission) Option {
	return platform.WithPermission(p)
}

// WithSource sets the PCM source of the fs adapter.
func WithSource(src fs.SourceFunc) Option {
	return platform.WithSource(src)
}

// WithSink sets the PCM output of the fs adapter.
func WithSink(sink fs.SinkFunc) Option {
	return platform.WithSink(sink)
}

// WithPlaybackSpeed scales the fs adapter playback pacing.
func WithPlaybackSpeed(speed float64) Option {
	return platform.WithPlaybackSpeed(speed)
}

// WithRecordCommand sets the recorder program of the shell adapter.
func WithRecordCommand(args ...string) Option {
	return platform.WithRecordCommand(args...)
}

// WithPlayCommand sets the player program of the shell adapter.
func WithPlayCommand(args ...string) Option {
	return platform.WithPlayCommand(args...)
}

// WithWatcherErrorHandler registers a callback for watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a Manager recording into dir.
func New(dir string, opts ...Option) (*Manager, error) {
	return platform.New(dir, opts...)
}

// Init prepares the audio device explicitly.
func Init(dir string, opts ...Option) (core.Device, error) {
	return platform.Init(dir, opts...)
}

// --- Safety & Utils ---

// ResolveNotesDir determines the actual notes directory based on safety rules.
func ResolveNotesDir(userPath string, forceTemp bool) string {
	return platform.ResolveNotesDir(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
