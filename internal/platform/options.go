package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/voicenote/pkg/adapters/fs"
	"github.com/aretw0/voicenote/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterShell  = "shell"
	AdapterMemory = "memory"
)

// options holds the internal configuration for the voice note manager.
type options struct {
	device       core.Device
	logger       *slog.Logger
	adapter      string
	clock        func() time.Time
	idGenerator  core.IDGenerator
	capture      core.CaptureConfig
	requireTitle bool
	deleteAudio  bool
	eventBuffer  int
	config       map[string]interface{}
}

// Option defines a functional option for configuring the manager.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:      AdapterFS,
		capture:      core.DefaultCaptureConfig(),
		requireTitle: true,
		config:       make(map[string]interface{}),
	}
}

// WithLogger sets the logger for the manager and its device.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDevice allows injecting a custom audio device (e.g. a platform binding).
// If provided, the adapter selected by WithAdapter is skipped.
func WithDevice(device core.Device) Option {
	return func(o *options) {
		o.device = device
	}
}

// WithAdapter selects the device adapter by name ("fs", "shell", "memory").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithClock overrides the time source used for note dates.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithIDGenerator overrides how note ids are minted. Defaults to UUIDv7.
func WithIDGenerator(gen core.IDGenerator) Option {
	return func(o *options) {
		o.idGenerator = gen
	}
}

// WithCaptureConfig sets the audio format requested from the microphone.
func WithCaptureConfig(cfg core.CaptureConfig) Option {
	return func(o *options) {
		o.capture = cfg
	}
}

// WithRequireTitle controls whether a note can be saved without a title.
// By default a title is required.
func WithRequireTitle(required bool) Option {
	return func(o *options) {
		o.requireTitle = required
	}
}

// WithDeleteAudio makes Delete remove the audio file along with the note.
func WithDeleteAudio(enabled bool) Option {
	return func(o *options) {
		o.deleteAudio = enabled
	}
}

// WithEventBuffer allows specifying the size of each subscriber buffer.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist ensures the notes directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. By default (true), captures go to a temporary directory so a
// development run never writes into the user's notes.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithPermission sets the microphone permission gate of the fs and shell adapters.
func WithPermission(p fs.Permission) Option {
	return func(o *options) {
		o.config["permission"] = p
	}
}

// WithSource sets the PCM source of the fs adapter.
func WithSource(src fs.SourceFunc) Option {
	return func(o *options) {
		o.config["source"] = src
	}
}

// WithSink sets the PCM output of the fs adapter.
func WithSink(sink fs.SinkFunc) Option {
	return func(o *options) {
		o.config["sink"] = sink
	}
}

// WithPlaybackSpeed scales the fs adapter playback pacing (1 = real time, 0 = unpaced).
func WithPlaybackSpeed(speed float64) Option {
	return func(o *options) {
		o.config["speed"] = speed
	}
}

// WithRecordCommand sets the recorder program of the shell adapter.
// Arguments may use the {path}, {rate} and {channels} placeholders.
func WithRecordCommand(args ...string) Option {
	return func(o *options) {
		o.config["record_command"] = args
	}
}

// WithPlayCommand sets the player program of the shell adapter.
func WithPlayCommand(args ...string) Option {
	return func(o *options) {
		o.config["play_command"] = args
	}
}

// WithWatcherErrorHandler registers a callback for errors raised while
// watching the notes directory.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
