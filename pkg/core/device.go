package core

import "context"

// CaptureConfig describes the audio format requested from the microphone.
type CaptureConfig struct {
	SampleRate int
	Channels   int
	// Extension of the produced resource, including the dot (e.g. ".wav").
	Extension string
}

// DefaultCaptureConfig matches a mono 44.1kHz voice memo.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: 44100,
		Channels:   1,
		Extension:  ".wav",
	}
}

// Microphone defines the contract for the audio-capture capability.
// Adhering to this interface keeps the controllers independent of the
// platform (files + PCM source, external recorder process, test double).
type Microphone interface {
	// RequestPermission asks for microphone access. Denial is not an error.
	RequestPermission(ctx context.Context) (bool, error)

	// StartCapture opens a capture sink writing to a new resource.
	StartCapture(ctx context.Context, cfg CaptureConfig) (CaptureSession, error)
}

// CaptureSession is a handle to an in-progress capture.
type CaptureSession interface {
	// Stop finalizes the capture and returns the resource location.
	Stop(ctx context.Context) (string, error)
}

// Player defines the contract for the audio-playback capability.
type Player interface {
	// Load prepares the resource at path for playback.
	Load(ctx context.Context, path string) (Sound, error)
}

// Sound is a loaded resource ready to be played.
type Sound interface {
	// Play starts the output. It returns once audio is flowing.
	Play(ctx context.Context) error

	// Stop releases the resource. Calling it more than once is safe.
	Stop(ctx context.Context) error

	// Done is closed when the media reaches its natural end or the sound is stopped.
	Done() <-chan struct{}
}

// Device bundles both capabilities, which is how most adapters ship them.
type Device interface {
	Microphone
	Player
}

// Discarder is implemented by devices able to remove an abandoned resource.
type Discarder interface {
	Discard(ctx context.Context, path string) error
}

// Watchable is implemented by devices that can report external changes to
// their resources (e.g. files removed from the notes directory).
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
