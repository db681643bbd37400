package core

import "time"

// VoiceNote is the central entity of the domain.
// It is created when a recording stops successfully and is immutable afterwards.
type VoiceNote struct {
	ID       string        `json:"id" yaml:"id"`
	Title    string        `json:"title,omitempty" yaml:"title,omitempty"`
	FilePath string        `json:"file_path" yaml:"file_path"`
	Date     time.Time     `json:"date" yaml:"date"`
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Capture is the result of a finished recording session.
// It references the audio resource written by the device.
type Capture struct {
	Path      string
	StartedAt time.Time
	StoppedAt time.Time
}

// Duration reports how long the capture ran.
func (c Capture) Duration() time.Duration {
	if c.StoppedAt.Before(c.StartedAt) {
		return 0
	}
	return c.StoppedAt.Sub(c.StartedAt)
}

// Draft holds the fields required to turn a Capture into a VoiceNote.
type Draft struct {
	Title string `validate:"required_if=RequireTitle true"`
	Path  string `validate:"required"`

	RequireTitle bool
}
