package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/voicenote"
	"github.com/aretw0/voicenote/pkg/adapters/fs"
	"github.com/aretw0/voicenote/pkg/core"
)

// managerOptions translates the CLI configuration into manager options.
func managerOptions(c *Config, extra ...voicenote.Option) []voicenote.Option {
	opts := []voicenote.Option{
		voicenote.WithLogger(logger),
		voicenote.WithAdapter(c.Adapter),
		voicenote.WithRequireTitle(c.RequireTitle),
		voicenote.WithDeleteAudio(c.DeleteAudio),
		voicenote.WithDevSafety(c.DevSafety),
		voicenote.WithEventBuffer(c.EventBuffer),
		voicenote.WithCaptureConfig(core.CaptureConfig{
			SampleRate: c.SampleRate,
			Channels:   c.Channels,
			Extension:  ".wav",
		}),
		voicenote.WithPlaybackSpeed(c.Speed),
		voicenote.WithRecordCommand(c.RecordCommand...),
		voicenote.WithPlayCommand(c.PlayCommand...),
	}

	switch c.Source {
	case "silence":
		opts = append(opts, voicenote.WithSource(fs.Silence()))
	case "stdin":
		// Replaced by callers that read their own input.
		opts = append(opts, voicenote.WithSource(fs.FromReader(os.Stdin)))
	default:
		opts = append(opts, voicenote.WithSource(fs.Tone(c.ToneHz)))
	}
	return append(opts, extra...)
}

// prompt reads answers from the same scanner as the interactive session.
type prompt struct {
	mu  sync.Mutex
	in  *bufio.Scanner
	out io.Writer
}

// Ask prints question and reads a line. It returns false on end of input.
func (p *prompt) Ask(question string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// Permission asks the user for microphone access. A grant is remembered for
// the rest of the process.
func (p *prompt) Permission() fs.Permission {
	return fs.Remember(fs.PermissionFunc(func(ctx context.Context) (bool, error) {
		answer, ok := p.Ask("Allow voicenote to use the microphone? [y/N] ")
		if !ok {
			return false, nil
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}))
}

// syncWriter serializes writes from the event printer and the session.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
