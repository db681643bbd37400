package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/voicenote/pkg/core"
)

// stopGrace bounds how long Stop waits for the source to drain.
const stopGrace = 250 * time.Millisecond

// StartCapture implements core.Microphone. Samples are appended to a hidden
// temp file until Stop commits it under its final name.
func (d *Device) StartCapture(ctx context.Context, cfg core.CaptureConfig) (core.CaptureSession, error) {
	format := FormatOf(cfg)
	if err := format.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDevice, err)
	}
	if cfg.Extension != "" && cfg.Extension != ".wav" {
		d.config.Logger.Debug("extension not supported, using .wav", "extension", cfg.Extension)
	}

	filename := d.NewPath(".wav")
	tmp, err := createTemp(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDevice, err)
	}
	// Placeholder header, patched with the final sizes on Stop.
	if _, err := tmp.Write(format.header(0)); err != nil {
		abandonTemp(tmp)
		return nil, fmt.Errorf("%w: %v", core.ErrDevice, err)
	}

	src, err := d.config.Source(format)
	if err != nil {
		abandonTemp(tmp)
		return nil, fmt.Errorf("%w: open source: %v", core.ErrDevice, err)
	}

	s := &captureSession{
		device:   d,
		format:   format,
		filename: filename,
		tmp:      tmp,
		src:      src,
		done:     make(chan struct{}),
	}
	d.trackCapture(1)
	d.config.Logger.Debug("capture started", "path", filename, "rate", format.SampleRate, "channels", format.Channels)

	pumpCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	lifecycle.Go(pumpCtx, s.pump, lifecycle.WithErrorHandler(d.handleError))
	return s, nil
}

type captureSession struct {
	device   *Device
	format   Format
	filename string
	tmp      *os.File
	src      io.ReadCloser
	cancel   context.CancelFunc
	done     chan struct{}

	mu       sync.Mutex
	written  int64
	err      error
	stopping bool
	stopped  bool
}

// pump copies frames from the source into the temp file until the source
// ends or the session stops. Failures are reported by Stop.
func (s *captureSession) pump(ctx context.Context) error {
	defer close(s.done)

	chunk := s.format.ByteRate() * int(s.device.config.Chunk) / int(time.Second)
	chunk -= chunk % s.format.FrameSize()
	buf := make([]byte, max(chunk, s.format.FrameSize()))

	for ctx.Err() == nil {
		n, err := s.src.Read(buf)
		if n > 0 {
			s.mu.Lock()
			if s.stopped {
				s.mu.Unlock()
				return nil
			}
			if _, werr := s.tmp.Write(buf[:n]); werr != nil {
				s.err = werr
				s.mu.Unlock()
				return nil
			}
			s.written += int64(n)
			s.mu.Unlock()
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			s.mu.Lock()
			if !s.stopped {
				s.err = err
			}
			s.mu.Unlock()
			return nil
		}
	}
	return nil
}

// Stop implements core.CaptureSession.
func (s *captureSession) Stop(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return "", fmt.Errorf("capture already stopped")
	}
	s.stopping = true
	s.mu.Unlock()
	defer s.device.trackCapture(-1)

	_ = s.src.Close()
	select {
	case <-s.done:
	case <-ctx.Done():
	case <-time.After(stopGrace):
		s.device.config.Logger.Debug("source did not drain, finalizing", "path", s.filename)
	}

	s.mu.Lock()
	s.stopped = true
	written, perr := s.written, s.err
	s.mu.Unlock()
	s.cancel()

	if perr != nil {
		abandonTemp(s.tmp)
		return "", fmt.Errorf("%w: capture failed: %v", core.ErrDevice, perr)
	}

	// Drop a trailing partial frame.
	written -= written % int64(s.format.FrameSize())
	if err := s.tmp.Truncate(wavHeaderSize + written); err != nil {
		abandonTemp(s.tmp)
		return "", fmt.Errorf("%w: %v", core.ErrDevice, err)
	}
	if _, err := s.tmp.WriteAt(s.format.header(written), 0); err != nil {
		abandonTemp(s.tmp)
		return "", fmt.Errorf("%w: %v", core.ErrDevice, err)
	}
	if err := commitTemp(s.tmp, s.filename, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrDevice, err)
	}

	s.device.config.Logger.Debug("capture saved", "path", s.filename, "duration", s.format.Duration(written))
	return s.filename, nil
}

func (d *Device) handleError(err error) {
	if d.config.ErrorHandler != nil {
		d.config.ErrorHandler(err)
		return
	}
	d.config.Logger.Error("background task failed", "error", err)
}
