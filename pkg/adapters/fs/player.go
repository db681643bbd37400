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

// Load implements core.Player.
func (d *Device) Load(ctx context.Context, path string) (core.Sound, error) {
	full, err := d.Resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, core.ErrResourceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDevice, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrDevice, err)
	}
	wav, err := decodeHeader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDevice, path, err)
	}

	d.trackSound(1)
	return &sound{
		device: d,
		path:   full,
		file:   file,
		info:   wav,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}, nil
}

// sound streams the PCM payload of a WAV file to the device sink.
type sound struct {
	device *Device
	path   string
	file   *os.File
	info   wavInfo

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	sink    io.WriteCloser

	done     chan struct{}
	exited   chan struct{}
	release  sync.Once
	released bool
}

// Play implements core.Sound.
func (s *sound) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("sound %s already played", s.path)
	}
	if s.released {
		return fmt.Errorf("sound %s already released", s.path)
	}

	sink, err := s.device.config.Sink(s.info.Format)
	if err != nil {
		return fmt.Errorf("%w: open sink: %v", core.ErrDevice, err)
	}
	s.sink = sink
	s.started = true

	streamCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	lifecycle.Go(streamCtx, s.stream, lifecycle.WithErrorHandler(s.device.handleError))

	s.device.config.Logger.Debug("playback started", "path", s.path, "duration", s.Duration())
	return nil
}

// Duration reports the length of the sound.
func (s *sound) Duration() time.Duration {
	return s.info.Format.Duration(s.info.DataLen)
}

func (s *sound) stream(ctx context.Context) error {
	defer close(s.exited)

	cfg := s.device.config
	chunk := s.info.Format.ByteRate() * int(cfg.Chunk) / int(time.Second)
	chunk -= chunk % s.info.Format.FrameSize()
	buf := make([]byte, max(chunk, s.info.Format.FrameSize()))
	r := io.NewSectionReader(s.file, s.info.DataOffset, s.info.DataLen)

	var tick <-chan time.Time
	if cfg.Speed > 0 {
		ticker := time.NewTicker(time.Duration(float64(cfg.Chunk) / cfg.Speed))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := s.sink.Write(buf[:n]); werr != nil {
				cfg.Logger.Warn("sink write failed", "path", s.path, "error", werr)
				s.finish()
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			s.finish()
			return nil
		}
		if err != nil {
			cfg.Logger.Warn("read failed", "path", s.path, "error", err)
			s.finish()
			return nil
		}
		if tick == nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}
	}
}

// Stop implements core.Sound.
func (s *sound) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if started {
		select {
		case <-s.exited:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.finish()
	return nil
}

// Done implements core.Sound.
func (s *sound) Done() <-chan struct{} {
	return s.done
}

// finish releases the file and the sink exactly once.
func (s *sound) finish() {
	s.release.Do(func() {
		s.mu.Lock()
		s.released = true
		sink := s.sink
		s.mu.Unlock()

		if sink != nil {
			if err := sink.Close(); err != nil {
				s.device.config.Logger.Debug("sink close failed", "path", s.path, "error", err)
			}
		}
		_ = s.file.Close()
		s.device.trackSound(-1)
		close(s.done)
	})
}
