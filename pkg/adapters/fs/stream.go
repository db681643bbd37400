package fs

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"
)

// SourceFunc opens a stream of little-endian PCM frames in the given format.
// Closing the stream must unblock pending reads where possible.
type SourceFunc func(f Format) (io.ReadCloser, error)

// SinkFunc opens an output for PCM frames in the given format.
type SinkFunc func(f Format) (io.WriteCloser, error)

// Silence produces zero samples at real time.
func Silence() SourceFunc {
	return func(f Format) (io.ReadCloser, error) {
		return newGenerator(f, func(int64) int16 { return 0 }), nil
	}
}

// Tone produces a sine wave at freq Hz and half amplitude, at real time.
func Tone(freq float64) SourceFunc {
	return func(f Format) (io.ReadCloser, error) {
		step := 2 * math.Pi * freq / float64(f.SampleRate)
		return newGenerator(f, func(frame int64) int16 {
			return int16(math.Sin(step*float64(frame)) * math.MaxInt16 / 2)
		}), nil
	}
}

// FromReader captures whatever r yields, e.g. raw PCM piped on stdin.
// Reads are not paced and r is never closed.
func FromReader(r io.Reader) SourceFunc {
	return func(Format) (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	}
}

// FromReaderUntilEOF is FromReader that also reports the end of r. The
// returned channel is closed once r yields io.EOF or any other error.
func FromReaderUntilEOF(r io.Reader) (SourceFunc, <-chan struct{}) {
	er := &eofReader{r: r, done: make(chan struct{})}
	return FromReader(er), er.done
}

type eofReader struct {
	r    io.Reader
	once sync.Once
	done chan struct{}
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil {
		e.once.Do(func() { close(e.done) })
	}
	return n, err
}

// DiscardSink drops every sample.
func DiscardSink() SinkFunc {
	return WriterSink(io.Discard)
}

// WriterSink writes samples to w, which is left open.
func WriterSink(w io.Writer) SinkFunc {
	return func(Format) (io.WriteCloser, error) {
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// generator synthesizes frames no faster than the wall clock allows.
type generator struct {
	format Format
	sample func(frame int64) int16
	start  time.Time
	frames int64

	closed chan struct{}
	once   sync.Once
}

func newGenerator(f Format, sample func(int64) int16) *generator {
	return &generator{
		format: f,
		sample: sample,
		start:  time.Now(),
		closed: make(chan struct{}),
	}
}

func (g *generator) Read(p []byte) (int, error) {
	frameSize := g.format.FrameSize()
	if len(p) < frameSize {
		return 0, io.ErrShortBuffer
	}

	var ready int64
	for {
		select {
		case <-g.closed:
			return 0, io.EOF
		default:
		}
		due := int64(time.Since(g.start) * time.Duration(g.format.SampleRate) / time.Second)
		if ready = due - g.frames; ready > 0 {
			break
		}
		select {
		case <-g.closed:
			return 0, io.EOF
		case <-time.After(5 * time.Millisecond):
		}
	}

	n := min(ready, int64(len(p)/frameSize))
	off := 0
	for i := int64(0); i < n; i++ {
		v := uint16(g.sample(g.frames + i))
		for c := 0; c < g.format.Channels; c++ {
			binary.LittleEndian.PutUint16(p[off:], v)
			off += 2
		}
	}
	g.frames += n
	return off, nil
}

func (g *generator) Close() error {
	g.once.Do(func() { close(g.closed) })
	return nil
}
