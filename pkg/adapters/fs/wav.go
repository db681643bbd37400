package fs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/voicenote/pkg/core"
)

const (
	wavHeaderSize = 44
	pcmFormat     = 1
	bitsPerSample = 16
)

// ErrInvalidWAV is returned when a file does not carry a PCM WAV header.
var ErrInvalidWAV = errors.New("invalid wav file")

// Format describes the PCM layout of a capture or a sound.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// FormatOf converts a capture configuration into a 16-bit PCM format.
func FormatOf(cfg core.CaptureConfig) Format {
	return Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels, BitsPerSample: bitsPerSample}
}

// FrameSize is the number of bytes holding one sample for every channel.
func (f Format) FrameSize() int {
	return f.Channels * f.BitsPerSample / 8
}

// ByteRate is the number of bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.FrameSize()
}

// Duration returns how long n bytes of PCM last.
func (f Format) Duration(n int64) time.Duration {
	rate := f.ByteRate()
	if rate == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}

func (f Format) validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("unsupported format: %d Hz, %d channels", f.SampleRate, f.Channels)
	}
	if f.BitsPerSample != bitsPerSample {
		return fmt.Errorf("unsupported format: %d bits per sample", f.BitsPerSample)
	}
	return nil
}

// header encodes a canonical 44-byte RIFF header for dataLen bytes of PCM.
func (f Format) header(dataLen int64) []byte {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(pcmFormat))
	binary.Write(&buf, binary.LittleEndian, uint16(f.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(f.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(f.ByteRate()))
	binary.Write(&buf, binary.LittleEndian, uint16(f.FrameSize()))
	binary.Write(&buf, binary.LittleEndian, uint16(f.BitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	return buf.Bytes()
}

// EncodeWAV wraps raw PCM into a WAV container.
func EncodeWAV(f Format, pcm []byte) []byte {
	out := f.header(int64(len(pcm)))
	return append(out, pcm...)
}

// wavInfo locates the PCM payload inside a WAV file.
type wavInfo struct {
	Format     Format
	DataOffset int64
	DataLen    int64
}

// decodeHeader walks the RIFF chunks of r until it finds the data chunk.
// size is the total file size and clamps headers left unpatched by an
// interrupted capture.
func decodeHeader(r io.ReaderAt, size int64) (wavInfo, error) {
	var info wavInfo

	riff := make([]byte, 12)
	if _, err := r.ReadAt(riff, 0); err != nil {
		return info, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return info, fmt.Errorf("%w: missing RIFF/WAVE tag", ErrInvalidWAV)
	}

	var haveFormat bool
	offset := int64(12)
	chunk := make([]byte, 8)
	for offset+8 <= size {
		if _, err := r.ReadAt(chunk, offset); err != nil {
			return info, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		id := string(chunk[0:4])
		length := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		body := offset + 8

		switch id {
		case "fmt ":
			if length < 16 {
				return info, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			fmtChunk := make([]byte, 16)
			if _, err := r.ReadAt(fmtChunk, body); err != nil {
				return info, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
			if binary.LittleEndian.Uint16(fmtChunk[0:2]) != pcmFormat {
				return info, fmt.Errorf("%w: only PCM is supported", ErrInvalidWAV)
			}
			info.Format = Format{
				Channels:      int(binary.LittleEndian.Uint16(fmtChunk[2:4])),
				SampleRate:    int(binary.LittleEndian.Uint32(fmtChunk[4:8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(fmtChunk[14:16])),
			}
			haveFormat = true
		case "data":
			if !haveFormat {
				return info, fmt.Errorf("%w: data before fmt", ErrInvalidWAV)
			}
			if err := info.Format.validate(); err != nil {
				return info, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
			info.DataOffset = body
			info.DataLen = min(length, size-body)
			return info, nil
		}

		// Chunks are word aligned.
		offset = body + length + length%2
	}
	return info, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
}

// Probe reads the header of the WAV file at path.
func Probe(path string) (Format, time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Format{}, 0, err
	}
	wav, err := decodeHeader(f, info.Size())
	if err != nil {
		return Format{}, 0, err
	}
	return wav.Format, wav.Format.Duration(wav.DataLen), nil
}
