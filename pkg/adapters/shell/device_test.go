package shell

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenote/pkg/core"
)

func requireShell(t *testing.T) {
	t.Helper()
	if !IsInstalled("sh") {
		t.Skip("sh is not installed")
	}
}

func newTestDevice(t *testing.T, cfg Config) *Device {
	t.Helper()
	requireShell(t)
	cfg.Dir = t.TempDir()
	cfg.StopTimeout = time.Second
	d := NewDevice(cfg)
	require.NoError(t, d.Initialize(context.Background()))
	return d
}

// The recorder writes a byte and then waits to be interrupted.
var fakeRecorder = []string{"sh", "-c", "printf x > '{path}'; exec sleep 30"}

func TestExpand(t *testing.T) {
	got := Expand(DefaultRecordCommand, "/tmp/a.wav", core.CaptureConfig{SampleRate: 16000, Channels: 2})
	assert.Equal(t, []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "2", "/tmp/a.wav"}, got)
	assert.Equal(t, "arecord", DefaultRecordCommand[0], "template is not modified")
}

func TestCapture(t *testing.T) {
	d := newTestDevice(t, Config{RecordCommand: fakeRecorder})
	ctx := context.Background()

	session, err := d.StartCapture(ctx, core.DefaultCaptureConfig())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(d.Path, LockFile))

	require.Eventually(t, func() bool {
		entries, _ := filepath.Glob(filepath.Join(d.Path, "*.wav"))
		return len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	path, err := session.Stop(ctx)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.NoFileExists(t, filepath.Join(d.Path, LockFile), "lock released")

	state := d.State().(DeviceState)
	assert.Equal(t, 1, state.Launched)
	assert.Zero(t, state.Running)
}

func TestCapture_RecorderExitsEarly(t *testing.T) {
	d := newTestDevice(t, Config{RecordCommand: []string{"sh", "-c", "echo 'no capture device' >&2; exit 1"}})
	ctx := context.Background()

	session, err := d.StartCapture(ctx, core.DefaultCaptureConfig())
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	_, err = session.Stop(ctx)
	require.ErrorIs(t, err, core.ErrDevice)
	assert.Contains(t, err.Error(), "no capture device")
}

func TestCapture_NoAudio(t *testing.T) {
	d := newTestDevice(t, Config{RecordCommand: []string{"sh", "-c", "exec sleep 30"}})
	ctx := context.Background()

	session, err := d.StartCapture(ctx, core.DefaultCaptureConfig())
	require.NoError(t, err)
	_, err = session.Stop(ctx)
	require.ErrorIs(t, err, core.ErrDevice)
}

func TestCapture_MissingProgram(t *testing.T) {
	d := newTestDevice(t, Config{RecordCommand: []string{"voicenote-no-such-recorder"}})

	_, err := d.StartCapture(context.Background(), core.DefaultCaptureConfig())
	require.ErrorIs(t, err, core.ErrDevice)
	assert.Contains(t, err.Error(), "not installed")
	assert.NoFileExists(t, filepath.Join(d.Path, LockFile))
}

func TestCapture_Locked(t *testing.T) {
	d := newTestDevice(t, Config{RecordCommand: fakeRecorder})
	ctx := context.Background()

	// Held by this (live) process.
	lock := filepath.Join(d.Path, LockFile)
	require.NoError(t, os.WriteFile(lock, []byte(strconv.Itoa(os.Getpid())), 0644))

	_, err := d.StartCapture(ctx, core.DefaultCaptureConfig())
	require.ErrorIs(t, err, core.ErrDevice)
	assert.Contains(t, err.Error(), "in use")

	// A stale lock is taken over.
	require.NoError(t, os.WriteFile(lock, []byte("not-a-pid"), 0644))
	session, err := d.StartCapture(ctx, core.DefaultCaptureConfig())
	require.NoError(t, err)
	_, _ = session.Stop(ctx)
}

func TestPlayback(t *testing.T) {
	d := newTestDevice(t, Config{PlayCommand: []string{"sh", "-c", "test -f '{path}'"}})
	ctx := context.Background()
	path := filepath.Join(d.Path, "a.wav")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	sound, err := d.Load(ctx, "a.wav")
	require.NoError(t, err)
	require.NoError(t, sound.Play(ctx))

	select {
	case <-sound.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("player exit did not end the sound")
	}
	require.NoError(t, sound.Stop(ctx))
	assert.Zero(t, d.State().(DeviceState).Running)
}

func TestPlayback_Stop(t *testing.T) {
	d := newTestDevice(t, Config{PlayCommand: []string{"sh", "-c", "exec sleep 30"}})
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(d.Path, "a.wav"), []byte("x"), 0644))

	sound, err := d.Load(ctx, "a.wav")
	require.NoError(t, err)
	require.NoError(t, sound.Play(ctx))

	start := time.Now()
	require.NoError(t, sound.Stop(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)
	<-sound.Done()
	assert.Error(t, sound.Play(ctx))
}

func TestLoad_Missing(t *testing.T) {
	d := newTestDevice(t, Config{})
	_, err := d.Load(context.Background(), "missing.wav")
	require.ErrorIs(t, err, core.ErrResourceNotFound)
}
