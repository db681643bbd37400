package platform_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenote/internal/platform"
	"github.com/aretw0/voicenote/pkg/adapters/fs"
	"github.com/aretw0/voicenote/pkg/adapters/memory"
	"github.com/aretw0/voicenote/pkg/adapters/shell"
	"github.com/aretw0/voicenote/pkg/core"
)

func TestInit_Adapters(t *testing.T) {
	t.Run("Default Is FS", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "notes")
		device, err := platform.Init(dir)
		require.NoError(t, err)

		fsDevice, ok := device.(*fs.Device)
		require.True(t, ok, "expected fs device, got %T", device)
		assert.Equal(t, dir, fsDevice.Path)
		assert.DirExists(t, dir)
	})

	t.Run("Shell", func(t *testing.T) {
		device, err := platform.Init(t.TempDir(), platform.WithAdapter(platform.AdapterShell))
		require.NoError(t, err)
		_, ok := device.(*shell.Device)
		assert.True(t, ok)
	})

	t.Run("Memory", func(t *testing.T) {
		device, err := platform.Init("", platform.WithAdapter(platform.AdapterMemory))
		require.NoError(t, err)
		_, ok := device.(*memory.Device)
		assert.True(t, ok)
	})

	t.Run("Injected Device Wins", func(t *testing.T) {
		injected := memory.NewDevice()
		device, err := platform.Init("ignored", platform.WithAdapter("nope"), platform.WithDevice(injected))
		require.NoError(t, err)
		assert.Same(t, injected, device)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.Init(t.TempDir(), platform.WithAdapter("tape"))
		assert.ErrorContains(t, err, "unknown adapter")
	})

	t.Run("MustExist", func(t *testing.T) {
		_, err := platform.Init(filepath.Join(t.TempDir(), "missing"), platform.WithMustExist(true))
		assert.Error(t, err)
	})
}

func TestInit_DevSafetyRedirects(t *testing.T) {
	// Running under go test counts as a dev run: relative paths are sandboxed.
	device, err := platform.Init("voicenote-factory-test", platform.WithForceTemp(true))
	require.NoError(t, err)
	fsDevice := device.(*fs.Device)
	t.Cleanup(func() { os.RemoveAll(fsDevice.Path) })

	assert.Equal(t, filepath.Join(os.TempDir(), platform.DevDirName, "voicenote-factory-test"), fsDevice.Path)
	_, err = os.Stat("voicenote-factory-test")
	assert.True(t, os.IsNotExist(err), "nothing is created in the working directory")
}

func TestNew_RecordsOnFilesystem(t *testing.T) {
	dir := t.TempDir()
	pcm := bytes.Repeat([]byte{3, 0}, 100)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	m, err := platform.New(dir,
		platform.WithSource(fs.FromReader(bytes.NewReader(pcm))),
		platform.WithPlaybackSpeed(0),
		platform.WithClock(func() time.Time { return at }),
		platform.WithIDGenerator(func(time.Time) (string, error) { return "fixed", nil }),
		platform.WithCaptureConfig(core.CaptureConfig{SampleRate: 8000, Channels: 1, Extension: ".wav"}),
	)
	require.NoError(t, err)
	ctx := context.Background()
	defer m.Close(ctx)

	m.SetTitle("First")
	require.NoError(t, m.StartRecording(ctx))
	note, err := m.StopRecording(ctx)
	require.NoError(t, err)

	assert.Equal(t, "fixed", note.ID)
	assert.Equal(t, at, note.Date)
	assert.Equal(t, filepath.Join(dir, "note-20240501-100000000.wav"), note.FilePath)
	assert.FileExists(t, note.FilePath)
}

func TestNew_Options(t *testing.T) {
	m, err := platform.New("",
		platform.WithAdapter(platform.AdapterMemory),
		platform.WithRequireTitle(false),
		platform.WithDeleteAudio(true),
		platform.WithEventBuffer(1),
	)
	require.NoError(t, err)
	ctx := context.Background()
	defer m.Close(ctx)

	require.NoError(t, m.StartRecording(ctx))
	note, err := m.StopRecording(ctx)
	require.NoError(t, err, "title is optional")
	require.NoError(t, m.Delete(ctx, note.ID))
	assert.Empty(t, m.List())
}

func TestNew_PermissionDenied(t *testing.T) {
	m, err := platform.New(t.TempDir(), platform.WithPermission(fs.Deny()))
	require.NoError(t, err)
	ctx := context.Background()
	defer m.Close(ctx)

	err = m.StartRecording(ctx)
	require.ErrorIs(t, err, core.ErrPermissionDenied)
}
