package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenote/pkg/adapters/shell"
)

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDir, c.Dir)
	assert.Equal(t, DefaultAdapter, c.Adapter)
	assert.True(t, c.RequireTitle)
	assert.False(t, c.DeleteAudio)
	assert.Equal(t, DefaultSampleRate, c.SampleRate)
	assert.Equal(t, DefaultChannels, c.Channels)
	assert.Equal(t, "tone", c.Source)
	assert.Equal(t, 1.0, c.Speed)
	assert.Equal(t, shell.DefaultRecordCommand, c.RecordCommand)
	assert.Equal(t, shell.DefaultPlayCommand, c.PlayCommand)
	assert.Zero(t, c.MaxDuration)
	assert.Equal(t, slog.LevelInfo, c.Log.Level)
	assert.Empty(t, c.Log.File)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("VOICENOTE_ADAPTER", "memory")
	t.Setenv("VOICENOTE_REQUIRE_TITLE", "false")
	t.Setenv("VOICENOTE_MAX_DURATION", "3s")
	t.Setenv("VOICENOTE_RECORD_COMMAND", "rec,-q,{path}")
	t.Setenv("VOICENOTE_LOG_LEVEL", "debug")
	t.Setenv("VOICENOTE_LOG_FILE", "/tmp/voicenote.log")

	c, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "memory", c.Adapter)
	assert.False(t, c.RequireTitle)
	assert.Equal(t, 3*time.Second, c.MaxDuration)
	assert.Equal(t, []string{"rec", "-q", "{path}"}, c.RecordCommand)
	assert.Equal(t, slog.LevelDebug, c.Log.Level)
	assert.Equal(t, "/tmp/voicenote.log", c.Log.File)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicenote.yaml")
	content := `
dir: /srv/notes
source: silence
sample_rate: 16000
delete_audio: true
play_command: [paplay, "{path}"]
log:
  level: warn
  max_backups: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/srv/notes", c.Dir)
	assert.Equal(t, "silence", c.Source)
	assert.Equal(t, 16000, c.SampleRate)
	assert.True(t, c.DeleteAudio)
	assert.Equal(t, []string{"paplay", "{path}"}, c.PlayCommand)
	assert.Equal(t, slog.LevelWarn, c.Log.Level)
	assert.Equal(t, 7, c.Log.MaxBackups)
	assert.Equal(t, 28, c.Log.MaxAgeDays, "unset keys keep their default")
}

func TestLoadConfig_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("VOICENOTE_DIR", "/from/env")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("dir", DefaultDir, "")
	cmd.Flags().String("adapter", DefaultAdapter, "")
	require.NoError(t, cmd.Flags().Set("dir", "/from/flag"))

	c, err := LoadConfig("", cmd)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", c.Dir)
	assert.Equal(t, DefaultAdapter, c.Adapter)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("source", func(t *testing.T) {
		t.Setenv("VOICENOTE_SOURCE", "radio")
		_, err := LoadConfig("", nil)
		assert.ErrorContains(t, err, "unknown source")
	})

	t.Run("format", func(t *testing.T) {
		t.Setenv("VOICENOTE_CHANNELS", "0")
		_, err := LoadConfig("", nil)
		assert.ErrorContains(t, err, "invalid capture format")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		assert.Error(t, err)
	})
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicenote.log")

	l, closer := newLogger(LogConfig{File: path, Level: slog.LevelInfo, MaxSizeMB: 1}, false, os.Stderr)
	require.NotNil(t, closer)
	l.Info("hello", "key", "value")
	l.Debug("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.NotContains(t, string(data), "hidden")
}
