package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenote/pkg/core"
)

func TestSource_ForwardsAndCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 3)
	in <- core.Event{Type: core.EventRecordingStarted}
	in <- core.Event{Type: core.EventNoteAdded, NoteID: "1"}
	close(in)

	src := NewSource(in)
	require.NoError(t, src.Start(ctx))

	var got []string
	for e := range src.Events() {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{"recording.started", "note.added 1"}, got)
}

func TestSource_Filters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 3)
	in <- core.Event{Type: core.EventRecordingStarted}
	in <- core.Event{Type: core.EventPlaybackFinished, NoteID: "7"}
	close(in)

	src := NewSource(in, core.EventPlaybackFinished)
	require.NoError(t, src.Start(ctx))

	e, ok := <-src.Events()
	require.True(t, ok)
	ev, isNote := e.(core.Event)
	require.True(t, isNote)
	assert.Equal(t, "7", ev.NoteID)

	_, ok = <-src.Events()
	assert.False(t, ok)
}

func TestSource_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewSource(make(chan core.Event))
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("source did not close after cancel")
	}
}
