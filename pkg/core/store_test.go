package core_test

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/voicenote/pkg/core"
)

func ids(notes []core.VoiceNote) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestNoteStore_AppendRemove(t *testing.T) {
	store := core.NewNoteStore()
	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	store.Append(core.VoiceNote{ID: "1", FilePath: "a.m4a", Date: t1})
	store.Append(core.VoiceNote{ID: "2", FilePath: "b.m4a", Date: t2})
	assert.Equal(t, []string{"1", "2"}, ids(store.List()))

	assert.True(t, store.Remove("1"))
	assert.Equal(t, []string{"2"}, ids(store.List()))

	n, ok := store.Get("2")
	require.True(t, ok)
	assert.Equal(t, "b.m4a", n.FilePath)
}

func TestNoteStore_RemoveMissingIsNoop(t *testing.T) {
	store := core.NewNoteStore()
	store.Append(core.VoiceNote{ID: "1"})

	assert.False(t, store.Remove("nope"))
	assert.Equal(t, 1, store.Len())
}

func TestNoteStore_SnapshotIsolation(t *testing.T) {
	store := core.NewNoteStore()
	store.Append(core.VoiceNote{ID: "1"})
	store.Append(core.VoiceNote{ID: "2"})
	store.Append(core.VoiceNote{ID: "3"})

	snap := store.List()
	store.Remove("1")
	store.Append(core.VoiceNote{ID: "4"})

	assert.Equal(t, []string{"1", "2", "3"}, ids(snap))
	assert.Equal(t, []string{"2", "3", "4"}, ids(store.List()))

	// Writing into the snapshot does not leak back.
	snap[0].Title = "changed"
	n, _ := store.Get("2")
	assert.Empty(t, n.Title)
}

func TestNoteStore_RandomSequencesMatchModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		store := core.NewNoteStore()
		var model []string
		next := 0

		for step := 0; step < 200; step++ {
			if len(model) == 0 || rng.Intn(3) > 0 {
				next++
				id := strconv.Itoa(next)
				store.Append(core.VoiceNote{ID: id})
				model = append(model, id)
				continue
			}

			// Remove either a live id or one that never existed.
			var id string
			if rng.Intn(4) == 0 {
				id = "missing-" + strconv.Itoa(step)
			} else {
				id = model[rng.Intn(len(model))]
			}
			store.Remove(id)
			for i, m := range model {
				if m == id {
					model = append(model[:i], model[i+1:]...)
					break
				}
			}
		}

		got := ids(store.List())
		require.Equal(t, len(model), len(got), "round %d", round)
		assert.Equal(t, model, got, "round %d", round)

		seen := make(map[string]bool, len(got))
		for _, id := range got {
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
}
