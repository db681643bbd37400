package voicenote_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aretw0/voicenote"
	"github.com/aretw0/voicenote/pkg/adapters/fs"
)

// Example_basic records a note, lists it and deletes it.
func Example_basic() {
	m, err := voicenote.New("", voicenote.WithAdapter(voicenote.AdapterMemory))
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	defer m.Close(ctx)

	m.SetTitle("Groceries")
	if err := m.StartRecording(ctx); err != nil {
		log.Fatal(err)
	}
	note, err := m.StopRecording(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, n := range m.List() {
		fmt.Println(n.Title, n.FilePath)
	}

	if err := m.Delete(ctx, note.ID); err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(m.List()), "notes left")
	// Output:
	// Groceries memory://capture-1.wav
	// 0 notes left
}

// Example_filesystem records a short tone into a WAV file.
func Example_filesystem() {
	tmpDir, err := os.MkdirTemp("", "voicenote-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	m, err := voicenote.New(tmpDir, voicenote.WithSource(fs.Tone(440)))
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	defer m.Close(ctx)

	m.SetTitle("Tuning fork")
	if err := m.StartRecording(ctx); err != nil {
		log.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	note, err := m.StopRecording(ctx)
	if err != nil {
		log.Fatal(err)
	}

	_, err = os.Stat(note.FilePath)
	fmt.Println(note.Title, err == nil)
	// Output:
	// Tuning fork true
}
