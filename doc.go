// Package voicenote is the Composition Root for the voice note manager.
//
// It connects the core state machines (recording, playback and the note
// store) with an audio device adapter using the Hexagonal Architecture
// pattern.
//
// Adapters:
//
//   - fs: streams PCM from a source into WAV files and plays them to a sink.
//   - shell: drives external programs such as arecord and aplay.
//   - memory: a scripted device for tests and demos.
//
// Usage:
//
//	m, err := voicenote.New("./notes", voicenote.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer m.Close(ctx)
//
//	m.SetTitle("Groceries")
//	_ = m.StartRecording(ctx)
//	note, err := m.StopRecording(ctx)
//
// Notes live in memory for the lifetime of the Manager; the audio files
// stay in the notes directory.
package voicenote
