package core

import (
	"slices"
	"sync"
)

// NoteStore is the ordered, in-memory collection of voice notes.
// It is the only owner of the collection; List hands out copies.
type NoteStore struct {
	mu    sync.RWMutex
	notes []VoiceNote
}

// NewNoteStore creates an empty store.
func NewNoteStore() *NoteStore {
	return &NoteStore{}
}

// Append inserts n at the end. Id uniqueness is the caller's responsibility.
func (s *NoteStore) Append(n VoiceNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
}

// Remove deletes the entry with the given id and reports whether it existed.
func (s *NoteStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.notes, func(n VoiceNote) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	s.notes = slices.Delete(s.notes, i, i+1)
	return true
}

// Get looks up a note by id.
func (s *NoteStore) Get(id string) (VoiceNote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return VoiceNote{}, false
}

// List returns a snapshot in insertion order.
func (s *NoteStore) List() []VoiceNote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

// Len returns the number of notes.
func (s *NoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}
