package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// TempFilePrefix marks captures that are still being written.
	TempFilePrefix = ".voicenote-tmp-"
)

// createTemp opens a temporary file next to filename so the final rename
// stays on the same filesystem.
func createTemp(filename string) (*os.File, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), TempFilePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return tmpFile, nil
}

// commitTemp flushes tmpFile and moves it to filename. The temp file is
// removed on failure.
func commitTemp(tmpFile *os.File, filename string, perm os.FileMode) (err error) {
	defer func() {
		if err != nil {
			_ = os.Remove(tmpFile.Name())
		}
	}()

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}

	return nil
}

// abandonTemp closes and removes a temp file that will not be committed.
func abandonTemp(tmpFile *os.File) {
	_ = tmpFile.Close()
	_ = os.Remove(tmpFile.Name())
}

// writeFileAtomic writes data to a file atomically by writing to a temp file
// and then renaming it to the target filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := createTemp(filename)
	if err != nil {
		return err
	}

	if _, err := tmpFile.Write(data); err != nil {
		abandonTemp(tmpFile)
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	return commitTemp(tmpFile, filename, perm)
}

// WriteWAV stores pcm as a WAV file at filename.
func WriteWAV(filename string, f Format, pcm []byte) error {
	if err := f.validate(); err != nil {
		return err
	}
	return writeFileAtomic(filename, EncodeWAV(f, pcm), 0644)
}
