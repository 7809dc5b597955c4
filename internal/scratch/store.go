// Package scratch persists uploaded audio bytes to uniquely named temporary
// files for the duration of one transcription call.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store writes scratch files under Dir. Names are uuid-based, so concurrent
// requests never collide.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, defaulting to the system temp
// directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{dir: dir}
}

// Dir returns the directory scratch files are written to.
func (s *Store) Dir() string { return s.dir }

// Persist writes data to a new scratch file carrying the upload's extension
// and returns its path once the bytes are durably flushed. If any step
// fails, the partial file is removed before the error is returned, so a
// failed Persist never leaves anything behind.
func (s *Store) Persist(data []byte, ext string) (string, error) {
	path := filepath.Join(s.dir, "audio-"+uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("sync scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close scratch file: %w", err)
	}
	return path, nil
}

// Release unlinks a scratch file. Must be called exactly once per successful
// Persist; a failure to remove is logged rather than propagated since the
// transcription outcome is already decided by then.
func (s *Store) Release(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("failed to remove scratch file")
	}
}
