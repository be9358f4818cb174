package jobs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// spoolChunkSize is the copy buffer used when writing uploads.
const spoolChunkSize = 1 << 20

// Spool keeps uploaded audio on local disk until its job finishes.
type Spool struct {
	dir string
}

// NewSpool returns a Spool writing under dir. The directory is created on
// first use.
func NewSpool(dir string) *Spool {
	return &Spool{dir: dir}
}

// Dir returns the spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Save writes r to <dir>/<id><ext> and returns the path. A partially
// written file is removed on failure.
func (s *Spool) Save(id, ext string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating audio directory: %w", err)
	}

	name := filepath.Join(s.dir, id+ext)
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}

	_, copyErr := io.CopyBuffer(onlyWriter{f}, r, make([]byte, spoolChunkSize))
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(name)
		if copyErr != nil {
			return "", fmt.Errorf("writing %s: %w", filepath.Base(name), copyErr)
		}
		return "", fmt.Errorf("closing %s: %w", filepath.Base(name), closeErr)
	}
	return name, nil
}

// Remove deletes a spooled file. Removing a file that is already gone is
// not an error.
func (s *Spool) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// onlyWriter hides *os.File's ReadFrom so io.CopyBuffer uses the buffer.
type onlyWriter struct {
	io.Writer
}
