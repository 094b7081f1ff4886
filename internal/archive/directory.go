package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// NewDirectoryStore keeps archives as files under path, one per project.
// Writes go through a temp file and a rename so readers never observe a
// partially written archive.
func NewDirectoryStore(path string) (Store, error) {
	err := os.MkdirAll(path, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &directoryStore{path: path}, nil
}

type directoryStore struct {
	path string
}

func (s *directoryStore) Put(projectID string, data []byte) error {
	tmp, err := os.CreateTemp(s.path, projectID+".*.partial")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Close()
	} else {
		_ = tmp.Close()
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write archive: %w", err)
	}

	err = os.Rename(tmp.Name(), s.archivePath(projectID))
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize archive: %w", err)
	}

	return nil
}

func (s *directoryStore) Get(projectID string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.archivePath(projectID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read archive: %w", err)
	}

	return data, true, nil
}

func (s *directoryStore) archivePath(projectID string) string {
	return filepath.Join(s.path, projectID+".tml")
}
