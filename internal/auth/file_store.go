package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/smorand/slides-checker/internal/fsutil"
)

// fileStoreMu serialises Save across every FileStore in the process, so two
// stores pointing at one file cannot interleave their read and rename.
var fileStoreMu sync.Mutex

// FileStore keeps the credential in a JSON file. Writes go to a temporary
// file in the same directory which is then renamed over the target, so a
// reader never sees a partial file.
type FileStore struct {
	path string
}

// NewFileStore creates a new FileStore.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the credential file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the credential file.
func (s *FileStore) Load(ctx context.Context) (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}
	return &cred, nil
}

// Save atomically replaces the credential file. A stored credential that
// supersedes cred was written by a concurrent refresh and is kept.
func (s *FileStore) Save(ctx context.Context, cred *Credential) error {
	fileStoreMu.Lock()
	defer fileStoreMu.Unlock()

	if existing, err := s.Load(ctx); err == nil && existing.supersedes(cred) {
		return nil
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
