package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
)

const DefaultFileName = "ezviz_config.json"

// FileStore keeps the profile as an indented JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFileName
	}
	return &FileStore{path: path}
}

var _ ports.ProfileStore = (*FileStore)(nil)

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(ctx context.Context, p domain.Profile, includeSecret bool) error {
	if !includeSecret {
		p.AppSecret = ""
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create profile directory: %w", err)
		}
	}

	// The file may hold the app secret.
	perm := os.FileMode(0o644)
	if includeSecret && p.AppSecret != "" {
		perm = 0o600
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// Load decodes the file on top of base, so keys absent from the file keep
// the values base already has.
func (s *FileStore) Load(ctx context.Context, base domain.Profile) (domain.Profile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return base, domain.ErrProfileNotFound
	}
	if err != nil {
		return base, fmt.Errorf("failed to read profile: %w", err)
	}

	loaded := base
	if err := json.Unmarshal(data, &loaded); err != nil {
		return base, fmt.Errorf("failed to load configuration: %w", err)
	}
	return loaded, nil
}
