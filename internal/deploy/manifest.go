package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"sitebuild/internal/fsutil"
)

// FileManifest keeps the deploy manifest in a local JSON file. It is used
// when no Valkey instance is configured.
type FileManifest struct {
	path string
	mu   sync.Mutex
}

// NewFileManifest creates a manifest stored at path.
func NewFileManifest(path string) *FileManifest {
	return &FileManifest{path: path}
}

// Load reads the manifest. A missing file is an empty manifest.
func (f *FileManifest) Load(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileManifest) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifest read %s: %w", f.path, err)
	}
	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("manifest parse %s: %w", f.path, err)
	}
	return entries, nil
}

// Put merges entries into the manifest file.
func (f *FileManifest) Put(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if err != nil {
		return err
	}
	for k, v := range entries {
		current[k] = v
	}
	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFile(f.path, data)
}

// Reset removes the manifest file.
func (f *FileManifest) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("manifest reset %s: %w", f.path, err)
	}
	return nil
}
