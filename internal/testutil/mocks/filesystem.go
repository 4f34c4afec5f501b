package mocks

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/groundwork-sh/groundwork/internal/ports"
)

// FileSystem is an in-memory test double for ports.FileSystem.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	modes map[string]os.FileMode

	// WriteErr, when set, is returned by every WriteFile call.
	WriteErr error
}

// NewFileSystem creates a new in-memory FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		modes: make(map[string]os.FileMode),
	}
}

// Seed pre-populates a file.
func (m *FileSystem) Seed(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	m.modes[path] = 0o644
}

// ReadFile reads a file from memory.
func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WriteFile writes a file to memory.
func (m *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[path] = stored
	m.modes[path] = perm
	return nil
}

// Exists returns true if path was seeded or written.
func (m *FileSystem) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok
}

// Remove deletes a file from memory.
func (m *FileSystem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		return os.ErrNotExist
	}
	delete(m.files, path)
	delete(m.modes, path)
	return nil
}

// MkdirAll is a no-op for the in-memory filesystem.
func (m *FileSystem) MkdirAll(_ string, _ os.FileMode) error {
	return nil
}

// Rename moves a file in memory.
func (m *FileSystem) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[oldPath]
	if !ok {
		return os.ErrNotExist
	}
	m.files[newPath] = data
	m.modes[newPath] = m.modes[oldPath]
	delete(m.files, oldPath)
	delete(m.modes, oldPath)
	return nil
}

// CopyFile copies a file in memory.
func (m *FileSystem) CopyFile(src, dest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[src]
	if !ok {
		return fmt.Errorf("copy %s: %w", src, os.ErrNotExist)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[dest] = stored
	m.modes[dest] = m.modes[src]
	return nil
}

// GetFileInfo returns metadata for a file in memory.
func (m *FileSystem) GetFileInfo(path string) (ports.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	if !ok {
		return ports.FileInfo{}, os.ErrNotExist
	}
	return ports.FileInfo{
		Size:    int64(len(data)),
		Mode:    m.modes[path],
		ModTime: time.Now(),
	}, nil
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
