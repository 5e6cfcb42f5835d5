package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps a small key/value YAML file on disk. The token lives
// under TokenKey; any other keys written by other tools are preserved.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by the file at path. The file and its
// directory are created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, ErrNoStore
	}
	return &FileStore{path: path}, nil
}

// Path is the location of the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Token() (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kv, err := f.read()
	if err != nil {
		return "", false, err
	}
	tok, ok := kv[TokenKey]
	return tok, ok && tok != "", nil
}

func (f *FileStore) SetToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	kv, err := f.read()
	if err != nil {
		return err
	}
	kv[TokenKey] = token
	return f.write(kv)
}

func (f *FileStore) ClearToken() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	kv, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := kv[TokenKey]; !ok {
		return nil
	}
	delete(kv, TokenKey)
	return f.write(kv)
}

func (f *FileStore) read() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	kv := map[string]string{}
	if err := yaml.Unmarshal(b, &kv); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if kv == nil {
		kv = map[string]string{}
	}
	return kv, nil
}

// write replaces the file atomically so a concurrent reader never sees a
// half-written token.
func (f *FileStore) write(kv map[string]string) error {
	b, err := yaml.Marshal(kv)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
