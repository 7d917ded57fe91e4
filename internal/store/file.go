// internal/store/file.go
//
// JSON-file Slot. All keys live in one object:
//
//	{ "state:<device>": { ...record... }, ... }
//
// Writes go to a temp file in the same directory and are renamed over the
// original, so a crash never leaves a half-written file behind.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var errNotJSON = errors.New("file slot: value is not JSON")

type fileSlot struct {
	mu   sync.Mutex
	path string
}

// NewFileSlot returns a Slot persisted to path. The parent directory is created if missing.
func NewFileSlot(path string) (Slot, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return &fileSlot{path: path}, nil
}

func (f *fileSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := all[key]
	return v, ok, nil
}

func (f *fileSlot) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return err
	}
	// Values are embedded raw so the file stays readable.
	if !json.Valid(value) {
		return fmt.Errorf("set %s: %w", key, errNotJSON)
	}
	all[key] = json.RawMessage(append([]byte(nil), value...))
	return f.write(all)
}

func (f *fileSlot) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := all[key]; !ok {
		return nil
	}
	delete(all, key)
	return f.write(all)
}

// read loads the whole file. A missing or empty file is an empty map.
func (f *fileSlot) read() (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(b) == 0) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return all, nil
}

func (f *fileSlot) write(all map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".wordduel-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", f.path, err)
	}
	return nil
}
