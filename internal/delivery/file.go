package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var ErrAlreadyWritten = errors.New("output path already written; use an output directory for multiple artifacts")

// File writes exactly one artifact to a fixed path, whatever its name.
type File struct {
	path string

	mu      sync.Mutex
	written bool
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Deliver(ctx context.Context, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.written {
		return "", ErrAlreadyWritten
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(f.path, content, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", f.path, err)
	}
	f.written = true
	return f.path, nil
}
