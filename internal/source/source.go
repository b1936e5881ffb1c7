package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrgeneko/namknob/internal/domain"
	"github.com/mrgeneko/namknob/internal/gain"
)

// File is a capture on disk.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string { return filepath.Base(f.path) }

func (f *File) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Memory is a capture held in memory.
type Memory struct {
	name    string
	content string
}

func NewMemory(name, content string) *Memory {
	return &Memory{name: name, content: content}
}

func (m *Memory) Name() string                             { return m.name }
func (m *Memory) Text(ctx context.Context) (string, error) { return m.content, nil }

func IsCapture(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), gain.Extension)
}

// Collect resolves explicit paths and directories into capture files.
// Explicit paths must exist; anything without the capture extension is
// skipped. Directories are scanned non-recursively in name order.
func Collect(paths []string, dirs []string) ([]domain.InputFile, error) {
	var files []domain.InputFile
	seen := make(map[string]bool)

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		files = append(files, NewFile(path))
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("input file not found: %s", p)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("input is a directory: %s", p)
		}
		if IsCapture(p) {
			add(p)
		}
	}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read input dir: %w", err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && IsCapture(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			add(filepath.Join(dir, name))
		}
	}

	return files, nil
}
