package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxAttachBytes = 1 << 20

var (
	errOutsideRoot = errors.New("path outside working directory")
	errTooLarge    = errors.New("file too large to attach")
)

// attacher reads /file targets, confined to one root directory. Symlinks are
// resolved before the containment check.
type attacher struct {
	root string
}

func newAttacher(root string) (*attacher, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("attach root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs attach root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &attacher{root: abs}, nil
}

func (a *attacher) resolve(path string) (string, error) {
	target := strings.TrimSpace(path)
	if !filepath.IsAbs(target) {
		target = filepath.Join(a.root, target)
	}
	resolved, err := filepath.EvalSymlinks(filepath.Clean(target))
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(a.root, resolved)
	if err != nil {
		return "", fmt.Errorf("relative path check: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", errOutsideRoot
	}
	return resolved, nil
}

// Read matches the readFile hook of handleCommand.
func (a *attacher) Read(path string) ([]byte, error) {
	resolved, err := a.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxAttachBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAttachBytes {
		return nil, errTooLarge
	}
	return data, nil
}
