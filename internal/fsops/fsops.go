// Package fsops provides the file operations behind the config browser:
// reading, writing, listing, deleting and creating paths. Unlike discovery,
// every failure is returned to the caller so it can be shown to the user.
package fsops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/13rac1/ccconfig/internal/types"
	"golang.org/x/text/cases"
)

// ErrIsDirectory is returned when a file operation is given a directory.
var ErrIsDirectory = errors.New("path is a directory")

// ReadFile returns the contents of the file at path.
func ReadFile(path string) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return "", fmt.Errorf("reading %s: %w", path, ErrIsDirectory)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating parent directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ListDirectory returns the immediate children of path. Directories come first,
// then files, each ordered by case-folded name.
func ListDirectory(path string) ([]types.DirectoryEntry, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}

	entries := make([]types.DirectoryEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entryPath := filepath.Join(path, de.Name())

		// Follow symlinks; fall back to the entry type for dangling links
		isDir := de.IsDir()
		if info, err := os.Stat(entryPath); err == nil {
			isDir = info.IsDir()
		}

		entries = append(entries, types.DirectoryEntry{
			Name:  de.Name(),
			Path:  entryPath,
			IsDir: isDir,
		})
	}

	SortEntries(entries)
	return entries, nil
}

// SortEntries orders entries with directories first, then by case-folded name.
func SortEntries(entries []types.DirectoryEntry) {
	fold := cases.Fold()
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return fold.String(entries[i].Name) < fold.String(entries[j].Name)
	})
}

// DeletePath removes a file, or a directory and everything below it.
func DeletePath(path string) error {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing directory %s: %w", path, err)
		}
		return nil
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// CreateDirectory creates path and any missing parents.
func CreateDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}
