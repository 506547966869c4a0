// Package discover locates Claude Code configuration on the local filesystem.
// It resolves the well-known enterprise and user paths, classifies the immediate
// children of a base directory as projects, and walks project trees for nested
// CLAUDE.md overrides.
//
// Discovery is best-effort: missing or unreadable paths are reported as absent
// or skipped, never as errors.
package discover

import (
	"os"

	"github.com/13rac1/ccconfig/internal/types"
)

// Stat reports whether path exists and whether it is a directory.
// Symlinks are followed. Any stat failure is reported as a missing path.
func Stat(path string) types.PathInfo {
	info := types.PathInfo{Path: path}

	fi, err := os.Stat(path)
	if err != nil {
		return info
	}

	info.Exists = true
	info.IsDir = fi.IsDir()
	return info
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
