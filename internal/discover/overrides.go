package discover

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/13rac1/ccconfig/internal/types"
)

// DefaultMaxDepth is the override scan depth used when none is configured.
const DefaultMaxDepth = 5

// localSuffix marks the CLAUDE.local.md variant of an override.
const localSuffix = " (local)"

// excludedDirs are never reported or descended into.
var excludedDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	"vendor":       true,
	".git":         true,
}

// skipDir reports whether a directory entry named name is excluded from the scan.
// Hidden entries are skipped too, including .claude which ProjectConfigMap covers.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || excludedDirs[name]
}

// DiscoverOverrides finds CLAUDE.md and CLAUDE.local.md files in subdirectories
// of root. The root's immediate children are at depth 0; directories deeper than
// maxDepth are not scanned.
func DiscoverOverrides(root string, maxDepth int) []types.SubdirectoryOverride {
	overrides, _ := ScanOverrides(root, maxDepth)
	return overrides
}

// ScanOverrides is DiscoverOverrides with a Report of unreadable directories.
func ScanOverrides(root string, maxDepth int) ([]types.SubdirectoryOverride, Report) {
	var (
		overrides []types.SubdirectoryOverride
		report    Report
	)
	scanOverrides(root, root, 0, maxDepth, &overrides, &report)
	return overrides, report
}

func scanOverrides(root, dir string, depth, maxDepth int, out *[]types.SubdirectoryOverride, report *Report) {
	if depth > maxDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		report.skip(dir, err)
		return
	}

	for _, entry := range entries {
		if skipDir(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if !Stat(path).IsDir {
			continue
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		if claudeMD := filepath.Join(path, ClaudeMD); Exists(claudeMD) {
			*out = append(*out, types.SubdirectoryOverride{
				RelativePath: rel,
				FullPath:     claudeMD,
				Exists:       true,
			})
		}

		if localMD := filepath.Join(path, ClaudeLocalMD); Exists(localMD) {
			*out = append(*out, types.SubdirectoryOverride{
				RelativePath: rel + localSuffix,
				FullPath:     localMD,
				Exists:       true,
			})
		}

		scanOverrides(root, path, depth+1, maxDepth, out, report)
	}
}
