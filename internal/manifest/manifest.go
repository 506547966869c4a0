// Package manifest tracks which configuration files have been backed up.
// The manifest records source file modification times so unchanged files are
// skipped on the next run even when redaction alters the uploaded size.
package manifest

import (
	"strings"
	"time"
)

// FileName is the manifest object name, stored directly under the backup prefix.
const FileName = ".manifest.json"

// Version is the only manifest format Load accepts.
const Version = 1

// Manifest tracks uploaded file metadata to enable efficient deduplication.
// It records source file modification times, not uploaded content size.
type Manifest struct {
	Version   int                  `json:"version"`
	UpdatedAt time.Time            `json:"updated_at"`
	Files     map[string]FileEntry `json:"files"`
}

// FileEntry records metadata about an uploaded file.
type FileEntry struct {
	Mtime    time.Time `json:"mtime"`              // Source file modification time (UTC)
	Size     int64     `json:"size"`               // Source file size (for reference only)
	Source   string    `json:"source,omitempty"`   // Local path the object was read from
	Redacted bool      `json:"redacted,omitempty"` // Content passed through the redactor
}

// New creates an empty manifest.
func New() *Manifest {
	return &Manifest{
		Version: Version,
		Files:   make(map[string]FileEntry),
	}
}

// Key returns the S3 key of the manifest under prefix.
func Key(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + FileName
}

// Unchanged reports whether key is recorded with the given modification time.
// Times are compared at second precision for filesystem compatibility.
func (m *Manifest) Unchanged(key string, mtime time.Time) bool {
	entry, ok := m.Files[key]
	if !ok {
		return false
	}
	return entry.Mtime.Truncate(time.Second).Equal(mtime.Truncate(time.Second))
}

// Record stores entry for key.
func (m *Manifest) Record(key string, entry FileEntry) {
	m.Files[key] = entry
}

// CountByScope groups manifest entries by host and scope and returns counts.
// Keys look like prefix/host/user/..., prefix/host/enterprise/... or
// prefix/host/projects/<id>/...; project entries are grouped per project.
func (m *Manifest) CountByScope(prefix string) map[string]int {
	counts := make(map[string]int)
	for key := range m.Files {
		rel := strings.TrimPrefix(key, prefix)
		rel = strings.TrimPrefix(rel, "/")

		parts := strings.SplitN(rel, "/", 4)
		if len(parts) < 3 || parts[0] == "" {
			continue
		}

		scope := parts[0] + "/" + parts[1]
		if parts[1] == "projects" {
			if len(parts) < 4 {
				continue
			}
			scope += "/" + parts[2]
		}
		counts[scope]++
	}
	return counts
}
