package discover

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/13rac1/ccconfig/internal/types"
)

func TestDiscoverOverrides(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T, root string)
		maxDepth  int
		want      []string // relative paths, sorted
	}{
		{
			name: "override and local variant",
			setupFunc: func(t *testing.T, root string) {
				billing := filepath.Join(root, "src", "billing")
				mkdir(t, billing)
				createFile(t, filepath.Join(billing, "CLAUDE.md"))
				createFile(t, filepath.Join(billing, "CLAUDE.local.md"))
			},
			maxDepth: DefaultMaxDepth,
			want:     []string{filepath.Join("src", "billing"), filepath.Join("src", "billing") + " (local)"},
		},
		{
			name: "root CLAUDE.md is not an override",
			setupFunc: func(t *testing.T, root string) {
				createFile(t, filepath.Join(root, "CLAUDE.md"))
			},
			maxDepth: DefaultMaxDepth,
			want:     nil,
		},
		{
			name: "node_modules is never reported",
			setupFunc: func(t *testing.T, root string) {
				nm := filepath.Join(root, "node_modules")
				mkdir(t, filepath.Join(nm, "pkg"))
				createFile(t, filepath.Join(nm, "CLAUDE.md"))
				createFile(t, filepath.Join(nm, "pkg", "CLAUDE.md"))
				deep := filepath.Join(root, "web", "node_modules", "lib")
				mkdir(t, deep)
				createFile(t, filepath.Join(deep, "CLAUDE.md"))
			},
			maxDepth: DefaultMaxDepth,
			want:     nil,
		},
		{
			name: "every excluded directory is skipped",
			setupFunc: func(t *testing.T, root string) {
				for _, name := range []string{"node_modules", "target", "dist", "build", "__pycache__", "vendor", ".git"} {
					dir := filepath.Join(root, name)
					mkdir(t, dir)
					createFile(t, filepath.Join(dir, "CLAUDE.md"))
				}
			},
			maxDepth: DefaultMaxDepth,
			want:     nil,
		},
		{
			name: "hidden directories are skipped",
			setupFunc: func(t *testing.T, root string) {
				hidden := filepath.Join(root, ".idea", "nested")
				mkdir(t, hidden)
				createFile(t, filepath.Join(root, ".idea", "CLAUDE.md"))
				createFile(t, filepath.Join(hidden, "CLAUDE.md"))
				mkdir(t, filepath.Join(root, ".claude"))
				createFile(t, filepath.Join(root, ".claude", "CLAUDE.md"))
			},
			maxDepth: DefaultMaxDepth,
			want:     nil,
		},
		{
			name: "max depth zero scans only immediate children",
			setupFunc: func(t *testing.T, root string) {
				src := filepath.Join(root, "src")
				inner := filepath.Join(src, "inner")
				mkdir(t, inner)
				createFile(t, filepath.Join(src, "CLAUDE.md"))
				createFile(t, filepath.Join(inner, "CLAUDE.md"))
			},
			maxDepth: 0,
			want:     []string{"src"},
		},
		{
			name: "depth limit is inclusive",
			setupFunc: func(t *testing.T, root string) {
				// a is checked at depth 0, a/b at depth 1, a/b/c at depth 2
				c := filepath.Join(root, "a", "b", "c")
				mkdir(t, c)
				createFile(t, filepath.Join(root, "a", "b", "CLAUDE.md"))
				createFile(t, filepath.Join(c, "CLAUDE.md"))
			},
			maxDepth: 1,
			want:     []string{filepath.Join("a", "b")},
		},
		{
			name: "negative depth scans nothing",
			setupFunc: func(t *testing.T, root string) {
				src := filepath.Join(root, "src")
				mkdir(t, src)
				createFile(t, filepath.Join(src, "CLAUDE.md"))
			},
			maxDepth: -1,
			want:     nil,
		},
		{
			name: "recurses past directories without overrides",
			setupFunc: func(t *testing.T, root string) {
				deep := filepath.Join(root, "pkg", "api", "v1")
				mkdir(t, deep)
				createFile(t, filepath.Join(deep, "CLAUDE.local.md"))
			},
			maxDepth: DefaultMaxDepth,
			want:     []string{filepath.Join("pkg", "api", "v1") + " (local)"},
		},
		{
			name: "files named like excluded dirs are ignored",
			setupFunc: func(t *testing.T, root string) {
				createFile(t, filepath.Join(root, "build"))
				createFile(t, filepath.Join(root, "CLAUDE.local.md"))
			},
			maxDepth: DefaultMaxDepth,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			tt.setupFunc(t, root)

			overrides := DiscoverOverrides(root, tt.maxDepth)

			got := relativePaths(overrides)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d overrides %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("override[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}

			for _, o := range overrides {
				if !o.Exists {
					t.Errorf("override %q reported exists = false", o.RelativePath)
				}
				if !Exists(o.FullPath) {
					t.Errorf("override full path %q does not exist", o.FullPath)
				}
			}
		})
	}
}

func TestDiscoverOverridesFullPaths(t *testing.T) {
	root := t.TempDir()
	billing := filepath.Join(root, "src", "billing")
	mkdir(t, billing)
	createFile(t, filepath.Join(billing, "CLAUDE.md"))
	createFile(t, filepath.Join(billing, "CLAUDE.local.md"))

	overrides := DiscoverOverrides(root, DefaultMaxDepth)

	if len(overrides) != 2 {
		t.Fatalf("expected 2 overrides, got %d", len(overrides))
	}
	// CLAUDE.md is emitted before its local variant
	if overrides[0].FullPath != filepath.Join(billing, "CLAUDE.md") {
		t.Errorf("overrides[0].FullPath = %q", overrides[0].FullPath)
	}
	if overrides[1].FullPath != filepath.Join(billing, "CLAUDE.local.md") {
		t.Errorf("overrides[1].FullPath = %q", overrides[1].FullPath)
	}
	if overrides[1].RelativePath != overrides[0].RelativePath+" (local)" {
		t.Errorf("local variant relative path = %q", overrides[1].RelativePath)
	}
}

func TestScanOverridesMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	overrides, report := ScanOverrides(missing, DefaultMaxDepth)

	if len(overrides) != 0 {
		t.Errorf("expected no overrides, got %d", len(overrides))
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Path != missing {
		t.Errorf("expected missing root in report, got %+v", report.Skipped)
	}
}

func TestSkipDir(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"src", false},
		{"builder", false},
		{".claude", true},
		{".github", true},
		{"node_modules", true},
		{"__pycache__", true},
		{"vendor", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := skipDir(tt.name); got != tt.want {
				t.Errorf("skipDir(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

// relativePaths returns the sorted relative paths of overrides.
func relativePaths(overrides []types.SubdirectoryOverride) []string {
	var paths []string
	for _, o := range overrides {
		paths = append(paths, o.RelativePath)
	}
	sort.Strings(paths)
	return paths
}
