package discover

import (
	"os"
	"path/filepath"

	"github.com/13rac1/ccconfig/internal/types"
)

// projectMarkers are files or directories whose presence at a directory's
// root marks it as a project.
var projectMarkers = []string{
	".git",
	"package.json",
	"tsconfig.json",
	"pyproject.toml",
	"go.mod",
	"Cargo.toml",
}

// ProjectConfigMap resolves the project-scope configuration paths under root.
func ProjectConfigMap(root string) types.ProjectConfigFiles {
	dotClaude := filepath.Join(root, ConfigDirName)

	return types.ProjectConfigFiles{
		ClaudeMDRoot:      Stat(filepath.Join(root, ClaudeMD)),
		ClaudeMDDotClaude: Stat(filepath.Join(dotClaude, ClaudeMD)),
		ClaudeLocalMD:     Stat(filepath.Join(root, ClaudeLocalMD)),
		Settings:          Stat(filepath.Join(dotClaude, SettingsFile)),
		SettingsLocal:     Stat(filepath.Join(dotClaude, SettingsLocalFile)),
		Rules:             Stat(filepath.Join(dotClaude, DirRules)),
		Commands:          Stat(filepath.Join(dotClaude, DirCommands)),
		Agents:            Stat(filepath.Join(dotClaude, DirAgents)),
		Skills:            Stat(filepath.Join(dotClaude, DirSkills)),
		MCP:               Stat(filepath.Join(root, ProjectMCPFile)),
	}
}

// HasClaudeMD reports whether dir has a CLAUDE.md at its root or inside .claude/.
func HasClaudeMD(dir string) bool {
	return Exists(filepath.Join(dir, ClaudeMD)) ||
		Exists(filepath.Join(dir, ConfigDirName, ClaudeMD))
}

// IsProject reports whether dir looks like a project: it has a CLAUDE.md,
// a .git directory, or one of the common ecosystem manifests at its root.
func IsProject(dir string) bool {
	if HasClaudeMD(dir) {
		return true
	}
	for _, marker := range projectMarkers {
		if Exists(filepath.Join(dir, marker)) {
			return true
		}
	}
	return false
}

// ListProjects returns a ProjectInfo for every immediate child of baseDir that
// is a project, in directory read order. An unreadable baseDir yields no projects.
func ListProjects(baseDir string) []types.ProjectInfo {
	projects, _ := ScanProjects(baseDir)
	return projects
}

// ScanProjects is ListProjects with a Report of the paths that could not be read.
func ScanProjects(baseDir string) ([]types.ProjectInfo, Report) {
	var report Report

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		report.skip(baseDir, err)
		return nil, report
	}

	var projects []types.ProjectInfo

	for _, entry := range entries {
		path := filepath.Join(baseDir, entry.Name())

		// Stat rather than entry.IsDir so symlinked project directories count
		fi, err := os.Stat(path)
		if err != nil {
			report.skip(path, err)
			continue
		}
		if !fi.IsDir() || !IsProject(path) {
			continue
		}

		name := entry.Name()
		projects = append(projects, types.ProjectInfo{
			ID:          name,
			Path:        path,
			Name:        name,
			HasClaudeMD: HasClaudeMD(path),
			ConfigFiles: ProjectConfigMap(path),
		})
	}

	return projects, report
}
