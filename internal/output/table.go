package output

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/13rac1/ccconfig/internal/types"
	"github.com/olekukonko/tablewriter"
)

// PrintConfigPaths formats and prints enterprise and user paths as an ASCII table.
func PrintConfigPaths(paths types.ConfigPaths) {
	fmt.Println("Configuration Paths")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Scope", "Name", "Path", "Status")

	for _, s := range paths.Slots() {
		table.Append(s.Scope, s.Name, s.Info.Path, pathStatus(s.Info))
	}

	table.Render()
}

// PrintPathInfo prints a single path observation.
func PrintPathInfo(info types.PathInfo) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Path", "Exists", "Type")
	table.Append(info.Path, strconv.FormatBool(info.Exists), pathStatus(info))
	table.Render()
}

// PrintProjects formats and prints discovered projects.
func PrintProjects(projects []types.ProjectInfo) {
	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return
	}

	fmt.Println("Projects")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Project", "Path", "CLAUDE.md", "Config Files")

	for _, p := range projects {
		table.Append(p.Name, p.Path, formatBool(p.HasClaudeMD), formatCount(countExisting(p.ConfigFiles.Slots())))
	}

	table.Render()
}

// PrintProjectConfig prints every project-scope slot for one project.
func PrintProjectConfig(files types.ProjectConfigFiles) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Path", "Status")

	for _, s := range files.Slots() {
		table.Append(s.Name, s.Info.Path, pathStatus(s.Info))
	}

	table.Render()
}

// PrintOverrides formats and prints nested CLAUDE.md overrides of a project.
func PrintOverrides(overrides []types.SubdirectoryOverride) {
	if len(overrides) == 0 {
		fmt.Println("No subdirectory overrides found.")
		return
	}

	fmt.Println("Subdirectory Overrides")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Directory", "File")

	for _, o := range overrides {
		table.Append(o.RelativePath, o.FullPath)
	}

	table.Render()
}

// PrintEntries formats and prints a directory listing.
func PrintEntries(entries []types.DirectoryEntry) {
	if len(entries) == 0 {
		fmt.Println("Directory is empty.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Type")

	for _, e := range entries {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		table.Append(e.Name, kind)
	}

	table.Render()
}

// PrintScopeCounts formats and prints backed-up file counts per scope, sorted by scope.
func PrintScopeCounts(counts map[string]int) {
	if len(counts) == 0 {
		fmt.Println("No backups found.")
		return
	}

	scopes := make([]string, 0, len(counts))
	for scope := range counts {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)

	fmt.Println("Remote Backup")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Scope", "Files")

	for _, scope := range scopes {
		table.Append(scope, formatCount(counts[scope]))
	}

	table.Render()
}

// pathStatus describes what was found at a path.
func pathStatus(info types.PathInfo) string {
	switch {
	case !info.Exists:
		return "missing"
	case info.IsDir:
		return "dir"
	default:
		return "file"
	}
}

// countExisting returns how many slots exist on disk.
func countExisting(slots []types.Slot) int {
	n := 0
	for _, s := range slots {
		if s.Info.Exists {
			n++
		}
	}
	return n
}

// formatCount formats a count for display, using "-" for zero values.
func formatCount(count int) string {
	if count == 0 {
		return "-"
	}
	return strconv.Itoa(count)
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
