package discover

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/13rac1/ccconfig/internal/types"
)

// Well-known file and directory names.
const (
	ConfigDirName       = ".claude"
	UserMCPFile         = ".claude.json"
	ProjectMCPFile      = ".mcp.json"
	ClaudeMD            = "CLAUDE.md"
	ClaudeLocalMD       = "CLAUDE.local.md"
	SettingsFile        = "settings.json"
	SettingsLocalFile   = "settings.local.json"
	ManagedMCPFile      = "managed-mcp.json"
	ManagedSettingsFile = "managed-settings.json"

	DirAgents   = "agents"
	DirCommands = "commands"
	DirSkills   = "skills"
	DirRules    = "rules"
)

// Platform selects the enterprise configuration location.
type Platform int

const (
	// PlatformOther covers Linux, WSL and any other unix-like system.
	PlatformOther Platform = iota
	// PlatformWindows is Microsoft Windows.
	PlatformWindows
	// PlatformMacOS is Apple macOS.
	PlatformMacOS
)

// String returns a human-readable platform name.
func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "windows"
	case PlatformMacOS:
		return "macos"
	default:
		return "other"
	}
}

// PlatformFor maps a GOOS value to a Platform.
func PlatformFor(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	default:
		return PlatformOther
	}
}

// EnterpriseBase returns the machine-wide configuration directory for p.
func EnterpriseBase(p Platform) string {
	switch p {
	case PlatformWindows:
		return `C:\Program Files\ClaudeCode`
	case PlatformMacOS:
		return "/Library/Application Support/ClaudeCode"
	default:
		return "/etc/claude-code"
	}
}

// join joins path elements using p's separator. Windows paths built on a
// non-Windows host keep their backslashes so the record matches the target.
func (p Platform) join(elem ...string) string {
	if p == PlatformWindows && filepath.Separator != '\\' {
		return strings.Join(elem, `\`)
	}
	return filepath.Join(elem...)
}

// Environment is the ambient input to WellKnownPaths.
type Environment struct {
	Platform Platform
	Getenv   func(string) string
}

// CurrentEnvironment describes the running process.
func CurrentEnvironment() Environment {
	return Environment{
		Platform: PlatformFor(runtime.GOOS),
		Getenv:   os.Getenv,
	}
}

// HomeDir returns the first non-empty of HOME and USERPROFILE, or "." if neither is set.
// An empty value counts as unset, as with os.UserHomeDir.
func HomeDir(getenv func(string) string) string {
	for _, key := range []string{"HOME", "USERPROFILE"} {
		if v := getenv(key); v != "" {
			return v
		}
	}
	return "."
}

// WellKnownPaths resolves every enterprise and user configuration path for env.
// It always returns a fully populated record.
func WellKnownPaths(env Environment) types.ConfigPaths {
	getenv := env.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	p := env.Platform

	base := EnterpriseBase(p)
	home := HomeDir(getenv)
	userDir := p.join(home, ConfigDirName)

	return types.ConfigPaths{
		Enterprise: types.EnterprisePaths{
			ClaudeMD:        Stat(p.join(base, ClaudeMD)),
			ManagedMCP:      Stat(p.join(base, ManagedMCPFile)),
			ManagedSettings: Stat(p.join(base, ManagedSettingsFile)),
		},
		User: types.UserPaths{
			ClaudeMD:      Stat(p.join(userDir, ClaudeMD)),
			ClaudeLocalMD: Stat(p.join(userDir, ClaudeLocalMD)),
			Settings:      Stat(p.join(userDir, SettingsFile)),
			SettingsLocal: Stat(p.join(userDir, SettingsLocalFile)),
			Agents:        Stat(p.join(userDir, DirAgents)),
			Commands:      Stat(p.join(userDir, DirCommands)),
			MCP:           Stat(p.join(home, UserMCPFile)),
			Skills:        Stat(p.join(userDir, DirSkills)),
		},
	}
}

// ConfigPaths resolves the well-known paths for the running process.
func ConfigPaths() types.ConfigPaths {
	return WellKnownPaths(CurrentEnvironment())
}
