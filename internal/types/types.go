// Package types defines the core data structures used throughout ccconfig.
// This includes configuration structs, discovered path records, and project metadata.
package types

// Config represents the complete configuration for ccconfig.
type Config struct {
	Local  LocalConfig  `yaml:"local"`
	Scan   ScanConfig   `yaml:"scan"`
	S3     S3Config     `yaml:"s3"`
	Auth   AuthConfig   `yaml:"auth"`
	Backup BackupConfig `yaml:"backup"`
}

// LocalConfig holds local filesystem settings.
type LocalConfig struct {
	ProjectDirs []string `yaml:"project_dirs"`
}

// ScanConfig holds settings for the recursive override scan.
type ScanConfig struct {
	MaxDepth *int `yaml:"max_depth"`
}

// S3Config holds S3-compatible storage settings.
type S3Config struct {
	Bucket         string `yaml:"bucket"`
	Prefix         string `yaml:"prefix"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// AuthConfig holds authentication credentials.
type AuthConfig struct {
	Profile         string `yaml:"profile"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// BackupConfig holds settings for configuration snapshots.
type BackupConfig struct {
	Host   string `yaml:"host"`
	Redact *bool  `yaml:"redact"`
}

// PathInfo is a point-in-time observation of a single path.
// IsDir is only ever true when Exists is true.
type PathInfo struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	IsDir  bool   `json:"is_dir"`
}

// ConfigPaths holds the enterprise- and user-scope configuration paths.
type ConfigPaths struct {
	Enterprise EnterprisePaths `json:"enterprise"`
	User       UserPaths       `json:"user"`
}

// EnterprisePaths holds machine-wide configuration paths.
type EnterprisePaths struct {
	ClaudeMD        PathInfo `json:"claude_md"`        // <base>/CLAUDE.md
	ManagedMCP      PathInfo `json:"managed_mcp"`      // <base>/managed-mcp.json
	ManagedSettings PathInfo `json:"managed_settings"` // <base>/managed-settings.json
}

// UserPaths holds per-user configuration paths.
type UserPaths struct {
	ClaudeMD      PathInfo `json:"claude_md"`       // ~/.claude/CLAUDE.md
	ClaudeLocalMD PathInfo `json:"claude_local_md"` // ~/.claude/CLAUDE.local.md
	Settings      PathInfo `json:"settings"`        // ~/.claude/settings.json
	SettingsLocal PathInfo `json:"settings_local"`  // ~/.claude/settings.local.json
	Agents        PathInfo `json:"agents"`          // ~/.claude/agents/
	Commands      PathInfo `json:"commands"`        // ~/.claude/commands/
	MCP           PathInfo `json:"mcp"`             // ~/.claude.json
	Skills        PathInfo `json:"skills"`          // ~/.claude/skills/
}

// ProjectConfigFiles holds the project-scope configuration paths.
type ProjectConfigFiles struct {
	ClaudeMDRoot      PathInfo `json:"claude_md_root"`      // <root>/CLAUDE.md
	ClaudeMDDotClaude PathInfo `json:"claude_md_dotclaude"` // <root>/.claude/CLAUDE.md
	ClaudeLocalMD     PathInfo `json:"claude_local_md"`     // <root>/CLAUDE.local.md
	Settings          PathInfo `json:"settings"`            // <root>/.claude/settings.json
	SettingsLocal     PathInfo `json:"settings_local"`      // <root>/.claude/settings.local.json
	Rules             PathInfo `json:"rules"`               // <root>/.claude/rules/
	Commands          PathInfo `json:"commands"`            // <root>/.claude/commands/
	Agents            PathInfo `json:"agents"`              // <root>/.claude/agents/
	Skills            PathInfo `json:"skills"`              // <root>/.claude/skills/
	MCP               PathInfo `json:"mcp"`                 // <root>/.mcp.json
}

// ProjectInfo describes a directory classified as a project.
type ProjectInfo struct {
	ID          string             `json:"id"`
	Path        string             `json:"path"`
	Name        string             `json:"name"`
	HasClaudeMD bool               `json:"has_claude_md"`
	ConfigFiles ProjectConfigFiles `json:"config_files"`
}

// SubdirectoryOverride is a nested CLAUDE.md or CLAUDE.local.md found below a project root.
type SubdirectoryOverride struct {
	RelativePath string `json:"relative_path"` // e.g. "src/billing" or "src/billing (local)"
	FullPath     string `json:"full_path"`
	Exists       bool   `json:"exists"`
}

// DirectoryEntry is a single immediate child of a listed directory.
type DirectoryEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// Scope names used when a ConfigPaths or ProjectConfigFiles value is flattened.
const (
	ScopeEnterprise = "enterprise"
	ScopeUser       = "user"
	ScopeProject    = "project"
)

// Slot is one named, well-known location within a scope.
type Slot struct {
	Scope string
	Name  string
	Info  PathInfo
}

// Slots flattens the enterprise and user paths in declaration order.
func (c ConfigPaths) Slots() []Slot {
	e, u := c.Enterprise, c.User
	return []Slot{
		{ScopeEnterprise, "claude_md", e.ClaudeMD},
		{ScopeEnterprise, "managed_mcp", e.ManagedMCP},
		{ScopeEnterprise, "managed_settings", e.ManagedSettings},
		{ScopeUser, "claude_md", u.ClaudeMD},
		{ScopeUser, "claude_local_md", u.ClaudeLocalMD},
		{ScopeUser, "settings", u.Settings},
		{ScopeUser, "settings_local", u.SettingsLocal},
		{ScopeUser, "agents", u.Agents},
		{ScopeUser, "commands", u.Commands},
		{ScopeUser, "mcp", u.MCP},
		{ScopeUser, "skills", u.Skills},
	}
}

// Slots flattens the project paths in declaration order.
func (f ProjectConfigFiles) Slots() []Slot {
	return []Slot{
		{ScopeProject, "claude_md_root", f.ClaudeMDRoot},
		{ScopeProject, "claude_md_dotclaude", f.ClaudeMDDotClaude},
		{ScopeProject, "claude_local_md", f.ClaudeLocalMD},
		{ScopeProject, "settings", f.Settings},
		{ScopeProject, "settings_local", f.SettingsLocal},
		{ScopeProject, "rules", f.Rules},
		{ScopeProject, "commands", f.Commands},
		{ScopeProject, "agents", f.Agents},
		{ScopeProject, "skills", f.Skills},
		{ScopeProject, "mcp", f.MCP},
	}
}
