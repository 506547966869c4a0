package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/13rac1/ccconfig/internal/discover"
	"github.com/13rac1/ccconfig/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	defaultS3Prefix = "claude-config/"
)

// Load reads and validates configuration from the specified path.
// Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*types.Config, error) {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", expandedPath, err)
	}

	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *types.Config {
	var cfg types.Config
	// applyDefaults only fails on tilde expansion, which empty fields never need
	_ = applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for optional config fields.
func applyDefaults(cfg *types.Config) error {
	for i, dir := range cfg.Local.ProjectDirs {
		expanded, err := expandTilde(dir)
		if err != nil {
			return fmt.Errorf("expanding project_dirs[%d]: %w", i, err)
		}
		cfg.Local.ProjectDirs[i] = expanded
	}

	if cfg.Scan.MaxDepth == nil {
		depth := discover.DefaultMaxDepth
		cfg.Scan.MaxDepth = &depth
	}

	if cfg.S3.Prefix == "" {
		cfg.S3.Prefix = defaultS3Prefix
	}

	// Ensure prefix has trailing slash for consistent key building
	if !strings.HasSuffix(cfg.S3.Prefix, "/") {
		cfg.S3.Prefix = cfg.S3.Prefix + "/"
	}

	if cfg.Backup.Redact == nil {
		redact := true
		cfg.Backup.Redact = &redact
	}

	return nil
}

// validate ensures config fields are valid.
func validate(cfg *types.Config) error {
	if *cfg.Scan.MaxDepth < 0 {
		return fmt.Errorf("scan.max_depth must not be negative, got %d", *cfg.Scan.MaxDepth)
	}

	return nil
}

// ValidateBackup ensures the fields needed to reach remote storage are present.
func ValidateBackup(cfg *types.Config) error {
	var errs []error

	if cfg.S3.Bucket == "" {
		errs = append(errs, fmt.Errorf("s3.bucket is required"))
	}

	if cfg.S3.Region == "" {
		errs = append(errs, fmt.Errorf("s3.region is required"))
	}

	return errors.Join(errs...)
}

// MaxDepth returns the configured override scan depth.
func MaxDepth(cfg *types.Config) int {
	if cfg.Scan.MaxDepth == nil {
		return discover.DefaultMaxDepth
	}
	return *cfg.Scan.MaxDepth
}

// RedactEnabled reports whether backups are redacted before upload.
func RedactEnabled(cfg *types.Config) bool {
	return cfg.Backup.Redact == nil || *cfg.Backup.Redact
}

// starterConfig is written by CreateStarterConfig.
const starterConfig = `# ccconfig configuration

local:
  # Directories whose immediate children are scanned for projects.
  project_dirs:
    - ~/code

scan:
  # How deep to look for nested CLAUDE.md overrides below a project root.
  max_depth: 5

# Optional: snapshot discovered configuration to S3-compatible storage.
s3:
  bucket: YOUR-BUCKET-NAME
  prefix: claude-config/
  region: us-east-1
  # endpoint: https://s3.us-west-002.backblazeb2.com
  # force_path_style: true

auth:
  profile: default
  # access_key_id: ""
  # secret_access_key: ""

backup:
  # host: my-laptop
  redact: true
`

// CreateStarterConfig writes a commented starter configuration to path.
// Fails if the file already exists.
func CreateStarterConfig(path string) error {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(expandedPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(starterConfig); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// expandTilde replaces ~ at the start of a path with the user's home directory.
func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	if path == "~" {
		return homeDir, nil
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:]), nil
	}

	return path, nil
}
