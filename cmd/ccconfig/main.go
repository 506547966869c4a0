package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/13rac1/ccconfig/internal/backup"
	"github.com/13rac1/ccconfig/internal/config"
	"github.com/13rac1/ccconfig/internal/discover"
	"github.com/13rac1/ccconfig/internal/doctor"
	"github.com/13rac1/ccconfig/internal/fsops"
	"github.com/13rac1/ccconfig/internal/logger"
	"github.com/13rac1/ccconfig/internal/manifest"
	"github.com/13rac1/ccconfig/internal/output"
	"github.com/13rac1/ccconfig/internal/types"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath        string
	defaultConfigPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ccconfig",
	Short:   "Claude Code configuration discovery",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Long: `ccconfig locates Claude Code configuration at the enterprise, user and
project scopes, browses and edits those files, and snapshots them to
S3-compatible storage.`,
}

var (
	jsonOutput bool
	verbose    bool
	debug      bool
	maxDepth   int
	content    string
	offline    bool
	dryRun     bool
	noRedact   bool
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show enterprise and user configuration paths",
	Long: `Resolves every well-known enterprise and user configuration location
for this platform and reports whether each exists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := discover.ConfigPaths()
		if jsonOutput {
			return printJSON(paths)
		}
		output.PrintConfigPaths(paths)
		return nil
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists <path>",
	Short: "Print whether a path exists",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(discover.Exists(args[0]))
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show whether a path exists and is a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info := discover.Stat(args[0])
		if jsonOutput {
			return printJSON(info)
		}
		output.PrintPathInfo(info)
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects [dir...]",
	Short: "List projects below one or more directories",
	Long: `Lists the immediate children of each directory that are projects: a
directory with a CLAUDE.md (at its root or in .claude/) or a common project
marker such as .git or go.mod. Without arguments, local.project_dirs from the
config file is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dirs := args
		if len(dirs) == 0 {
			dirs = cfg.Local.ProjectDirs
		}
		if len(dirs) == 0 {
			return errors.New("no project directories given: pass a directory or set local.project_dirs in config")
		}

		var report discover.Report
		projects := []types.ProjectInfo{}
		for _, dir := range dirs {
			found, r := discover.ScanProjects(dir)
			report.Merge(r)
			projects = append(projects, found...)
		}
		logSkipped(newLogger(), report)

		if jsonOutput {
			return printJSON(projects)
		}
		output.PrintProjects(projects)
		return nil
	},
}

var projectCmd = &cobra.Command{
	Use:   "project <dir>",
	Short: "Show the project-scope configuration files of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := discover.ProjectConfigMap(args[0])
		if jsonOutput {
			return printJSON(files)
		}
		output.PrintProjectConfig(files)
		return nil
	},
}

var overridesCmd = &cobra.Command{
	Use:   "overrides <project>",
	Short: "Find nested CLAUDE.md files below a project",
	Long: `Recursively finds CLAUDE.md and CLAUDE.local.md files in the
subdirectories of a project, skipping hidden directories and build output
such as node_modules, target, dist, build and vendor.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		depth := config.MaxDepth(cfg)
		if cmd.Flags().Changed("max-depth") {
			depth = maxDepth
		}

		overrides, report := discover.ScanOverrides(args[0], depth)
		logSkipped(newLogger(), report)

		if jsonOutput {
			if overrides == nil {
				overrides = []types.SubdirectoryOverride{}
			}
			return printJSON(overrides)
		}
		output.PrintOverrides(overrides)
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print the contents of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := fsops.ReadFile(args[0])
		if err != nil {
			if errors.Is(err, fsops.ErrIsDirectory) {
				return fmt.Errorf("%w. Please select a file within it to view its contents", err)
			}
			return err
		}
		fmt.Print(text)
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <file>",
	Short: "Write a file from stdin or --content",
	Long: `Writes a file, creating missing parent directories. The content is read
from stdin unless --content is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := content
		if !cmd.Flags().Changed("content") {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(data)
		}

		if err := fsops.WriteFile(args[0], text); err != nil {
			return err
		}
		newLogger().Infof("wrote %d bytes to %s", len(text), args[0])
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls <dir>",
	Short: "List a directory, directories first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := fsops.ListDirectory(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(entries)
		}
		output.PrintEntries(entries)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a file, or a directory and everything below it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fsops.DeletePath(args[0])
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <dir>",
	Short: "Create a directory and any missing parents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fsops.CreateDirectory(args[0])
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate configuration, project directories and backup settings",
	Long: `Checks that the configuration is valid, reports which well-known paths
exist, verifies every project directory is readable and, when backups are
configured, that the bucket is reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		allPassed := doctor.RunChecks(cfg, configPath, discover.ConfigPaths(), offline)
		if !allPassed {
			exitFunc(1)
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateStarterConfig(configPath); err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("config file already exists: %s", configPath)
			}
			return fmt.Errorf("creating starter config: %w", err)
		}
		printWelcomeMessage(configPath)
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot configuration to S3-compatible storage",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload enterprise, user and project configuration files",
	Long: `Collects every existing configuration file, including nested CLAUDE.md
overrides of the projects below local.project_dirs, and uploads changed files
with secrets redacted. Safe to run repeatedly from multiple machines.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		log := newLogger()
		skipRedaction := noRedact || !config.RedactEnabled(cfg)
		if skipRedaction {
			log.Warnf("redaction disabled: files are uploaded unmodified")
		}

		paths := discover.ConfigPaths()
		home := discover.HomeDir(os.Getenv)
		sources := collectProjects(cfg, log)

		// Dry runs never contact remote storage
		if dryRun {
			b := backup.New(cfg, nil, log, skipRedaction)
			files := b.Collect(paths, home, sources)
			if _, err := b.DryRun(ctx, files); err != nil {
				return fmt.Errorf("processing files: %w", err)
			}
			return nil
		}

		client, err := config.NewS3Client(ctx, cfg)
		if err != nil {
			return fmt.Errorf("creating S3 client: %w", err)
		}

		b := backup.New(cfg, client, log, skipRedaction)
		files := b.Collect(paths, home, sources)

		m, err := b.Plan(ctx, files)
		if err != nil {
			return fmt.Errorf("checking remote files: %w", err)
		}

		if _, err := b.Upload(ctx, files, m); err != nil {
			return fmt.Errorf("uploading files: %w", err)
		}
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show backed-up file counts per host and scope",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, err := config.NewS3Client(ctx, cfg)
		if err != nil {
			return fmt.Errorf("creating S3 client: %w", err)
		}

		m, err := manifest.NewStore(client, cfg.S3.Bucket, cfg.S3.Prefix).Load(ctx)
		if err != nil {
			return fmt.Errorf("loading manifest: %w", err)
		}

		counts := m.CountByScope(cfg.S3.Prefix)
		if jsonOutput {
			return printJSON(counts)
		}
		output.PrintScopeCounts(counts)
		return nil
	},
}

var backupHostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List hosts that have uploaded backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, err := config.NewS3Client(ctx, cfg)
		if err != nil {
			return fmt.Errorf("creating S3 client: %w", err)
		}

		hosts, err := backup.ListHosts(ctx, client, cfg.S3.Bucket, cfg.S3.Prefix)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(hosts)
		}
		if len(hosts) == 0 {
			fmt.Println("No backups found.")
			return nil
		}
		for _, h := range hosts {
			fmt.Println(h)
		}
		return nil
	},
}

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to get home directory: %v\n", err)
		homeDir = "~"
	}
	defaultConfigPath = filepath.Join(homeDir, ".ccconfig", "config.yaml")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show info messages and skipped paths")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "show debug details, including per-file redaction stats")

	for _, cmd := range []*cobra.Command{pathsCmd, infoCmd, projectsCmd, projectCmd, overridesCmd, lsCmd, backupListCmd, backupHostsCmd} {
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	}

	overridesCmd.Flags().IntVar(&maxDepth, "max-depth", discover.DefaultMaxDepth, "maximum directory depth to scan (default from scan.max_depth)")
	writeCmd.Flags().StringVar(&content, "content", "", "content to write instead of reading stdin")
	doctorCmd.Flags().BoolVar(&offline, "offline", false, "skip the remote bucket connectivity check")
	backupRunCmd.Flags().BoolVar(&dryRun, "dry-run", false, "process files with redaction but don't upload (shows stats)")
	backupRunCmd.Flags().BoolVar(&noRedact, "no-redact", false, "disable secrets redaction (not recommended)")

	backupCmd.AddCommand(backupRunCmd, backupListCmd, backupHostsCmd)

	rootCmd.AddCommand(pathsCmd, existsCmd, infoCmd, projectsCmd, projectCmd, overridesCmd)
	rootCmd.AddCommand(catCmd, writeCmd, lsCmd, rmCmd, mkdirCmd)
	rootCmd.AddCommand(doctorCmd, initCmd, backupCmd)
}

var exitFunc = os.Exit

// loadConfig loads the config file. A missing file at the default path
// yields the default config since discovery works without one.
func loadConfig() (*types.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if configPath == defaultConfigPath {
				return config.Default(), nil
			}
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}
	return cfg, nil
}

func newLogger() logger.Logger {
	return logger.Logger{Verbose: verbose, Debug: debug}
}

// logSkipped warns about unreadable paths from a discovery scan. Shown with --verbose.
func logSkipped(log logger.Logger, report discover.Report) {
	if !log.Verbose && !log.Debug {
		return
	}
	for _, s := range report.Skipped {
		log.Warnf("skipped %s: %v", s.Path, s.Err)
	}
}

// collectProjects discovers the projects below every configured project
// directory, with the nested overrides of each.
func collectProjects(cfg *types.Config, log logger.Logger) []backup.ProjectSource {
	depth := config.MaxDepth(cfg)

	var report discover.Report
	var sources []backup.ProjectSource
	for _, dir := range cfg.Local.ProjectDirs {
		projects, r := discover.ScanProjects(dir)
		report.Merge(r)

		for _, p := range projects {
			overrides, r := discover.ScanOverrides(p.Path, depth)
			report.Merge(r)
			sources = append(sources, backup.ProjectSource{Project: p, Overrides: overrides})
		}
	}
	logSkipped(log, report)
	return sources
}

func printJSON(data any) error {
	if err := output.PrintJSON(data); err != nil {
		return fmt.Errorf("printing JSON output: %w", err)
	}
	return nil
}

func printWelcomeMessage(configPath string) {
	fmt.Println("Welcome to ccconfig!")
	fmt.Println()
	fmt.Printf("A starter configuration file has been created at:\n")
	fmt.Printf("  %s\n", configPath)
	fmt.Println()
	fmt.Println("Please edit this file and configure:")
	fmt.Println("  1. local.project_dirs - Directories containing your projects")
	fmt.Println("  2. s3.bucket and s3.region - Optional, for backups")
	fmt.Println("  3. auth.profile - Your AWS profile (or use static credentials)")
	fmt.Println()
	fmt.Println("For S3-compatible providers (Backblaze B2, MinIO, etc.):")
	fmt.Println("  - Set s3.endpoint to your provider's endpoint URL")
	fmt.Println("  - Set s3.force_path_style: true if required")
	fmt.Println()
	fmt.Println("After configuration, run:")
	fmt.Println("  ccconfig doctor       # Validate configuration")
	fmt.Println("  ccconfig projects     # List projects")
	fmt.Println("  ccconfig backup run   # Back up configuration files")
}
