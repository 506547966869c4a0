package doctor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fatih/color"

	"github.com/13rac1/ccconfig/internal/config"
	"github.com/13rac1/ccconfig/internal/discover"
	"github.com/13rac1/ccconfig/internal/types"
)

// placeholderBucket is the bucket name written by the starter config.
const placeholderBucket = "YOUR-BUCKET-NAME"

const remoteTimeout = 10 * time.Second

func checkmark() string {
	return color.GreenString("✓")
}

func crossmark() string {
	return color.RedString("✗")
}

func dash() string {
	return color.YellowString("-")
}

// RunChecks performs all doctor checks against cfg and the discovered
// well-known paths, and returns whether all passed. Remote storage is only
// contacted when skipRemote is false and backups are configured.
func RunChecks(cfg *types.Config, configPath string, paths types.ConfigPaths, skipRemote bool) bool {
	fmt.Println("ccconfig doctor - Configuration discovery check")
	fmt.Println()

	allPassed := true

	fmt.Println("Configuration:")
	fmt.Printf("  %s Config file: %s\n", checkmark(), configPath)
	fmt.Printf("  %s Override scan depth: %d\n", checkmark(), config.MaxDepth(cfg))
	fmt.Println()

	fmt.Println("Well-known paths:")
	checkWellKnown(paths)
	fmt.Println()

	fmt.Println("Project directories:")
	if !checkProjectDirs(cfg.Local.ProjectDirs) {
		allPassed = false
	}
	fmt.Println()

	fmt.Println("Backup:")
	if !checkBackup(cfg, configPath, skipRemote) {
		allPassed = false
	}
	fmt.Println()

	printSummary(allPassed)
	return allPassed
}

// checkWellKnown reports how many enterprise and user locations exist.
// Missing locations are normal and never fail the check.
func checkWellKnown(paths types.ConfigPaths) {
	found := map[string]int{}
	total := map[string]int{}
	for _, slot := range paths.Slots() {
		total[slot.Scope]++
		if slot.Info.Exists {
			found[slot.Scope]++
		}
	}

	for _, scope := range []string{types.ScopeEnterprise, types.ScopeUser} {
		mark := checkmark()
		if found[scope] == 0 {
			mark = dash()
		}
		fmt.Printf("  %s %s: %d of %d present\n", mark, scope, found[scope], total[scope])
	}

	if !paths.User.Settings.Exists && !paths.User.ClaudeMD.Exists {
		fmt.Printf("    → No user settings or CLAUDE.md yet at %s\n", paths.User.Settings.Path)
	}
}

// checkProjectDirs verifies every configured project directory is a readable directory.
func checkProjectDirs(dirs []string) bool {
	if len(dirs) == 0 {
		fmt.Printf("  %s No project_dirs configured\n", dash())
		fmt.Printf("    → Add local.project_dirs to list projects without arguments\n")
		return true
	}

	passed := true
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("  %s Project directory does not exist: %s\n", crossmark(), dir)
				fmt.Printf("    → Create the directory or update local.project_dirs in config\n")
			} else {
				fmt.Printf("  %s Cannot access project directory: %s\n", crossmark(), dir)
				fmt.Printf("    → Error: %v\n", err)
			}
			passed = false
			continue
		}

		if !info.IsDir() {
			fmt.Printf("  %s Project directory is not a directory: %s\n", crossmark(), dir)
			passed = false
			continue
		}

		projects, report := discover.ScanProjects(dir)
		if len(report.Skipped) > 0 && report.Skipped[0].Path == dir {
			fmt.Printf("  %s Project directory is not readable: %s\n", crossmark(), dir)
			fmt.Printf("    → Error: %v\n", report.Skipped[0].Err)
			passed = false
			continue
		}

		withClaudeMD := 0
		for _, p := range projects {
			if p.HasClaudeMD {
				withClaudeMD++
			}
		}

		fmt.Printf("  %s %s: %s (%d with CLAUDE.md)\n", checkmark(), dir, plural(len(projects), "project"), withClaudeMD)
		if n := len(report.Skipped); n > 0 {
			fmt.Printf("    → Skipped %s that could not be read\n", plural(n, "entry"))
		}
	}

	return passed
}

// checkBackup validates the S3 settings and, unless skipRemote, that the bucket is reachable.
func checkBackup(cfg *types.Config, configPath string, skipRemote bool) bool {
	if cfg.S3.Bucket == "" {
		fmt.Printf("  %s Backup not configured (optional)\n", dash())
		return true
	}

	if cfg.S3.Bucket == placeholderBucket {
		fmt.Printf("  %s S3 bucket not configured (still set to placeholder)\n", crossmark())
		fmt.Printf("    → Edit %s and set s3.bucket\n", configPath)
		return false
	}
	fmt.Printf("  %s S3 bucket configured: %s\n", checkmark(), cfg.S3.Bucket)

	if cfg.S3.Region == "" {
		fmt.Printf("  %s S3 region not configured\n", crossmark())
		fmt.Printf("    → Edit %s and set s3.region\n", configPath)
		return false
	}
	fmt.Printf("  %s S3 region configured: %s\n", checkmark(), cfg.S3.Region)
	fmt.Printf("  %s S3 prefix: %s\n", checkmark(), cfg.S3.Prefix)

	if skipRemote {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	client, err := config.NewS3Client(ctx, cfg)
	if err != nil {
		fmt.Printf("  %s Cannot create S3 client\n", crossmark())
		fmt.Printf("    → Error: %v\n", err)
		return false
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.S3.Bucket)}); err != nil {
		fmt.Printf("  %s Bucket is not reachable\n", crossmark())
		fmt.Printf("    → Error: %v\n", err)
		return false
	}
	fmt.Printf("  %s Bucket is reachable\n", checkmark())

	return true
}

func printSummary(allPassed bool) {
	if allPassed {
		fmt.Println("All checks passed! Ready to use ccconfig.")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}
}

// plural formats n with word, adding "s" (or "ies") when n != 1.
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if word[len(word)-1] == 'y' {
		return fmt.Sprintf("%d %sies", n, word[:len(word)-1])
	}
	return fmt.Sprintf("%d %ss", n, word)
}
