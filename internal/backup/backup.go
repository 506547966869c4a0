// Package backup snapshots discovered Claude Code configuration to S3-compatible storage.
// It collects every existing enterprise, user and project configuration file,
// computes its object key, skips files the manifest records as unchanged, and
// uploads the rest through the multipart upload manager with secrets redacted.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/13rac1/ccconfig/internal/logger"
	"github.com/13rac1/ccconfig/internal/manifest"
	"github.com/13rac1/ccconfig/internal/redactor"
	"github.com/13rac1/ccconfig/internal/types"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Key segments below <prefix><host>/.
const (
	scopeEnterprise = "enterprise"
	scopeUser       = "user"
	scopeProjects   = "projects"
)

// Client is the subset of the S3 API used by backups. *s3.Client satisfies it.
type Client interface {
	manager.UploadAPIClient
	manifest.S3Client
	headObjectAPI
}

// FileUpload represents a file to be uploaded to S3.
type FileUpload struct {
	LocalPath  string    // Full path to local file
	Key        string    // Destination S3 key
	Scope      string    // enterprise, user, or projects/<id>
	Size       int64     // File size in bytes
	ModTime    time.Time // File modification time
	ShouldSkip bool      // True if file exists remotely and is identical
	SkipReason string    // Reason for skipping (e.g., "unchanged")
}

// ProjectSource is a project together with the nested overrides found below it.
type ProjectSource struct {
	Project   types.ProjectInfo
	Overrides []types.SubdirectoryOverride
}

// Backup orchestrates configuration snapshots.
type Backup struct {
	cfg      *types.Config
	client   Client
	store    *manifest.Store
	log      logger.Logger
	host     string
	noRedact bool
}

// New creates a Backup. client may be nil for dry runs.
func New(cfg *types.Config, client Client, log logger.Logger, noRedact bool) *Backup {
	return &Backup{
		cfg:      cfg,
		client:   client,
		store:    manifest.NewStore(client, cfg.S3.Bucket, cfg.S3.Prefix),
		log:      log,
		host:     Host(cfg),
		noRedact: noRedact,
	}
}

// Host returns the host segment used in object keys: backup.host when set,
// otherwise the machine hostname.
func Host(cfg *types.Config) string {
	host := cfg.Backup.Host
	if host == "" {
		h, err := os.Hostname()
		if err != nil || h == "" {
			h = "unknown-host"
		}
		host = h
	}
	return strings.NewReplacer("/", "-", "\\", "-").Replace(host)
}

// ComputeKey generates the S3 key for a local file.
// Format: <prefix><host>/<scope>/<relative-path>
// The prefix is normalized to have a trailing slash if non-empty.
// Path separators are converted to forward slashes for S3 compatibility.
func ComputeKey(prefix, host, scope, relPath string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	// filepath.ToSlash only converts the OS-specific separator, so
	// backslashes are replaced explicitly to handle Windows paths on Unix
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	relPath = strings.TrimPrefix(relPath, "/")

	return strings.ReplaceAll(prefix, "\\", "/") + host + "/" + scope + "/" + relPath
}

// Collect builds the upload list for every existing configuration file.
// Directory slots (agents, commands, skills, rules) are walked for regular files.
// Unreadable entries are logged and skipped.
func (b *Backup) Collect(paths types.ConfigPaths, home string, projects []ProjectSource) []FileUpload {
	c := collector{b: b, seen: make(map[string]bool)}

	for _, slot := range paths.Slots() {
		switch slot.Scope {
		case types.ScopeEnterprise:
			// Enterprise files live in a flat directory
			c.addSlot(slot.Info, scopeEnterprise, filepath.Dir(slot.Info.Path))
		case types.ScopeUser:
			c.addSlot(slot.Info, scopeUser, home)
		}
	}

	for _, src := range projects {
		scope := scopeProjects + "/" + src.Project.ID
		for _, slot := range src.Project.ConfigFiles.Slots() {
			c.addSlot(slot.Info, scope, src.Project.Path)
		}
		for _, o := range src.Overrides {
			c.addSlot(types.PathInfo{Path: o.FullPath, Exists: o.Exists}, scope, src.Project.Path)
		}
	}

	return c.uploads
}

type collector struct {
	b       *Backup
	seen    map[string]bool
	uploads []FileUpload
}

// addSlot adds a file slot, or every regular file below a directory slot.
func (c *collector) addSlot(info types.PathInfo, scope, base string) {
	if !info.Exists {
		return
	}

	if !info.IsDir {
		c.addFile(info.Path, scope, base)
		return
	}

	err := filepath.WalkDir(info.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.b.log.Warnf("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		c.addFile(path, scope, base)
		return nil
	})
	if err != nil {
		c.b.log.Warnf("walking %s: %v", info.Path, err)
	}
}

func (c *collector) addFile(path, scope, base string) {
	// Stat follows symlinks so linked files are backed up by content
	info, err := os.Stat(path)
	if err != nil {
		c.b.log.Warnf("skipping %s: %v", path, err)
		return
	}
	if !info.Mode().IsRegular() {
		return
	}

	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(path)
	}

	key := ComputeKey(c.b.cfg.S3.Prefix, c.b.host, scope, rel)
	if c.seen[key] {
		return
	}
	c.seen[key] = true

	c.b.log.Debugf("collected %s -> %s", path, key)
	c.uploads = append(c.uploads, FileUpload{
		LocalPath: path,
		Key:       key,
		Scope:     scope,
		Size:      info.Size(),
		ModTime:   info.ModTime().UTC(),
	})
}

// Plan marks files the manifest records as unchanged. With redaction disabled,
// files missing from the manifest are also compared by size against the
// remote object. Returns the loaded manifest for Upload to extend.
func (b *Backup) Plan(ctx context.Context, files []FileUpload) (*manifest.Manifest, error) {
	b.log.Debugf("loading manifest s3://%s/%s", b.cfg.S3.Bucket, b.store.Key())
	m, err := b.store.Load(ctx)
	if err != nil {
		// Treat as first run
		b.log.Warnf("failed to load manifest (treating as first run): %v", err)
		m = manifest.New()
	}

	for i := range files {
		if m.Unchanged(files[i].Key, files[i].ModTime) {
			files[i].ShouldSkip = true
			files[i].SkipReason = "unchanged"
			continue
		}

		// Redacted uploads never match the local size, so only raw copies can be compared
		if !b.noRedact {
			continue
		}
		if _, recorded := m.Files[files[i].Key]; recorded {
			continue
		}

		upload, err := ShouldUpload(ctx, b.client, b.cfg.S3.Bucket, files[i].Key, files[i].Size)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", files[i].Key, err)
		}
		if !upload {
			files[i].ShouldSkip = true
			files[i].SkipReason = "exists remotely"
			m.Record(files[i].Key, b.entry(files[i], false))
		}
	}

	return m, nil
}

// Result contains summary statistics from a backup run.
type Result struct {
	Uploaded       int             // Number of files uploaded
	Skipped        int             // Number of files skipped
	UploadedBytes  int64           // Total source bytes uploaded
	RedactionStats *redactor.Stats // Aggregated redaction statistics
}

// Upload uploads the provided files, respecting ShouldSkip, and saves the
// manifest when anything was uploaded.
func (b *Backup) Upload(ctx context.Context, files []FileUpload, m *manifest.Manifest) (*Result, error) {
	result := &Result{RedactionStats: redactor.NewStats()}
	if len(files) == 0 {
		return result, nil
	}

	uploader := manager.NewUploader(b.client, func(mu *manager.Uploader) {
		mu.Concurrency = 5            // 5 concurrent parts per file
		mu.PartSize = 5 * 1024 * 1024 // 5MB parts
	})

	total := len(files)
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("backup cancelled: %w", err)
		}

		if file.ShouldSkip {
			fmt.Printf("[%d/%d] Skipping %s (%s)\n", i+1, total, file.LocalPath, file.SkipReason)
			result.Skipped++
			continue
		}

		fmt.Printf("[%d/%d] Uploading %s (%s)", i+1, total, file.LocalPath, formatSize(file.Size))

		stats, err := b.uploadFile(ctx, uploader, file)
		if err != nil {
			fmt.Println()
			return result, fmt.Errorf("uploading %s: %w", file.LocalPath, err)
		}
		b.printFileStats(stats)
		result.RedactionStats.Add(stats)

		m.Record(file.Key, b.entry(file, !b.noRedact))
		result.Uploaded++
		result.UploadedBytes += file.Size
	}

	if result.Uploaded > 0 {
		if err := b.store.Save(ctx, m); err != nil {
			b.log.Warnf("failed to save manifest (uploads succeeded): %v", err)
		}
	}

	printSummary("Backup complete", result)
	return result, nil
}

// DryRun redacts every file without uploading and reports what would be sent.
func (b *Backup) DryRun(ctx context.Context, files []FileUpload) (*Result, error) {
	result := &Result{RedactionStats: redactor.NewStats()}

	total := len(files)
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("dry run cancelled: %w", err)
		}

		fmt.Printf("[%d/%d] Would upload %s -> %s (%s)", i+1, total, file.LocalPath, file.Key, formatSize(file.Size))

		body, statsCh, err := b.openBody(file)
		if err != nil {
			fmt.Println()
			return result, err
		}
		_, copyErr := io.Copy(io.Discard, body)
		b.closeBody(body, file)
		if copyErr != nil {
			fmt.Println()
			return result, fmt.Errorf("processing %s: %w", file.LocalPath, copyErr)
		}

		var stats *redactor.Stats
		if statsCh != nil {
			stats = <-statsCh
		}
		b.printFileStats(stats)
		result.RedactionStats.Add(stats)

		result.Uploaded++
		result.UploadedBytes += file.Size
	}

	printSummary("Dry run complete", result)
	return result, nil
}

// uploadFile uploads a single file. Returns redaction stats if redaction was enabled, nil otherwise.
func (b *Backup) uploadFile(ctx context.Context, uploader *manager.Uploader, file FileUpload) (*redactor.Stats, error) {
	body, statsCh, err := b.openBody(file)
	if err != nil {
		return nil, err
	}
	// Closing stops the redaction goroutine when the upload ends early
	defer b.closeBody(body, file)

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.cfg.S3.Bucket),
		Key:    aws.String(file.Key),
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload: %w", err)
	}

	if statsCh != nil {
		return <-statsCh, nil
	}
	return nil, nil
}

// openBody returns the content to upload for file. JSON files are redacted
// as whole documents; other files are redacted line by line as they stream.
// The caller must close the returned body.
func (b *Backup) openBody(file FileUpload) (io.ReadCloser, <-chan *redactor.Stats, error) {
	f, err := os.Open(file.LocalPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}

	if b.noRedact {
		return f, nil, nil
	}

	if strings.EqualFold(filepath.Ext(file.LocalPath), ".json") {
		data, err := io.ReadAll(f)
		b.closeBody(f, file)
		if err != nil {
			return nil, nil, fmt.Errorf("reading file: %w", err)
		}
		redacted, stats, err := redactor.RedactDocument(data)
		if err != nil {
			return nil, nil, fmt.Errorf("redacting %s: %w", file.LocalPath, err)
		}
		ch := make(chan *redactor.Stats, 1)
		ch <- stats
		return io.NopCloser(bytes.NewReader(redacted)), ch, nil
	}

	body, statsCh := redactor.StreamRedactWithStats(f)
	return &redactedBody{ReadCloser: body, file: f}, statsCh, nil
}

// redactedBody closes both the redaction stream and its source file.
type redactedBody struct {
	io.ReadCloser
	file *os.File
}

func (r *redactedBody) Close() error {
	streamErr := r.ReadCloser.Close()
	if err := r.file.Close(); err != nil {
		return err
	}
	return streamErr
}

func (b *Backup) closeBody(body io.Closer, file FileUpload) {
	if err := body.Close(); err != nil {
		b.log.Warnf("failed to close file %s: %v", file.LocalPath, err)
	}
}

func (b *Backup) entry(file FileUpload, redacted bool) manifest.FileEntry {
	return manifest.FileEntry{
		Mtime:    file.ModTime,
		Size:     file.Size,
		Source:   file.LocalPath,
		Redacted: redacted,
	}
}

// printFileStats completes the per-file progress line.
func (b *Backup) printFileStats(stats *redactor.Stats) {
	if stats.Changed() {
		fmt.Printf(" → %s (%d matches)\n", formatSize(stats.RedactedBytes), stats.TotalMatches)
		b.log.Debugf("redactions: %s", stats)
		return
	}
	fmt.Println()
}

func printSummary(title string, result *Result) {
	fmt.Printf("\n%s: %d uploaded (%s), %d skipped\n",
		title, result.Uploaded, formatSize(result.UploadedBytes), result.Skipped)

	stats := result.RedactionStats
	if !stats.Changed() {
		return
	}

	fmt.Printf("\nRedaction summary:\n")
	fmt.Printf("  Files: %d with redactions\n", stats.Files)
	fmt.Printf("  Matches: %d total (%d secret fields)\n", stats.TotalMatches, stats.SecretFields())
	for _, pc := range stats.Summary() {
		fmt.Printf("    %s: %d\n", pc.Pattern, pc.Count)
	}
}

// formatSize formats a byte count as a human-readable string.
func formatSize(n int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case n >= GB:
		return fmt.Sprintf("%.1f GB", float64(n)/GB)
	case n >= MB:
		return fmt.Sprintf("%.1f MB", float64(n)/MB)
	case n >= KB:
		return fmt.Sprintf("%.1f KB", float64(n)/KB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
