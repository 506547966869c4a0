package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/13rac1/ccconfig/internal/discover"
	"github.com/13rac1/ccconfig/internal/logger"
	"github.com/13rac1/ccconfig/internal/manifest"
	"github.com/13rac1/ccconfig/internal/types"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeBucket is an in-memory bucket implementing Client.
type fakeBucket struct {
	objects map[string][]byte
	heads   int
	putErr  error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte)}
}

func (f *fakeBucket) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeBucket) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.heads++
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

var errMultipart = errors.New("multipart upload not expected for small files")

func (f *fakeBucket) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errMultipart
}

func (f *fakeBucket) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeBucket) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeBucket) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errMultipart
}

func testConfig() *types.Config {
	return &types.Config{
		S3:     types.S3Config{Bucket: "backups", Region: "us-east-1", Prefix: "claude-config/"},
		Backup: types.BackupConfig{Host: "laptop"},
	}
}

func quietLogger() logger.Logger {
	return logger.Logger{Out: io.Discard}
}

func TestComputeKey(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		host    string
		scope   string
		relPath string
		want    string
	}{
		{
			name:    "user file",
			prefix:  "claude-config/",
			host:    "laptop",
			scope:   "user",
			relPath: ".claude/settings.json",
			want:    "claude-config/laptop/user/.claude/settings.json",
		},
		{
			name:    "prefix without trailing slash",
			prefix:  "claude-config",
			host:    "laptop",
			scope:   "enterprise",
			relPath: "managed-settings.json",
			want:    "claude-config/laptop/enterprise/managed-settings.json",
		},
		{
			name:    "empty prefix",
			prefix:  "",
			host:    "laptop",
			scope:   "projects/api",
			relPath: "CLAUDE.md",
			want:    "laptop/projects/api/CLAUDE.md",
		},
		{
			name:    "windows path separators",
			prefix:  "claude-config/",
			host:    "desktop",
			scope:   "projects/api",
			relPath: "src\\billing\\CLAUDE.md",
			want:    "claude-config/desktop/projects/api/src/billing/CLAUDE.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeKey(tt.prefix, tt.host, tt.scope, tt.relPath)
			if got != tt.want {
				t.Errorf("ComputeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHost(t *testing.T) {
	cfg := testConfig()
	cfg.Backup.Host = "team/laptop"
	if got := Host(cfg); got != "team-laptop" {
		t.Errorf("Host() = %q, want %q", got, "team-laptop")
	}

	cfg.Backup.Host = ""
	if got := Host(cfg); got == "" || strings.Contains(got, "/") {
		t.Errorf("Host() fallback = %q, want non-empty hostname without slashes", got)
	}
}

func TestCollect(t *testing.T) {
	tmpDir := t.TempDir()
	home := filepath.Join(tmpDir, "home")
	enterprise := filepath.Join(tmpDir, "etc", "claude-code")
	projectsDir := filepath.Join(tmpDir, "code")
	api := filepath.Join(projectsDir, "api")

	for _, f := range []string{
		filepath.Join(enterprise, "managed-settings.json"),
		filepath.Join(home, ".claude", "CLAUDE.md"),
		filepath.Join(home, ".claude", "settings.json"),
		filepath.Join(home, ".claude", "agents", "reviewer.md"),
		filepath.Join(home, ".claude", "agents", "sub", "nested.md"),
		filepath.Join(home, ".claude.json"),
		filepath.Join(api, "CLAUDE.md"),
		filepath.Join(api, ".claude", "rules", "go.md"),
		filepath.Join(api, ".mcp.json"),
		filepath.Join(api, "src", "billing", "CLAUDE.md"),
		filepath.Join(api, "node_modules", "dep", "CLAUDE.md"),
	} {
		writeFile(t, f, "content")
	}

	paths := discover.WellKnownPaths(discover.Environment{
		Platform: discover.PlatformOther,
		Getenv: func(key string) string {
			if key == "HOME" {
				return home
			}
			return ""
		},
	})
	// Enterprise bases are fixed system paths; point them at the temp tree
	paths.Enterprise = types.EnterprisePaths{
		ClaudeMD:        discover.Stat(filepath.Join(enterprise, "CLAUDE.md")),
		ManagedMCP:      discover.Stat(filepath.Join(enterprise, "managed-mcp.json")),
		ManagedSettings: discover.Stat(filepath.Join(enterprise, "managed-settings.json")),
	}

	var sources []ProjectSource
	for _, p := range discover.ListProjects(projectsDir) {
		sources = append(sources, ProjectSource{
			Project:   p,
			Overrides: discover.DiscoverOverrides(p.Path, discover.DefaultMaxDepth),
		})
	}

	b := New(testConfig(), nil, quietLogger(), false)
	files := b.Collect(paths, home, sources)

	var keys []string
	for _, f := range files {
		keys = append(keys, f.Key)
		if f.Size == 0 || f.ModTime.IsZero() {
			t.Errorf("%s: missing size or mtime", f.Key)
		}
	}
	sort.Strings(keys)

	want := []string{
		"claude-config/laptop/enterprise/managed-settings.json",
		"claude-config/laptop/projects/api/.claude/rules/go.md",
		"claude-config/laptop/projects/api/.mcp.json",
		"claude-config/laptop/projects/api/CLAUDE.md",
		"claude-config/laptop/projects/api/src/billing/CLAUDE.md",
		"claude-config/laptop/user/.claude.json",
		"claude-config/laptop/user/.claude/CLAUDE.md",
		"claude-config/laptop/user/.claude/agents/reviewer.md",
		"claude-config/laptop/user/.claude/agents/sub/nested.md",
		"claude-config/laptop/user/.claude/settings.json",
	}

	if strings.Join(keys, "\n") != strings.Join(want, "\n") {
		t.Errorf("Collect() keys:\n%s\nwant:\n%s", strings.Join(keys, "\n"), strings.Join(want, "\n"))
	}
}

func TestCollectDeduplicatesKeys(t *testing.T) {
	tmpDir := t.TempDir()
	settings := filepath.Join(tmpDir, ".claude", "settings.json")
	writeFile(t, settings, "{}")

	info := discover.Stat(settings)
	paths := types.ConfigPaths{User: types.UserPaths{Settings: info, SettingsLocal: info}}

	b := New(testConfig(), nil, quietLogger(), false)
	files := b.Collect(paths, tmpDir, nil)

	if len(files) != 1 {
		t.Errorf("Collect() returned %d files, want 1", len(files))
	}
}

func TestPlan(t *testing.T) {
	mtime := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		noRedact  bool
		setup     func(*fakeBucket)
		wantSkip  map[string]string
		wantHeads int
	}{
		{
			name: "manifest marks unchanged file",
			setup: func(f *fakeBucket) {
				saveManifest(t, f, map[string]manifest.FileEntry{
					"claude-config/laptop/user/.claude/CLAUDE.md": {Mtime: mtime, Size: 5},
				})
				f.objects["claude-config/laptop/user/.claude/settings.json"] = []byte("12345")
			},
			wantSkip: map[string]string{
				"claude-config/laptop/user/.claude/CLAUDE.md": "unchanged",
			},
		},
		{
			name:     "raw uploads compare size when missing from manifest",
			noRedact: true,
			setup: func(f *fakeBucket) {
				f.objects["claude-config/laptop/user/.claude/settings.json"] = []byte("12345")
			},
			wantSkip: map[string]string{
				"claude-config/laptop/user/.claude/settings.json": "exists remotely",
			},
			wantHeads: 2,
		},
		{
			name:      "first run without bucket contents",
			noRedact:  true,
			setup:     func(f *fakeBucket) {},
			wantSkip:  map[string]string{},
			wantHeads: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket := newFakeBucket()
			tt.setup(bucket)

			files := []FileUpload{
				{Key: "claude-config/laptop/user/.claude/CLAUDE.md", Size: 5, ModTime: mtime.Add(300 * time.Millisecond)},
				{Key: "claude-config/laptop/user/.claude/settings.json", Size: 5, ModTime: mtime},
			}

			b := New(testConfig(), bucket, quietLogger(), tt.noRedact)
			m, err := b.Plan(context.Background(), files)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if m == nil {
				t.Fatal("Plan() returned nil manifest")
			}

			for _, f := range files {
				reason, wantSkip := tt.wantSkip[f.Key]
				if f.ShouldSkip != wantSkip {
					t.Errorf("%s: ShouldSkip = %v, want %v", f.Key, f.ShouldSkip, wantSkip)
				}
				if wantSkip && f.SkipReason != reason {
					t.Errorf("%s: SkipReason = %q, want %q", f.Key, f.SkipReason, reason)
				}
			}

			if bucket.heads != tt.wantHeads {
				t.Errorf("HeadObject called %d times, want %d", bucket.heads, tt.wantHeads)
			}
		})
	}
}

func TestPlanLogsManifestLocation(t *testing.T) {
	var buf bytes.Buffer
	b := New(testConfig(), newFakeBucket(), logger.Logger{Debug: true, Out: &buf}, false)

	if _, err := b.Plan(context.Background(), nil); err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	want := "s3://backups/" + manifest.Key("claude-config/")
	if !strings.Contains(buf.String(), want) {
		t.Errorf("debug output = %q, want manifest location %q", buf.String(), want)
	}
}

func TestUpload(t *testing.T) {
	tmpDir := t.TempDir()
	settings := filepath.Join(tmpDir, "settings.json")
	memory := filepath.Join(tmpDir, "CLAUDE.md")
	skipped := filepath.Join(tmpDir, "settings.local.json")

	writeFile(t, settings, `{"env": {"GITHUB_TOKEN": "plain-secret-value"}}`)
	writeFile(t, memory, "# Notes\nAsk ops@example.com for access.\n")
	writeFile(t, skipped, "{}")

	cfg := testConfig()
	files := []FileUpload{
		uploadFor(t, cfg, settings),
		uploadFor(t, cfg, memory),
		uploadFor(t, cfg, skipped),
	}
	files[2].ShouldSkip = true
	files[2].SkipReason = "unchanged"

	bucket := newFakeBucket()
	b := New(cfg, bucket, quietLogger(), false)

	result, err := b.Upload(context.Background(), files, manifest.New())
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if result.Uploaded != 2 || result.Skipped != 1 {
		t.Errorf("Uploaded = %d, Skipped = %d, want 2 and 1", result.Uploaded, result.Skipped)
	}
	if result.RedactionStats.TotalMatches != 2 {
		t.Errorf("TotalMatches = %d, want 2", result.RedactionStats.TotalMatches)
	}

	settingsBody := string(bucket.objects[files[0].Key])
	if strings.Contains(settingsBody, "plain-secret-value") || !strings.Contains(settingsBody, "<SECRET_FIELD-") {
		t.Errorf("settings.json not redacted:\n%s", settingsBody)
	}

	memoryBody := string(bucket.objects[files[1].Key])
	if strings.Contains(memoryBody, "ops@example.com") || !strings.HasPrefix(memoryBody, "# Notes\n") {
		t.Errorf("CLAUDE.md not redacted line by line:\n%s", memoryBody)
	}

	if _, ok := bucket.objects[files[2].Key]; ok {
		t.Error("skipped file was uploaded")
	}

	var saved manifest.Manifest
	if err := json.Unmarshal(bucket.objects["claude-config/.manifest.json"], &saved); err != nil {
		t.Fatalf("manifest not saved: %v", err)
	}
	if len(saved.Files) != 2 {
		t.Errorf("manifest has %d files, want 2", len(saved.Files))
	}
	entry := saved.Files[files[0].Key]
	if !entry.Redacted || entry.Source != settings {
		t.Errorf("manifest entry = %+v", entry)
	}
}

func TestUploadNoRedact(t *testing.T) {
	tmpDir := t.TempDir()
	settings := filepath.Join(tmpDir, "settings.json")
	content := `{"env": {"GITHUB_TOKEN": "plain-secret-value"}}`
	writeFile(t, settings, content)

	cfg := testConfig()
	files := []FileUpload{uploadFor(t, cfg, settings)}

	bucket := newFakeBucket()
	b := New(cfg, bucket, quietLogger(), true)

	if _, err := b.Upload(context.Background(), files, manifest.New()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if got := string(bucket.objects[files[0].Key]); got != content {
		t.Errorf("raw upload = %q, want %q", got, content)
	}
}

func TestUploadCancelled(t *testing.T) {
	tmpDir := t.TempDir()
	settings := filepath.Join(tmpDir, "settings.json")
	writeFile(t, settings, "{}")

	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := New(cfg, newFakeBucket(), quietLogger(), false)
	_, err := b.Upload(ctx, []FileUpload{uploadFor(t, cfg, settings)}, manifest.New())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Upload() error = %v, want context.Canceled", err)
	}
}

func TestUploadPutError(t *testing.T) {
	tmpDir := t.TempDir()
	memory := filepath.Join(tmpDir, "CLAUDE.md")
	writeFile(t, memory, "Contact ops@example.com\n")

	cfg := testConfig()
	bucket := newFakeBucket()
	bucket.putErr = errors.New("bucket unavailable")

	b := New(cfg, bucket, quietLogger(), false)
	result, err := b.Upload(context.Background(), []FileUpload{uploadFor(t, cfg, memory)}, manifest.New())
	if err == nil || !strings.Contains(err.Error(), "bucket unavailable") {
		t.Fatalf("Upload() error = %v, want bucket unavailable", err)
	}
	if result.Uploaded != 0 {
		t.Errorf("Uploaded = %d, want 0", result.Uploaded)
	}
	if len(bucket.objects) != 0 {
		t.Errorf("bucket has %d objects, want none after failed upload", len(bucket.objects))
	}
}

func TestOpenBodyClose(t *testing.T) {
	tmpDir := t.TempDir()
	memory := filepath.Join(tmpDir, "CLAUDE.md")
	writeFile(t, memory, strings.Repeat("Contact ops@example.com\n", 50000))

	cfg := testConfig()
	b := New(cfg, nil, quietLogger(), false)

	body, statsCh, err := b.openBody(uploadFor(t, cfg, memory))
	if err != nil {
		t.Fatalf("openBody() error = %v", err)
	}
	if _, err := io.ReadFull(body, make([]byte, 64)); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if err := body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case stats := <-statsCh:
		if stats.LinesProcessed >= 50000 {
			t.Errorf("LinesProcessed = %d, want redaction to stop after Close", stats.LinesProcessed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("redaction still running after Close")
	}
}

func TestDryRun(t *testing.T) {
	tmpDir := t.TempDir()
	settings := filepath.Join(tmpDir, "settings.json")
	memory := filepath.Join(tmpDir, "CLAUDE.md")
	writeFile(t, settings, `{"apiKey": "abc123"}`)
	writeFile(t, memory, "plain text\n")

	cfg := testConfig()
	files := []FileUpload{uploadFor(t, cfg, settings), uploadFor(t, cfg, memory)}

	b := New(cfg, nil, quietLogger(), false)
	result, err := b.DryRun(context.Background(), files)
	if err != nil {
		t.Fatalf("DryRun() error = %v", err)
	}

	if result.Uploaded != 2 {
		t.Errorf("Uploaded = %d, want 2", result.Uploaded)
	}
	if result.RedactionStats.ByPattern["SECRET_FIELD"] != 1 {
		t.Errorf("ByPattern = %v, want one SECRET_FIELD", result.RedactionStats.ByPattern)
	}
}

func TestDryRunMissingFile(t *testing.T) {
	cfg := testConfig()
	files := []FileUpload{{LocalPath: filepath.Join(t.TempDir(), "gone.md"), Key: "k"}}

	b := New(cfg, nil, quietLogger(), false)
	if _, err := b.DryRun(context.Background(), files); err == nil {
		t.Fatal("DryRun() error = nil, want error for missing file")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func uploadFor(t *testing.T, cfg *types.Config, path string) FileUpload {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return FileUpload{
		LocalPath: path,
		Key:       ComputeKey(cfg.S3.Prefix, Host(cfg), "user", filepath.Base(path)),
		Scope:     "user",
		Size:      info.Size(),
		ModTime:   info.ModTime().UTC(),
	}
}

func saveManifest(t *testing.T, f *fakeBucket, files map[string]manifest.FileEntry) {
	t.Helper()
	m := manifest.New()
	for k, v := range files {
		m.Record(k, v)
	}
	if err := manifest.NewStore(f, "backups", "claude-config/").Save(context.Background(), m); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
