package backup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kenafu/voice-dataset-organizer/internal/plan"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testPlan() *plan.Plan {
	return &plan.Plan{Actions: []plan.Action{
		{Kind: plan.KindMove, SampleID: "a.wav", FromPath: "Neutral/a.wav", ToFolder: "Happy"},
		{Kind: plan.KindQuarantine, SampleID: "b.wav", FromPath: "Neutral/b.wav"},
		{Kind: plan.KindNone, SampleID: "c.wav"},
		{Kind: plan.KindManifestUpdate, SampleID: "a.wav", ToFolder: "Happy"},
	}}
}

func TestCreateCopiesAffectedFilesAndManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "raw", "Neutral", "a.wav"), "content-a")
	writeFile(t, filepath.Join(root, "raw", "Neutral", "b.wav"), "content-b")
	writeFile(t, filepath.Join(root, "raw", "Neutral", "c.wav"), "content-c")
	manifestPath := filepath.Join(root, "esd.list")
	writeFile(t, manifestPath, "Neutral/a.wav|s|en|t\n")

	snap, err := plan.TakeSnapshot(filepath.Join(root, "raw"))
	if err != nil {
		t.Fatal(err)
	}

	m := NewManager(filepath.Join(root, "backups"), nil)
	now := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	b, err := m.Create(snap, manifestPath, testPlan(), "0f8fad5b-d9cb-469f-a165-70867728950e", now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wantDir := filepath.Join(root, "backups", "backup_20260829_103000_0f8fad5b")
	if b.Dir != wantDir {
		t.Fatalf("Dir = %q, want %q", b.Dir, wantDir)
	}

	for rel, content := range map[string]string{
		"Neutral/a.wav": "content-a",
		"Neutral/b.wav": "content-b",
		"esd.list":      "Neutral/a.wav|s|en|t\n",
	} {
		data, err := os.ReadFile(filepath.Join(b.Dir, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		if string(data) != content {
			t.Fatalf("%s = %q, want %q", rel, data, content)
		}
	}

	// c.wav was not touched by the plan and must not be in the backup.
	if _, err := os.Stat(filepath.Join(b.Dir, "Neutral", "c.wav")); !os.IsNotExist(err) {
		t.Fatalf("untouched file backed up: %v", err)
	}
	if len(b.Files) != 3 {
		t.Fatalf("Files = %v", b.Files)
	}
}

func TestCreateFailsWhenSpaceInsufficient(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "raw", "Neutral", "a.wav"), "content-a")
	manifestPath := filepath.Join(root, "esd.list")
	writeFile(t, manifestPath, "Neutral/a.wav|s|en|t\n")

	snap, err := plan.TakeSnapshot(filepath.Join(root, "raw"))
	if err != nil {
		t.Fatal(err)
	}

	orig := statfs
	statfs = func(path string, stat *unix.Statfs_t) error {
		stat.Bavail = 1
		stat.Bsize = 1
		return nil
	}
	defer func() { statfs = orig }()

	m := NewManager(filepath.Join(root, "backups"), nil)
	p := &plan.Plan{Actions: []plan.Action{
		{Kind: plan.KindDelete, SampleID: "a.wav", FromPath: "Neutral/a.wav"},
	}}
	_, err = m.Create(snap, manifestPath, p, "run12345", time.Now())
	if err == nil {
		t.Fatal("expected insufficient-space error")
	}
	var berr *Error
	if !errors.As(err, &berr) {
		t.Fatalf("error type = %T", err)
	}
	if !strings.Contains(err.Error(), "insufficient space") {
		t.Fatalf("error = %v", err)
	}

	// Fail-fast: nothing was copied.
	entries, _ := os.ReadDir(filepath.Join(root, "backups"))
	if len(entries) != 0 {
		t.Fatalf("backup root not empty after preflight failure: %v", entries)
	}
}

func TestCreateFailsWhenSourceMissing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "raw", "Neutral", "a.wav"), "content-a")
	manifestPath := filepath.Join(root, "esd.list")
	writeFile(t, manifestPath, "x\n")

	snap, err := plan.TakeSnapshot(filepath.Join(root, "raw"))
	if err != nil {
		t.Fatal(err)
	}

	m := NewManager(filepath.Join(root, "backups"), nil)
	p := &plan.Plan{Actions: []plan.Action{
		{Kind: plan.KindDelete, SampleID: "gone.wav", FromPath: "Neutral/gone.wav"},
	}}
	if _, err := m.Create(snap, manifestPath, p, "run12345", time.Now()); err == nil {
		t.Fatal("expected error for file missing from snapshot")
	}
}

func TestQuarantinePath(t *testing.T) {
	b := &Backup{Dir: "/data/backups/backup_x"}
	got := b.QuarantinePath("Neutral/b.wav")
	want := filepath.Join("/data/backups/backup_x", "quarantine", "Neutral", "b.wav")
	if got != want {
		t.Fatalf("QuarantinePath = %q, want %q", got, want)
	}
}
