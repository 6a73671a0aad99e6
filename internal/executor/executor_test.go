package executor_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kenafu/voice-dataset-organizer/internal/backup"
	"github.com/kenafu/voice-dataset-organizer/internal/executor"
	"github.com/kenafu/voice-dataset-organizer/internal/manifest"
	"github.com/kenafu/voice-dataset-organizer/internal/plan"
)

type dataset struct {
	root         string
	audioDir     string
	manifestPath string
	snap         *plan.Snapshot
	manifest     *manifest.Manifest
}

// newDataset lays out the three-sample fixture: a.wav is misplaced in
// Neutral but classified Happy, b.wav and c.wav share content with b kept.
func newDataset(t *testing.T) *dataset {
	t.Helper()
	root := t.TempDir()
	audioDir := filepath.Join(root, "raw")
	files := map[string]string{
		"Neutral/a.wav": "audio-a",
		"Neutral/b.wav": "audio-bc",
		"Neutral/c.wav": "audio-bc",
	}
	for rel, content := range files {
		path := filepath.Join(audioDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	manifestPath := filepath.Join(root, "esd.list")
	manifestText := strings.Join([]string{
		"Neutral/a.wav|spk|en|hello",
		"Neutral/b.wav|spk|en|greeting",
		"Neutral/c.wav|spk|en|greeting",
	}, "\n") + "\n"
	if err := os.WriteFile(manifestPath, []byte(manifestText), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := plan.TakeSnapshot(audioDir)
	if err != nil {
		t.Fatal(err)
	}
	m, _, err := manifest.Load(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	return &dataset{root: root, audioDir: audioDir, manifestPath: manifestPath, snap: snap, manifest: m}
}

func (d *dataset) executor(t *testing.T) *executor.Executor {
	t.Helper()
	mgr := backup.NewManager(filepath.Join(d.root, "backups"), nil)
	return executor.New(d.snap, d.manifestPath, mgr, nil)
}

func reorganizePlan() *plan.Plan {
	return &plan.Plan{Actions: []plan.Action{
		{Kind: plan.KindMove, SampleID: "a.wav", FromPath: "Neutral/a.wav", ToFolder: "Happy", Reason: "classified as Happy"},
		{Kind: plan.KindQuarantine, SampleID: "c.wav", FromPath: "Neutral/c.wav", Reason: "content duplicate of b.wav"},
		{Kind: plan.KindNone, SampleID: "b.wav", Reason: "placement verified"},
		{Kind: plan.KindManifestUpdate, SampleID: "c.wav", Remove: true},
		{Kind: plan.KindManifestUpdate, SampleID: "a.wav", ToFolder: "Happy"},
	}}
}

func TestApplyFullRun(t *testing.T) {
	d := newDataset(t)
	report, err := d.executor(t).Apply(context.Background(), d.manifest, reorganizePlan())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if report.State != executor.StateCompleted || report.Completion != executor.CompletionFull {
		t.Fatalf("state=%s completion=%s", report.State, report.Completion)
	}
	if report.RunID == "" {
		t.Fatal("missing run ID")
	}
	if report.Succeeded != 4 || report.Failed != 0 || report.Skipped != 1 {
		t.Fatalf("counts = %d/%d/%d", report.Succeeded, report.Failed, report.Skipped)
	}

	// a.wav moved, c.wav quarantined into the backup dir, b.wav untouched.
	if _, err := os.Stat(filepath.Join(d.audioDir, "Happy", "a.wav")); err != nil {
		t.Fatalf("moved file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.audioDir, "Neutral", "c.wav")); !os.IsNotExist(err) {
		t.Fatalf("redundant file still in dataset: %v", err)
	}
	quarantined := filepath.Join(report.BackupDir, "quarantine", "Neutral", "c.wav")
	if _, err := os.Stat(quarantined); err != nil {
		t.Fatalf("quarantined file: %v", err)
	}

	// Backup holds the pre-apply state of every touched file.
	for _, rel := range []string{"Neutral/a.wav", "Neutral/c.wav", "esd.list"} {
		if _, err := os.Stat(filepath.Join(report.BackupDir, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("backup missing %s: %v", rel, err)
		}
	}

	data, err := os.ReadFile(d.manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "Happy/a.wav|spk|en|hello\nNeutral/b.wav|spk|en|greeting\n"
	if string(data) != want {
		t.Fatalf("manifest = %q, want %q", data, want)
	}
}

func TestApplyPartialFailureKeepsManifestEntry(t *testing.T) {
	d := newDataset(t)
	// A directory squatting on the move destination makes that one action
	// fail while the rest of the plan proceeds.
	if err := os.MkdirAll(filepath.Join(d.audioDir, "Happy", "a.wav"), 0o755); err != nil {
		t.Fatal(err)
	}

	report, err := d.executor(t).Apply(context.Background(), d.manifest, reorganizePlan())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if report.Completion != executor.CompletionPartial {
		t.Fatalf("completion = %s, want partial", report.Completion)
	}
	if report.Failed != 1 {
		t.Fatalf("failed = %d, want 1", report.Failed)
	}

	// The quarantine still ran; only the move failed.
	if _, err := os.Stat(filepath.Join(d.audioDir, "Neutral", "c.wav")); !os.IsNotExist(err) {
		t.Fatalf("quarantine skipped: %v", err)
	}

	// Manifest keeps a.wav at its original path but drops c.wav.
	data, err := os.ReadFile(d.manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "Neutral/a.wav|spk|en|hello\nNeutral/b.wav|spk|en|greeting\n"
	if string(data) != want {
		t.Fatalf("manifest = %q, want %q", data, want)
	}

	// The manifest update for a.wav was skipped with an explanation.
	for _, outcome := range report.Outcomes {
		if outcome.Action.Kind == plan.KindManifestUpdate && outcome.Action.SampleID == "a.wav" {
			if outcome.Status != executor.OutcomeSkipped {
				t.Fatalf("update outcome = %+v", outcome)
			}
		}
	}
}

func TestApplyAbortsWhenBackupFails(t *testing.T) {
	d := newDataset(t)
	// A plan referencing a file absent from the snapshot makes the backup
	// fail before anything is copied or modified.
	p := &plan.Plan{Actions: []plan.Action{
		{Kind: plan.KindDelete, SampleID: "phantom.wav", FromPath: "Neutral/phantom.wav"},
		{Kind: plan.KindManifestUpdate, SampleID: "phantom.wav", Remove: true},
	}}

	report, err := d.executor(t).Apply(context.Background(), d.manifest, p)
	if err == nil {
		t.Fatal("expected backup error")
	}
	if report.Completion != executor.CompletionAborted {
		t.Fatalf("completion = %s, want aborted", report.Completion)
	}
	if report.Succeeded != 0 || len(report.Outcomes) != 0 {
		t.Fatalf("aborted run applied actions: %+v", report)
	}

	// Dataset untouched.
	if _, err := os.Stat(filepath.Join(d.audioDir, "Neutral", "a.wav")); err != nil {
		t.Fatalf("dataset modified: %v", err)
	}
}

func TestApplyNoopPlan(t *testing.T) {
	d := newDataset(t)
	p := &plan.Plan{Actions: []plan.Action{
		{Kind: plan.KindNone, SampleID: "a.wav", Reason: "placement verified"},
	}}

	report, err := d.executor(t).Apply(context.Background(), d.manifest, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if report.Completion != executor.CompletionFull || report.BackupDir != "" {
		t.Fatalf("report = %+v", report)
	}
}

func TestApplyCancelledContextSkipsRemaining(t *testing.T) {
	d := newDataset(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := d.executor(t).Apply(ctx, d.manifest, reorganizePlan())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if report.Completion != executor.CompletionPartial {
		t.Fatalf("completion = %s, want partial", report.Completion)
	}
	if report.Succeeded != 0 {
		t.Fatalf("cancelled run applied %d actions", report.Succeeded)
	}

	// Files untouched after cancellation.
	if _, err := os.Stat(filepath.Join(d.audioDir, "Neutral", "a.wav")); err != nil {
		t.Fatalf("dataset modified: %v", err)
	}
}

func TestApplySweepsEmptyFolders(t *testing.T) {
	d := newDataset(t)
	p := &plan.Plan{Actions: []plan.Action{
		{Kind: plan.KindMove, SampleID: "a.wav", FromPath: "Neutral/a.wav", ToFolder: "Happy"},
		{Kind: plan.KindMove, SampleID: "b.wav", FromPath: "Neutral/b.wav", ToFolder: "Happy"},
		{Kind: plan.KindMove, SampleID: "c.wav", FromPath: "Neutral/c.wav", ToFolder: "Happy"},
		{Kind: plan.KindManifestUpdate, SampleID: "a.wav", ToFolder: "Happy"},
		{Kind: plan.KindManifestUpdate, SampleID: "b.wav", ToFolder: "Happy"},
		{Kind: plan.KindManifestUpdate, SampleID: "c.wav", ToFolder: "Happy"},
	}}

	if _, err := d.executor(t).Apply(context.Background(), d.manifest, p); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.audioDir, "Neutral")); !os.IsNotExist(err) {
		t.Fatalf("emptied folder not removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.audioDir, "Happy", "b.wav")); err != nil {
		t.Fatalf("moved file: %v", err)
	}
}
