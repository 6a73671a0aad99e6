package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/kenafu/voice-dataset-organizer/internal/config"
	"github.com/kenafu/voice-dataset-organizer/internal/testsupport"
)

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(filepath.Dir(cfg.Paths.DatasetRoot), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func seedDataset(t *testing.T) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	testsupport.WriteAudioFile(t, cfg, "Neutral/a.wav", "audio-a")
	testsupport.WriteAudioFile(t, cfg, "Neutral/b.wav", "audio-b")
	testsupport.WriteManifest(t, cfg,
		"Neutral/a.wav|spk|en|hello",
		"Neutral/b.wav|spk|en|greeting",
	)
	return cfg, writeTestConfig(t, cfg)
}

func TestPlanCommandPreviewsWithoutChanging(t *testing.T) {
	cfg, configPath := seedDataset(t)
	reportPath := testsupport.WriteReport(t, cfg,
		"a.wav,spk,hello,Happy,true,",
		"b.wav,spk,greeting,Neutral,true,",
	)

	stdout, _, err := runCommand(t, "--config", configPath, "plan", "--report", reportPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !strings.Contains(stdout, "a.wav") || !strings.Contains(stdout, "Happy") {
		t.Fatalf("plan output missing move:\n%s", stdout)
	}
	if !strings.Contains(stdout, "1 moves") {
		t.Fatalf("plan summary:\n%s", stdout)
	}

	// Preview only: file stays where it was.
	if _, err := os.Stat(filepath.Join(cfg.AudioPath(), "Neutral", "a.wav")); err != nil {
		t.Fatalf("plan modified dataset: %v", err)
	}
}

func TestPlanCommandRequiresInput(t *testing.T) {
	_, configPath := seedDataset(t)
	if _, _, err := runCommand(t, "--config", configPath, "plan"); err == nil {
		t.Fatal("expected error without --report or --dedup")
	}
}

func TestApplyCommandEndToEnd(t *testing.T) {
	cfg, configPath := seedDataset(t)
	reportPath := testsupport.WriteReport(t, cfg,
		"a.wav,spk,hello,Happy,true,",
		"b.wav,spk,greeting,Neutral,true,",
	)

	stdout, _, err := runCommand(t, "--config", configPath, "apply", "--report", reportPath, "--yes")
	if err != nil {
		t.Fatalf("apply: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "full") {
		t.Fatalf("apply output:\n%s", stdout)
	}

	if _, err := os.Stat(filepath.Join(cfg.AudioPath(), "Happy", "a.wav")); err != nil {
		t.Fatalf("file not moved: %v", err)
	}
	data, err := os.ReadFile(cfg.ManifestPath())
	if err != nil {
		t.Fatal(err)
	}
	want := "Happy/a.wav|spk|en|hello\nNeutral/b.wav|spk|en|greeting\n"
	if string(data) != want {
		t.Fatalf("manifest = %q, want %q", data, want)
	}

	// A backup directory was created under the configured backup root.
	entries, err := os.ReadDir(cfg.BackupRoot())
	if err != nil || len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "backup_") {
		t.Fatalf("backup root entries = %v, err = %v", entries, err)
	}

	// The run shows up in history.
	historyOut, _, err := runCommand(t, "--config", configPath, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(historyOut, `"completion": "full"`) {
		t.Fatalf("history output:\n%s", historyOut)
	}
}

func TestApplyRefusesWithoutConfirmation(t *testing.T) {
	cfg, configPath := seedDataset(t)
	reportPath := testsupport.WriteReport(t, cfg,
		"a.wav,spk,hello,Happy,true,",
	)

	// Test output is not a terminal, so the prompt path must refuse.
	_, _, err := runCommand(t, "--config", configPath, "apply", "--report", reportPath)
	if err == nil {
		t.Fatal("expected refusal without --yes")
	}
	if _, statErr := os.Stat(filepath.Join(cfg.AudioPath(), "Neutral", "a.wav")); statErr != nil {
		t.Fatalf("dataset modified after refusal: %v", statErr)
	}
}

func TestManifestCheckReportsIssues(t *testing.T) {
	cfg, configPath := seedDataset(t)
	// ghost.wav in manifest only, stray.wav on disk only.
	testsupport.WriteAudioFile(t, cfg, "Neutral/stray.wav", "audio-s")
	testsupport.WriteManifest(t, cfg,
		"Neutral/a.wav|spk|en|hello",
		"Neutral/ghost.wav|spk|en|gone",
	)

	stdout, _, err := runCommand(t, "--config", configPath, "manifest", "check")
	if err == nil {
		t.Fatal("expected non-nil error for inconsistent dataset")
	}
	if !strings.Contains(stdout, "ghost.wav") || !strings.Contains(stdout, "stray.wav") {
		t.Fatalf("check output:\n%s", stdout)
	}
}

func TestManifestCheckCleanDataset(t *testing.T) {
	_, configPath := seedDataset(t)
	stdout, _, err := runCommand(t, "--config", configPath, "manifest", "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(stdout, "consistent") {
		t.Fatalf("check output:\n%s", stdout)
	}
}

func TestConfigNewCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "config.toml")
	stdout, _, err := runCommand(t, "config", "new", "--path", target)
	if err != nil {
		t.Fatalf("config new: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("output:\n%s", stdout)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config: %v", err)
	}

	// Refuses to clobber without --overwrite.
	if _, _, err := runCommand(t, "config", "new", "--path", target); err == nil {
		t.Fatal("expected error on existing file")
	}
	if _, _, err := runCommand(t, "config", "new", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestConfigShowCommand(t *testing.T) {
	cfg, configPath := seedDataset(t)
	stdout, _, err := runCommand(t, "--config", configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(stdout, cfg.Paths.DatasetRoot) {
		t.Fatalf("show output missing dataset root:\n%s", stdout)
	}
}
