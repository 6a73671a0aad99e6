package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kenafu/voice-dataset-organizer/internal/config"
)

// WriteManifest writes the manifest file from raw lines.
func WriteManifest(t testing.TB, cfg *config.Config, lines ...string) {
	t.Helper()

	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(cfg.ManifestPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

// WriteAudioFile places content at a path relative to the audio directory.
func WriteAudioFile(t testing.TB, cfg *config.Config, relPath, content string) {
	t.Helper()

	path := filepath.Join(cfg.AudioPath(), filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", relPath, err)
	}
}

// WriteReport writes a classification CSV next to the dataset and returns
// its path. Rows are raw CSV lines without the header.
func WriteReport(t testing.TB, cfg *config.Config, rows ...string) string {
	t.Helper()

	lines := append([]string{"Filename,Speaker,Text,Emotion,Is_Usable,Reason"}, rows...)
	path := filepath.Join(cfg.Paths.DatasetRoot, "report.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	return path
}
