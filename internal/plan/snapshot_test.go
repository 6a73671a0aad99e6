package plan_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kenafu/voice-dataset-organizer/internal/plan"
)

func TestTakeSnapshotIndexesAudioFiles(t *testing.T) {
	snap := writeAudioDir(t,
		"Neutral/a.wav",
		"Happy/b.ogg",
		"c.flac",
	)

	if snap.Len() != 3 {
		t.Fatalf("Len = %d, want 3", snap.Len())
	}
	info, ok := snap.Lookup("a.wav")
	if !ok || info.RelPath != "Neutral/a.wav" {
		t.Fatalf("Lookup(a.wav) = %+v, %v", info, ok)
	}
	if info.Size != int64(len("pcm")) {
		t.Fatalf("Size = %d", info.Size)
	}
	if got := snap.Abs(info.RelPath); got != filepath.Join(snap.Root(), info.RelPath) {
		t.Fatalf("Abs = %q", got)
	}
}

func TestTakeSnapshotIgnoresNonAudio(t *testing.T) {
	snap := writeAudioDir(t, "a.wav", "notes.txt", "report.csv", "nested/esd.list")

	if snap.Len() != 1 {
		t.Fatalf("Len = %d, want 1", snap.Len())
	}
	if _, ok := snap.Lookup("notes.txt"); ok {
		t.Fatal("non-audio file indexed")
	}
}

func TestTakeSnapshotIDsAreSorted(t *testing.T) {
	snap := writeAudioDir(t, "z.wav", "Neutral/a.wav", "Happy/m.wav")

	want := []string{"a.wav", "m.wav", "z.wav"}
	if got := snap.IDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("IDs = %v, want %v", got, want)
	}
}

func TestTakeSnapshotDuplicateBasenameKeepsFirst(t *testing.T) {
	// Walk order is lexical, so Happy/dup.wav is visited before
	// Neutral/dup.wav and wins.
	snap := writeAudioDir(t, "Neutral/dup.wav", "Happy/dup.wav")

	if snap.Len() != 1 {
		t.Fatalf("Len = %d, want 1", snap.Len())
	}
	info, _ := snap.Lookup("dup.wav")
	if info.RelPath != "Happy/dup.wav" {
		t.Fatalf("RelPath = %q", info.RelPath)
	}
}

func TestTakeSnapshotMissingDir(t *testing.T) {
	if _, err := plan.TakeSnapshot(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
