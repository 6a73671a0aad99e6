package textutil_test

import (
	"testing"

	"github.com/kenafu/voice-dataset-organizer/internal/textutil"
)

func TestNormalizeTranscriptFoldsWidthVariants(t *testing.T) {
	half := "ｺﾝﾆﾁﾊ 123"
	full := "コンニチハ　１２３"
	if textutil.NormalizeTranscript(half) != textutil.NormalizeTranscript(full) {
		t.Fatalf("width variants should normalize equal: %q vs %q",
			textutil.NormalizeTranscript(half), textutil.NormalizeTranscript(full))
	}
}

func TestNormalizeTranscriptCollapsesWhitespace(t *testing.T) {
	got := textutil.NormalizeTranscript("  hello \t world  ")
	if got != "hello world" {
		t.Fatalf("NormalizeTranscript = %q", got)
	}
}

func TestSanitizeLabel(t *testing.T) {
	cases := map[string]string{
		"Happy":        "Happy",
		" Angry! ":     "Angry",
		"Sad/Resigned": "SadResigned",
		"怒り":           "",
		"Neutral_calm": "Neutral_calm",
	}
	for input, want := range cases {
		if got := textutil.SanitizeLabel(input); got != want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSlugLabel(t *testing.T) {
	if got := textutil.SlugLabel("Happy Voice_2"); got != "happy-voice-2" {
		t.Fatalf("SlugLabel = %q", got)
	}
}
