package triplets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAll(t *testing.T, path string, mode Mode, ts ...Triplet) {
	t.Helper()
	w, err := NewWriter(path, mode)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, tr := range ts {
		if err := w.Write(tr); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	return string(data)
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"replace", "append"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "overwrite", "Replace", "APPEND"} {
		if _, err := ParseMode(s); err == nil {
			t.Errorf("ParseMode(%q) succeeded, want error", s)
		}
	}
}

func TestWriter_OneObjectPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triplets.jsonl")
	writeAll(t, path, ModeReplace,
		Triplet{Query: "q1", Positive: "a", Negative: "b"},
		Triplet{Query: "q2", Positive: "c", Negative: "d"},
	)

	want := `{"query":"q1","positive":"a","negative":"b"}
{"query":"q2","positive":"c","negative":"d"}
`
	if got := readFile(t, path); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestWriter_ReplaceTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triplets.jsonl")
	if err := os.WriteFile(path, []byte("stale content\n"), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	writeAll(t, path, ModeReplace, Triplet{Query: "q", Positive: "a", Negative: "b"})

	got := readFile(t, path)
	if strings.Contains(got, "stale") {
		t.Errorf("replace mode kept old content: %q", got)
	}
}

func TestWriter_ReplaceWithNoWritesLeavesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triplets.jsonl")
	if err := os.WriteFile(path, []byte("stale content\n"), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	writeAll(t, path, ModeReplace)

	if got := readFile(t, path); got != "" {
		t.Errorf("file content = %q, want empty", got)
	}
}

func TestWriter_AppendPreserves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triplets.jsonl")
	writeAll(t, path, ModeReplace, Triplet{Query: "q1", Positive: "a", Negative: "b"})
	writeAll(t, path, ModeAppend, Triplet{Query: "q2", Positive: "c", Negative: "d"})

	got := readFile(t, path)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("got %d lines, want 2 (append keeps existing content)", len(lines))
	}
}

func TestWriter_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "triplets.jsonl")
	writeAll(t, path, ModeReplace, Triplet{Query: "q", Positive: "a", Negative: "b"})
	if _, err := os.Stat(path); err != nil {
		t.Errorf("nested output was not created: %v", err)
	}
}

func TestTripletKey(t *testing.T) {
	a := Triplet{Query: "q", Positive: "p", Negative: "n"}
	b := Triplet{Query: "q", Positive: "p", Negative: "n"}
	c := Triplet{Query: "q", Positive: "n", Negative: "p"}
	if a.Key() != b.Key() {
		t.Error("identical tuples have different keys")
	}
	if a.Key() == c.Key() {
		t.Error("distinct tuples share a key")
	}
}
