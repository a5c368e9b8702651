package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("writing log fixture: %v", err)
	}
	return path
}

func scanAll(t *testing.T, path string) []map[string]any {
	t.Helper()
	sc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sc.Close()

	var records []map[string]any
	for sc.Next() {
		records = append(records, sc.Record())
	}
	return records
}

func TestScanner_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.log")
	records := scanAll(t, path)
	if len(records) != 0 {
		t.Errorf("got %d records from missing file, want 0", len(records))
	}
}

func TestScanner_ReadsObjects(t *testing.T) {
	path := writeLog(t, `{"kind":"search","event_id":"e1"}
{"kind":"feedback","event_id":"e1"}
`)
	records := scanAll(t, path)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["event_id"] != "e1" {
		t.Errorf("records[0].event_id = %v, want e1", records[0]["event_id"])
	}
}

func TestScanner_SkipsMalformedLines(t *testing.T) {
	path := writeLog(t, `{"kind":"search","event_id":"e1"}
not json at all
{"unterminated":
[1, 2, 3]
"just a string"
42
null

{"kind":"feedback","event_id":"e1"}
`)
	records := scanAll(t, path)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (malformed and non-object lines skipped)", len(records))
	}
}

func TestScanner_OversizedLineDoesNotAbortScan(t *testing.T) {
	huge := `{"kind":"search","event_id":"big","query":"` + strings.Repeat("x", 2<<20) + `"}`
	path := writeLog(t, huge+"\n"+
		`{"kind":"search","event_id":"e1","query":"q"}`+"\n"+
		`{"kind":"feedback","event_id":"e1","signal":"thumbsup"}`+"\n")

	sc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sc.Close()

	var ids []string
	for sc.Next() {
		if id, ok := sc.Record()["event_id"].(string); ok {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Err after scan: %v", err)
	}
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e1" {
		t.Errorf("records after a >1MB line were lost: got %v, want [e1 e1]", ids)
	}
}

func TestScanner_ErrNilOnCleanScan(t *testing.T) {
	path := writeLog(t, `{"kind":"search","event_id":"e1","query":"q"}
garbage
`)
	sc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sc.Close()

	for sc.Next() {
	}
	if err := sc.Err(); err != nil {
		t.Errorf("Err = %v, want nil (malformed lines are not errors)", err)
	}
}

func TestScanner_Restartable(t *testing.T) {
	path := writeLog(t, `{"kind":"search","event_id":"e1"}
`)
	first := scanAll(t, path)
	second := scanAll(t, path)
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("got %d then %d records, want 1 and 1 (reopen restarts the sequence)", len(first), len(second))
	}
}

func TestScanner_CloseWithoutFile(t *testing.T) {
	sc, err := Open(filepath.Join(t.TempDir(), "missing.log"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := sc.Close(); err != nil {
		t.Errorf("Close on missing-file scanner: %v", err)
	}
}
