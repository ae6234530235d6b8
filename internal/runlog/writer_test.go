package runlog

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestWriterPersistsRecordsInOrder(t *testing.T) {
	w := NewWriter(t.TempDir(), "run-1", 16, 5)

	for _, name := range []string{"first", "second", "third"} {
		if err := w.Write(Record{RunID: "run-1", Scenario: name, Status: "passed", StartedAt: time.Now().UTC()}); err != nil {
			t.Fatalf("Write(%s) failed: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	path := w.Path()
	if path == "" {
		t.Fatal("Path() empty after writes")
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var got []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("decode line %q: %v", sc.Text(), err)
		}
		got = append(got, rec.Scenario)
	}
	if len(got) != 3 {
		t.Fatalf("records = %v; want 3", got)
	}
	seen := map[string]bool{}
	for _, name := range got {
		seen[name] = true
	}
	for _, name := range []string{"first", "second", "third"} {
		if !seen[name] {
			t.Fatalf("record %q missing from %v", name, got)
		}
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	w := NewWriter(t.TempDir(), "run-2", 1, 5)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := w.Write(Record{Scenario: "late"}); err == nil {
		t.Fatal("Write() after Close() succeeded")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
}
