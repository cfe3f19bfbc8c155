package runlog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write(Entry{Name: "place_fence", Outcome: "pass", Ticks: 4, DurationMS: 12}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(Entry{Name: "place_door", Outcome: "fail", Detail: "mismatch"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("%d files, want 1", len(files))
	}
	entries, err := Read(filepath.Join(dir, files[0].Name()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("%d entries, want 2", len(entries))
	}
	if entries[0].Name != "place_fence" || entries[1].Name != "place_door" {
		t.Fatalf("order: %s, %s", entries[0].Name, entries[1].Name)
	}
	if entries[0].Run == "" || entries[0].RecordedAt == "" {
		t.Fatal("run or timestamp missing")
	}
	if entries[1].Detail != "mismatch" {
		t.Fatalf("detail %q", entries[1].Detail)
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Write(Entry{Name: "late"}); err == nil {
		t.Fatal("expected error")
	}
}
