package storage

import (
	"errors"
	"testing"
)

func TestTranscriptLifecycle(t *testing.T) {
	dir := t.TempDir()

	uid, err := CreateTranscript(dir, "ws://localhost:8765")
	if err != nil {
		t.Fatalf("CreateTranscript error: %v", err)
	}
	if err := AppendLine(dir, uid, "Translation: bonjour"); err != nil {
		t.Fatalf("AppendLine error: %v", err)
	}
	if err := AppendLine(dir, uid, "Message: ready"); err != nil {
		t.Fatalf("AppendLine error: %v", err)
	}

	lines, err := GetTranscript(dir, uid)
	if err != nil {
		t.Fatalf("GetTranscript error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("len(lines)=%d, want 2", len(lines))
	}
	if lines[0].Text != "Translation: bonjour" || lines[1].Text != "Message: ready" {
		t.Fatalf("lines=%+v, want translation then message", lines)
	}

	list := ListTranscripts(dir)
	if len(list) != 1 {
		t.Fatalf("len(list)=%d, want 1", len(list))
	}
	if list[0].UID != uid || list[0].Lines != 2 || list[0].Endpoint != "ws://localhost:8765" {
		t.Fatalf("list[0]=%+v, want uid=%s lines=2", list[0], uid)
	}
	if list[0].LatestLine.Text != "Message: ready" {
		t.Fatalf("LatestLine=%q, want %q", list[0].LatestLine.Text, "Message: ready")
	}

	if !DeleteTranscript(dir, uid) {
		t.Fatal("DeleteTranscript=false, want true")
	}
	if DeleteTranscript(dir, uid) {
		t.Fatal("second DeleteTranscript=true, want false")
	}
}

func TestTranscriptRejectsUnsafeUID(t *testing.T) {
	dir := t.TempDir()
	if _, err := GetTranscript(dir, "../etc/passwd"); !errors.Is(err, ErrInvalidUID) {
		t.Fatalf("GetTranscript(traversal)=%v, want ErrInvalidUID", err)
	}
	if err := AppendLine(dir, "a/b", "x"); !errors.Is(err, ErrInvalidUID) {
		t.Fatalf("AppendLine(a/b)=%v, want ErrInvalidUID", err)
	}
}

func TestRecorderAppends(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir, "ws://localhost:8765", nil)
	if err != nil {
		t.Fatalf("NewRecorder error: %v", err)
	}
	rec.AppendLine("Language set to fr.")

	lines, err := GetTranscript(dir, rec.UID())
	if err != nil {
		t.Fatalf("GetTranscript error: %v", err)
	}
	if len(lines) != 1 || lines[0].Text != "Language set to fr." {
		t.Fatalf("lines=%+v, want one status line", lines)
	}
}

func TestListTranscriptsMissingDir(t *testing.T) {
	if got := ListTranscripts(t.TempDir() + "/missing"); len(got) != 0 {
		t.Fatalf("ListTranscripts=%v, want empty", got)
	}
}
