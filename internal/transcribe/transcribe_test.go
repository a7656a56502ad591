package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileTranscriber(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.txt")
	text := "The princess walked through the forest and the dragon followed her home."
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}

	tr := NewFileTranscriber()
	got, err := tr.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != text {
		t.Errorf("text = %q, want %q", got.Text, text)
	}
	if got.Language != "en" {
		t.Errorf("language = %q, want en", got.Language)
	}
	if got.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", got.Confidence)
	}
	if got.Metadata["source"] != path {
		t.Errorf("metadata source = %v, want %q", got.Metadata["source"], path)
	}
}

func TestFileTranscriberUnsupportedFormat(t *testing.T) {
	tr := NewFileTranscriber()
	if _, err := tr.Transcribe(context.Background(), "audio.mp3"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFileTranscriberEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(path, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}

	tr := NewFileTranscriber()
	if _, err := tr.Transcribe(context.Background(), path); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}
