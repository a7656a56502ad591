// Package transcribe provides the transcription collaborator consumed by
// the identification pipeline. The pipeline only needs text and an optional
// language hint; where that text comes from is this package's business.
package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ploverbay/iconsense/internal/language"
)

// Segment is one time-aligned span of a transcription.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcription is the unit handed to the identification pipeline.
type Transcription struct {
	Text       string         `json:"text"`
	Language   string         `json:"language,omitempty"`
	Confidence float64        `json:"confidence"`
	Segments   []Segment      `json:"segments,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Transcriber turns a source (file path, URL, stream id) into a
// transcription.
type Transcriber interface {
	Transcribe(ctx context.Context, source string) (*Transcription, error)
}

// FileTranscriber reads pre-transcribed text from .txt and .md files. It
// stands in for a speech-to-text backend during local development and
// testing.
type FileTranscriber struct{}

// NewFileTranscriber returns a transcriber over local text files.
func NewFileTranscriber() *FileTranscriber { return &FileTranscriber{} }

// Transcribe loads the file and detects its language from marker words.
// Confidence is 1.0: the text is already written down, not recognized.
func (t *FileTranscriber) Transcribe(ctx context.Context, source string) (*Transcription, error) {
	switch ext := strings.ToLower(filepath.Ext(source)); ext {
	case ".txt", ".md":
	default:
		return nil, fmt.Errorf("unsupported transcript format %q (want .txt or .md)", ext)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("reading transcript %s: %w", source, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("transcript %s is empty", source)
	}

	lang := ""
	if detected := language.Detect(text); len(detected) > 0 {
		lang = detected[0]
	}

	return &Transcription{
		Text:       text,
		Language:   lang,
		Confidence: 1.0,
		Metadata: map[string]any{
			"source": source,
			"bytes":  len(data),
		},
	}, nil
}
