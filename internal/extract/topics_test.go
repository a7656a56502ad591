package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestTopicExtractor_TooFewWords(t *testing.T) {
	e := NewTopicExtractor()
	_, err := e.Process(context.Background(), "way too short")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short text, got %v", err)
	}
}

func TestTopicExtractor_EmptyInput(t *testing.T) {
	e := NewTopicExtractor()
	_, err := e.Process(context.Background(), "\n\t ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTopicExtractor_TopPhrases(t *testing.T) {
	e := NewTopicExtractor()
	text := "The brave dragon flew over the castle. The dragon loved the castle garden. " +
		"Every night the dragon circled the castle towers."
	res, err := e.Process(context.Background(), text)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if len(res.Subjects) == 0 {
		t.Fatal("expected at least one topic")
	}
	if len(res.Subjects) > 5 {
		t.Fatalf("expected at most 5 topics, got %d", len(res.Subjects))
	}

	found := false
	for _, s := range res.Subjects {
		if strings.Contains(s.Name, "dragon") || strings.Contains(s.Name, "castle") {
			found = true
		}
		if s.Score < 0 || s.Score > 1 {
			t.Errorf("topic %q score out of bounds: %f", s.Name, s.Score)
		}
	}
	if !found {
		t.Errorf("expected a dragon/castle topic, got %v", res.Subjects)
	}
}

func TestTopicExtractor_NonEmptyWhenAnyPhraseFound(t *testing.T) {
	e := NewTopicExtractor()
	// Flat text with no repeats or domain-signal words must still yield
	// at least one phrase (threshold or single-best fallback).
	res, err := e.Process(context.Background(),
		"quiet mornings bring gentle thoughts before anyone wakes around town")
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(res.Subjects) == 0 {
		t.Fatal("expected non-empty topics whenever any phrase was found")
	}
}

func TestTopicExtractor_ScoresDescending(t *testing.T) {
	e := NewTopicExtractor()
	res, err := e.Process(context.Background(),
		"pirates sailed the ocean hunting treasure while pirates sang ocean songs about treasure")
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	for i := 1; i < len(res.Subjects); i++ {
		if res.Subjects[i].Score > res.Subjects[i-1].Score {
			t.Errorf("topics not sorted descending at %d: %v", i, res.Subjects)
		}
	}
}
