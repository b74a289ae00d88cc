package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Zentoboo/dck/internal/domain"
	"github.com/Zentoboo/dck/internal/scheduler"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func question(id, text string) domain.Question {
	return domain.Question{ID: id, Text: text, Answer: "a", SourceFile: "n.md"}
}

func TestReconcile(t *testing.T) {
	existing := scheduler.NewCard("q_known", "known question", now.AddDate(0, 0, -7))
	existing.Memory.State = domain.StateReview
	existing.Memory.Reps = 4

	questions := []domain.Question{
		question("q_new", "new question"),
		question("q_known", "known question"),
		question("q_other", "another new one"),
	}

	entries := Reconcile(questions, []domain.CardState{existing}, now)

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for i, q := range questions {
		if entries[i].Question.ID != q.ID {
			t.Errorf("Expected output order to follow input, got %q at %d", entries[i].Question.ID, i)
		}
	}

	if !reflect.DeepEqual(entries[1].Card, existing) {
		t.Error("Expected the persisted card to be returned unchanged")
	}

	for _, i := range []int{0, 2} {
		card := entries[i].Card
		if card.Memory.State != domain.StateNew {
			t.Errorf("Expected a fresh card in state New, got %v", card.Memory.State)
		}
		if card.Memory.Reps != 0 {
			t.Errorf("Expected a fresh card with reps=0, got %d", card.Memory.Reps)
		}
		if !card.Memory.Due.Equal(now) {
			t.Errorf("Expected a fresh card due immediately, got %v", card.Memory.Due)
		}
	}
}

func TestSidecarPath(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"markdown file", "/notes/go.md", "/notes/go.flashcard"},
		{"no extension", "/notes/go", "/notes/go.flashcard"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SidecarPath(tc.in); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFileCardIORoundTrip(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "notes.md")
	io := FileCardIO{}

	t.Run("missing sidecar yields empty collection", func(t *testing.T) {
		file, err := io.ReadCards(docPath)
		if err != nil {
			t.Fatalf("ReadCards() returned an unexpected error: %v", err)
		}
		if len(file.Cards) != 0 {
			t.Errorf("Expected no cards, got %d", len(file.Cards))
		}
	})

	t.Run("write then read", func(t *testing.T) {
		card := scheduler.NewCard("q_1", "What is Go?", now)
		card.Memory.Stability = 3.5
		want := domain.CardFile{SourceFile: "notes.md", Cards: []domain.CardState{card}}

		if err := io.WriteCards(docPath, want); err != nil {
			t.Fatalf("WriteCards() returned an unexpected error: %v", err)
		}
		got, err := io.ReadCards(docPath)
		if err != nil {
			t.Fatalf("ReadCards() returned an unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if e.Name() != "notes.flashcard" {
				t.Errorf("Unexpected leftover file %q", e.Name())
			}
		}
	})

	t.Run("corrupt sidecar is an error", func(t *testing.T) {
		if err := os.WriteFile(SidecarPath(docPath), []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := io.ReadCards(docPath); err == nil {
			t.Error("Expected an error for a corrupt sidecar")
		}
	})
}

func TestApplyReviewUpsertsAndReplaces(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "notes.md")
	s := New(FileCardIO{})

	first := scheduler.NewCard("q_1", "first", now)
	if err := s.ApplyReview(docPath, "notes.md", first); err != nil {
		t.Fatalf("ApplyReview() returned an unexpected error: %v", err)
	}

	second := scheduler.NewCard("q_2", "second", now)
	if err := s.ApplyReview(docPath, "notes.md", second); err != nil {
		t.Fatalf("ApplyReview() returned an unexpected error: %v", err)
	}

	// Replacing q_1 must not disturb q_2.
	updated := first
	updated.Memory.Reps = 1
	updated.Memory.State = domain.StateLearning
	if err := s.ApplyReview(docPath, "notes.md", updated); err != nil {
		t.Fatalf("ApplyReview() returned an unexpected error: %v", err)
	}

	file, err := s.Load(docPath)
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	if file.SourceFile != "notes.md" {
		t.Errorf("Expected sourceFile notes.md, got %q", file.SourceFile)
	}
	if len(file.Cards) != 2 {
		t.Fatalf("Expected 2 cards, got %d", len(file.Cards))
	}
	if got := file.Find("q_1"); got == nil || got.Memory.Reps != 1 {
		t.Errorf("Expected q_1 to be replaced in place, got %+v", got)
	}
	if file.Find("q_2") == nil {
		t.Error("Expected q_2 to survive the q_1 update")
	}
}

func TestApplyReviewSurfacesIOFailure(t *testing.T) {
	s := New(failingIO{})
	err := s.ApplyReview("/nowhere/notes.md", "notes.md", scheduler.NewCard("q_1", "q", now))
	if !errors.Is(err, errWriteFailed) {
		t.Errorf("Expected the write failure to bubble up, got %v", err)
	}
}

var errWriteFailed = errors.New("disk full")

type failingIO struct{}

func (failingIO) ReadCards(string) (domain.CardFile, error) { return domain.CardFile{}, nil }

func (failingIO) WriteCards(string, domain.CardFile) error { return errWriteFailed }
