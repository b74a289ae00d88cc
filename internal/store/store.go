// Package store owns the durable per-document card collections: matching
// freshly parsed questions against persisted state, and writing updated
// state back atomically.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zentoboo/dck/internal/domain"
	"github.com/Zentoboo/dck/internal/scheduler"
)

// CardIO reads and writes a document's persisted card collection. The write
// must replace the whole collection in one atomic operation; a crash mid-write
// must never corrupt the other cards in the file.
type CardIO interface {
	ReadCards(documentPath string) (domain.CardFile, error)
	WriteCards(documentPath string, file domain.CardFile) error
}

// Entry pairs a parsed question with its scheduling state.
type Entry struct {
	Question domain.Question
	Card     domain.CardState
}

// Reconcile matches questions to persisted cards by question ID. Questions
// without a match get a fresh New card due immediately. Output order follows
// input question order.
func Reconcile(questions []domain.Question, persisted []domain.CardState, now time.Time) []Entry {
	byID := make(map[string]domain.CardState, len(persisted))
	for _, c := range persisted {
		byID[c.QuestionID] = c
	}

	entries := make([]Entry, 0, len(questions))
	for _, q := range questions {
		card, ok := byID[q.ID]
		if !ok {
			card = scheduler.NewCard(q.ID, q.Text, now)
		}
		entries = append(entries, Entry{Question: q, Card: card})
	}
	return entries
}

// Store persists card collections through a CardIO.
type Store struct {
	io CardIO
}

// New returns a store backed by the given CardIO.
func New(io CardIO) *Store {
	return &Store{io: io}
}

// Load reads the persisted collection for a document. A document with no
// sidecar file yet yields an empty collection, not an error.
func (s *Store) Load(documentPath string) (domain.CardFile, error) {
	return s.io.ReadCards(documentPath)
}

// ApplyReview upserts the rated card into the document's collection and
// persists the whole collection. I/O failure is returned to the caller;
// the store never retries.
func (s *Store) ApplyReview(documentPath, sourceFile string, card domain.CardState) error {
	file, err := s.io.ReadCards(documentPath)
	if err != nil {
		return fmt.Errorf("read cards for %s: %w", documentPath, err)
	}
	file.SourceFile = sourceFile
	file.Upsert(card)

	if err := s.io.WriteCards(documentPath, file); err != nil {
		return fmt.Errorf("write cards for %s: %w", documentPath, err)
	}
	return nil
}

// FileCardIO stores each document's cards in a sidecar JSON file next to the
// document itself.
type FileCardIO struct{}

// SidecarPath maps a document path to its card file path: notes.md becomes
// notes.flashcard.
func SidecarPath(documentPath string) string {
	return strings.TrimSuffix(documentPath, ".md") + ".flashcard"
}

// ReadCards loads the sidecar file for a document. Missing files yield an
// empty collection.
func (FileCardIO) ReadCards(documentPath string) (domain.CardFile, error) {
	var file domain.CardFile
	data, err := os.ReadFile(SidecarPath(documentPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return file, nil
		}
		return file, fmt.Errorf("read sidecar for %s: %w", documentPath, err)
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return domain.CardFile{}, fmt.Errorf("parse sidecar for %s: %w", documentPath, err)
	}
	return file, nil
}

// WriteCards replaces the sidecar file in one atomic step: the collection is
// written to a temporary file in the same directory and renamed over the old
// one.
func (FileCardIO) WriteCards(documentPath string, file domain.CardFile) error {
	path := SidecarPath(documentPath)
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cards for %s: %w", documentPath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp sidecar for %s: %w", documentPath, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp sidecar for %s: %w", documentPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp sidecar for %s: %w", documentPath, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace sidecar for %s: %w", documentPath, err)
	}
	return nil
}
