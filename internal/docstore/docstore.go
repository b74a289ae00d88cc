// Package docstore is the filesystem collaborator: it lists and reads note
// documents and persists session transcripts. The core never manages files
// beyond what is exposed here.
package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sessionsDirName is the per-folder archive directory for transcripts.
const sessionsDirName = ".sessions"

// Document is one listed note file.
type Document struct {
	Name string
	Path string
}

// FS serves documents from a notes folder.
type FS struct {
	Root string
}

// ListDocuments returns the markdown documents directly under the folder,
// sorted by name. Hidden entries and subdirectories are skipped.
func (f FS) ListDocuments() ([]Document, error) {
	entries, err := os.ReadDir(f.Root)
	if err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", f.Root, err)
	}

	var docs []Document
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(name), ".md") {
			continue
		}
		docs = append(docs, Document{Name: name, Path: filepath.Join(f.Root, name)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// ReadText returns a document's full text.
func (f FS) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", path, err)
	}
	return string(data), nil
}

// SaveSession writes a transcript into the folder's session archive,
// creating the archive directory on first use. Returns the archive path.
func (f FS) SaveSession(filename, content string) (string, error) {
	dir := filepath.Join(f.Root, sessionsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session archive dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("save session %s: %w", filename, err)
	}
	return path, nil
}

// StatePath returns the folder-local path for auxiliary state such as the
// session history database.
func (f FS) StatePath(name string) string {
	return filepath.Join(f.Root, sessionsDirName, name)
}
