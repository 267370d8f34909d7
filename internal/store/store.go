package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"friendtalk/internal/models"
	"friendtalk/internal/observability"
)

// ErrCorruptDocument is returned when the backing file exists but does
// not parse. The operator must resolve it; the store never fabricates
// an empty document over existing bytes.
var ErrCorruptDocument = errors.New("corrupt document")

// Document is the single persisted JSON document. It is rewritten
// wholesale on every mutation.
type Document struct {
	Users    map[string]models.User `json:"users"`
	Chats    []models.Chat          `json:"chats"`
	Messages []models.Message       `json:"messages"`
}

func newDocument() Document {
	return Document{Users: make(map[string]models.User)}
}

// Store owns the in-memory document and its file. All access goes
// through Update or View, which serialize on a single mutex so there
// is exactly one writer at a time.
type Store struct {
	mu   sync.Mutex
	path string
	doc  Document
}

// Open loads the document at path. A missing file yields an empty
// document; a file that fails to parse yields ErrCorruptDocument.
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: newDocument()}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, path, err)
	}
	if doc.Users == nil {
		doc.Users = make(map[string]models.User)
	}
	s.doc = doc
	log.Printf("store loaded %s: %d users, %d chats, %d messages", path, len(doc.Users), len(doc.Chats), len(doc.Messages))
	return s, nil
}

// Update runs fn against the document under the store lock and, if fn
// succeeds, rewrites the file. A failed save is logged and counted but
// the in-memory mutation stands, so the service keeps serving.
func (s *Store) Update(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(&s.doc); err != nil {
		return err
	}
	if err := s.save(); err != nil {
		log.Printf("store save failed, in-memory state now ahead of disk: %v", err)
		observability.IncStoreSaveError()
	}
	return nil
}

// View runs fn against a read-only view of the document under the
// store lock. fn must not retain references past its return.
func (s *Store) View(fn func(doc *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.doc)
}

// save writes to a temp file in the same directory and renames it over
// the target, so a crash mid-write never truncates the document.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
