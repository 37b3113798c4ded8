// internal/snapshot/snapshot.go
package snapshot

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/naksh1414/Kata-library-Management-System/internal/catalog"
	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
	"github.com/naksh1414/Kata-library-Management-System/internal/history"
)

// Version is the document format written by Encode.
const Version = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BookEntry is one registry entry.
type BookEntry struct {
	Key   string       `json:"key"`
	Value catalog.Book `json:"value"`
}

// Document is the complete exported state: registry, category index and
// history. Metrics are not part of it.
type Document struct {
	Version    int                     `json:"version"`
	Books      []BookEntry             `json:"books"`
	Categories []catalog.CategoryEntry `json:"categories"`
	History    []history.Log           `json:"history"`
}

// Capture copies the current state into a document.
func Capture(c *catalog.Catalog, h *history.Store) Document {
	books := c.Books.All()
	entries := make([]BookEntry, 0, len(books))
	for _, b := range books {
		entries = append(entries, BookEntry{Key: b.Key, Value: b})
	}
	return Document{
		Version:    Version,
		Books:      entries,
		Categories: c.Categories.Entries(),
		History:    h.Logs(),
	}
}

// Restore replaces the catalog and history with the document contents. The
// history is validated on a scratch store and the catalog swap only happens
// once its books and categories pass, so on error nothing is modified.
func Restore(doc Document, c *catalog.Catalog, h *history.Store) error {
	books, err := doc.books()
	if err != nil {
		return err
	}
	if err := history.NewStore().Replace(doc.History); err != nil {
		return err
	}
	if err := c.Replace(books, doc.Categories); err != nil {
		return err
	}
	return h.Replace(doc.History)
}

// Encode serializes a document.
func Encode(doc Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a document. Malformed input fails with errs.ErrFormat.
func Decode(data []byte) (Document, error) {
	if !json.Valid(data) {
		return Document{}, fmt.Errorf("snapshot is not valid json: %w", errs.ErrFormat)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode snapshot: %v: %w", err, errs.ErrFormat)
	}
	if doc.Version != Version {
		return Document{}, fmt.Errorf("unsupported snapshot version %d: %w", doc.Version, errs.ErrFormat)
	}
	if _, err := doc.books(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (d Document) books() ([]catalog.Book, error) {
	books := make([]catalog.Book, 0, len(d.Books))
	for _, e := range d.Books {
		if e.Key != e.Value.Key {
			return nil, fmt.Errorf("book entry %q holds book %q: %w", e.Key, e.Value.Key, errs.ErrFormat)
		}
		books = append(books, e.Value)
	}
	return books, nil
}
