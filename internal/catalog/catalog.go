// internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"time"

	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
)

// Catalog pairs the book registry with its category index and keeps the two
// consistent: every indexed key refers to a registered book.
type Catalog struct {
	Books      *Registry
	Categories *Index
}

// New creates an empty catalog.
func New(now func() time.Time) *Catalog {
	return &Catalog{
		Books:      NewRegistry(now),
		Categories: NewIndex(),
	}
}

// Add registers a new book.
func (c *Catalog) Add(key, title, author string, year int) (Book, error) {
	return c.Books.Add(key, title, author, year)
}

// AddWithCategory registers a new book and files it under category. The
// index is untouched when registration fails.
func (c *Catalog) AddWithCategory(key, title, author string, year int, category string) (Book, error) {
	if category == "" {
		return Book{}, fmt.Errorf("category is required: %w", errs.ErrValidation)
	}
	book, err := c.Books.Add(key, title, author, year)
	if err != nil {
		return Book{}, err
	}
	c.Categories.Add(category, key)
	return book, nil
}

// Delete removes an available book from the registry and from every category.
func (c *Catalog) Delete(key string) (bool, error) {
	if _, err := c.Books.Remove(key); err != nil {
		return false, err
	}
	c.Categories.RemoveKey(key)
	return true, nil
}

// ByCategory returns the books filed under label. Keys that no longer
// resolve are skipped; unknown labels yield an empty slice.
func (c *Catalog) ByCategory(label string) []Book {
	keys := c.Categories.Keys(label)
	out := make([]Book, 0, len(keys))
	for _, k := range keys {
		if b, ok := c.Books.Get(k); ok {
			out = append(out, b)
		}
	}
	return out
}

// Replace swaps the whole catalog for books and categories. Category
// entries must reference listed books.
func (c *Catalog) Replace(books []Book, categories []CategoryEntry) error {
	next := NewRegistry(c.Books.now)
	if err := next.Replace(books); err != nil {
		return err
	}
	for _, e := range categories {
		if e.Label == "" {
			return fmt.Errorf("category without label: %w", errs.ErrFormat)
		}
		for _, k := range e.Keys {
			if _, ok := next.Get(k); !ok {
				return fmt.Errorf("category %q references unknown book %q: %w", e.Label, k, errs.ErrFormat)
			}
		}
	}

	index := NewIndex()
	index.Replace(categories)
	c.Books = next
	c.Categories = index
	return nil
}
