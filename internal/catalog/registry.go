// internal/catalog/registry.go
package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
)

// Registry owns book records keyed by their catalog key. It preserves
// insertion order for listings. Registry is not safe for concurrent use.
type Registry struct {
	books    map[string]*Book
	order    []string
	validate *validator.Validate
	now      func() time.Time
}

// NewRegistry creates an empty registry. now supplies the current instant
// for the publication year upper bound.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		books:    make(map[string]*Book),
		validate: newValidator(now),
		now:      now,
	}
}

// Add validates and stores a new, available book.
func (r *Registry) Add(key, title, author string, year int) (Book, error) {
	fields := bookFields{Key: key, Title: title, Author: author, Year: year}
	if err := checkFields(r.validate, fields, r.now); err != nil {
		return Book{}, err
	}
	if _, exists := r.books[key]; exists {
		return Book{}, fmt.Errorf("book %q already exists: %w", key, errs.ErrConflict)
	}

	book := &Book{
		Key:       key,
		Title:     title,
		Author:    author,
		Year:      year,
		Available: true,
	}
	r.books[key] = book
	r.order = append(r.order, key)
	return *book, nil
}

// Get returns the book stored under key.
func (r *Registry) Get(key string) (Book, bool) {
	book, ok := r.books[key]
	if !ok {
		return Book{}, false
	}
	return *book, true
}

// Lookup is Get with a NotFound error for absent keys.
func (r *Registry) Lookup(key string) (Book, error) {
	book, ok := r.Get(key)
	if !ok {
		return Book{}, fmt.Errorf("book %q: %w", key, errs.ErrNotFound)
	}
	return book, nil
}

// SetAvailable overwrites the availability flag of an existing book.
func (r *Registry) SetAvailable(key string, available bool) (Book, error) {
	book, ok := r.books[key]
	if !ok {
		return Book{}, fmt.Errorf("book %q: %w", key, errs.ErrNotFound)
	}
	book.Available = available
	return *book, nil
}

// Remove deletes an available book. Books on loan cannot be removed.
func (r *Registry) Remove(key string) (Book, error) {
	book, ok := r.books[key]
	if !ok {
		return Book{}, fmt.Errorf("book %q: %w", key, errs.ErrNotFound)
	}
	if !book.Available {
		return Book{}, fmt.Errorf("book %q is on loan: %w", key, errs.ErrConflict)
	}

	delete(r.books, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return *book, nil
}

// All returns every book in insertion order.
func (r *Registry) All() []Book {
	return r.filter(func(*Book) bool { return true })
}

// Available returns the books that can currently be borrowed.
func (r *Registry) Available() []Book {
	return r.filter(func(b *Book) bool { return b.Available })
}

// OnLoan counts the books that are currently lent out.
func (r *Registry) OnLoan() int {
	n := 0
	for _, b := range r.books {
		if !b.Available {
			n++
		}
	}
	return n
}

// Len returns the number of books.
func (r *Registry) Len() int {
	return len(r.order)
}

// Search performs a case-insensitive substring match against title, author,
// key and publication year. An empty query matches nothing.
func (r *Registry) Search(query string) []Book {
	if query == "" {
		return []Book{}
	}
	q := strings.ToLower(query)
	return r.filter(func(b *Book) bool {
		return strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Key), q) ||
			strings.Contains(strconv.Itoa(b.Year), q)
	})
}

// Replace swaps the registry contents for books, keeping their order and
// availability. Every book must pass the same field checks as Add and keys
// must be unique; failures are reported as errs.ErrFormat.
func (r *Registry) Replace(books []Book) error {
	next := make(map[string]*Book, len(books))
	order := make([]string, 0, len(books))
	for i := range books {
		b := books[i]
		if b.Key == "" {
			return fmt.Errorf("book %d has no key: %w", i, errs.ErrFormat)
		}
		fields := bookFields{Key: b.Key, Title: b.Title, Author: b.Author, Year: b.Year}
		if err := checkFields(r.validate, fields, r.now); err != nil {
			return fmt.Errorf("book %q: %v: %w", b.Key, err, errs.ErrFormat)
		}
		if _, dup := next[b.Key]; dup {
			return fmt.Errorf("book %q listed twice: %w", b.Key, errs.ErrFormat)
		}
		next[b.Key] = &b
		order = append(order, b.Key)
	}
	r.books = next
	r.order = order
	return nil
}

func (r *Registry) filter(keep func(*Book) bool) []Book {
	out := make([]Book, 0, len(r.order))
	for _, key := range r.order {
		if b := r.books[key]; keep(b) {
			out = append(out, *b)
		}
	}
	return out
}
