// internal/circulation/lending.go
package circulation

import (
	"fmt"
	"time"

	"github.com/naksh1414/Kata-library-Management-System/internal/catalog"
	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
	"github.com/naksh1414/Kata-library-Management-System/internal/history"
)

// Desk applies lending transitions to a catalog and records them in the
// history store. Any actor may return any book; the borrower is not tracked
// on the book itself.
type Desk struct {
	catalog *catalog.Catalog
	history *history.Store
}

// NewDesk creates a desk over the given catalog and history store.
func NewDesk(c *catalog.Catalog, h *history.Store) *Desk {
	return &Desk{catalog: c, history: h}
}

// Borrow moves an available book to OnLoan and appends a borrow event.
func (d *Desk) Borrow(key, actor string, at time.Time) (catalog.Book, error) {
	return d.transition(key, actor, at, Available, OnLoan, history.Borrow)
}

// Return moves a book on loan back to Available and appends a return event.
func (d *Desk) Return(key, actor string, at time.Time) (catalog.Book, error) {
	return d.transition(key, actor, at, OnLoan, Available, history.Return)
}

func (d *Desk) transition(key, actor string, at time.Time, from, to State, action history.Action) (catalog.Book, error) {
	book, err := d.catalog.Books.Lookup(key)
	if err != nil {
		return catalog.Book{}, err
	}
	if state := StateOf(book); state != from {
		return catalog.Book{}, fmt.Errorf("cannot %s book %q: already %s: %w", action, key, state, errs.ErrConflict)
	}

	book, err = d.catalog.Books.SetAvailable(key, to == Available)
	if err != nil {
		return catalog.Book{}, err
	}
	d.history.Append(ActorOrAnonymous(actor), key, action, at)
	return book, nil
}
