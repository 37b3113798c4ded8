// internal/circulation/domain.go
package circulation

import "github.com/naksh1414/Kata-library-Management-System/internal/catalog"

// Anonymous is the actor recorded when a caller does not identify itself.
const Anonymous = "anonymous"

// State is the lending state of a book.
type State int

const (
	Available State = iota
	OnLoan
)

func (s State) String() string {
	if s == OnLoan {
		return "on_loan"
	}
	return "available"
}

// StateOf derives the lending state from the book's availability flag.
func StateOf(b catalog.Book) State {
	if b.Available {
		return Available
	}
	return OnLoan
}

// ActorOrAnonymous substitutes the anonymous sentinel for an empty actor.
func ActorOrAnonymous(actor string) string {
	if actor == "" {
		return Anonymous
	}
	return actor
}
