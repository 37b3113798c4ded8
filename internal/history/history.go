// internal/history/history.go
package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
)

// Action is the kind of lending action an event records.
type Action string

const (
	Borrow Action = "borrow"
	Return Action = "return"
)

// Valid reports whether a is a known action kind.
func (a Action) Valid() bool {
	return a == Borrow || a == Return
}

// Event records one lending action. Events are never mutated once appended.
type Event struct {
	BookKey   string    `json:"book_key"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is the ordered event sequence of one actor.
type Log struct {
	Actor  string  `json:"actor"`
	Events []Event `json:"events"`
}

// Store keeps one append-only event log per actor, created lazily on the
// actor's first event. Actors are remembered in first-seen order. Store is
// not safe for concurrent use.
type Store struct {
	logs   map[string][]Event
	actors []string
}

// NewStore creates an empty history store.
func NewStore() *Store {
	return &Store{logs: make(map[string][]Event)}
}

// Append adds an event to the actor's log.
func (s *Store) Append(actor, key string, action Action, at time.Time) {
	if _, ok := s.logs[actor]; !ok {
		s.actors = append(s.actors, actor)
	}
	s.logs[actor] = append(s.logs[actor], Event{BookKey: key, Action: action, Timestamp: at})
}

// History returns a copy of the actor's log, empty for unknown actors.
func (s *Store) History(actor string) []Event {
	return append(make([]Event, 0, len(s.logs[actor])), s.logs[actor]...)
}

// Actors returns every actor in first-seen order.
func (s *Store) Actors() []string {
	return slices.Clone(s.actors)
}

// Each calls fn for every actor log in first-seen order. fn must not retain
// or modify events.
func (s *Store) Each(fn func(actor string, events []Event)) {
	for _, actor := range s.actors {
		fn(actor, s.logs[actor])
	}
}

// Len returns the total number of events across all actors.
func (s *Store) Len() int {
	n := 0
	for _, events := range s.logs {
		n += len(events)
	}
	return n
}

// Logs returns a copy of every actor log in first-seen order.
func (s *Store) Logs() []Log {
	out := make([]Log, 0, len(s.actors))
	for _, actor := range s.actors {
		out = append(out, Log{Actor: actor, Events: s.History(actor)})
	}
	return out
}

// Replace swaps the store contents for logs. Actors must be unique and every
// event must carry a book key and a known action.
func (s *Store) Replace(logs []Log) error {
	next := make(map[string][]Event, len(logs))
	actors := make([]string, 0, len(logs))
	for _, l := range logs {
		if l.Actor == "" {
			return fmt.Errorf("history log without actor: %w", errs.ErrFormat)
		}
		if _, dup := next[l.Actor]; dup {
			return fmt.Errorf("history for actor %q listed twice: %w", l.Actor, errs.ErrFormat)
		}
		for i, e := range l.Events {
			if e.BookKey == "" || !e.Action.Valid() {
				return fmt.Errorf("actor %q event %d is invalid: %w", l.Actor, i, errs.ErrFormat)
			}
		}
		next[l.Actor] = slices.Clone(l.Events)
		actors = append(actors, l.Actor)
	}
	s.logs = next
	s.actors = actors
	return nil
}

// Compact drops events older than retention relative to now and returns how
// many were dropped. Surviving events keep their order; actors whose logs
// become empty are forgotten.
func (s *Store) Compact(now time.Time, retention time.Duration) int {
	cutoff := now.Add(-retention)
	dropped := 0
	kept := s.actors[:0]
	for _, actor := range s.actors {
		events := s.logs[actor]
		before := len(events)
		events = slices.DeleteFunc(events, func(e Event) bool { return e.Timestamp.Before(cutoff) })
		dropped += before - len(events)
		if len(events) == 0 {
			delete(s.logs, actor)
			continue
		}
		s.logs[actor] = events
		kept = append(kept, actor)
	}
	s.actors = kept
	return dropped
}
