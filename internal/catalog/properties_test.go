package catalog

import (
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
)

func TestPropertyAddThenAvailable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRegistry(fixedClock)
		key := rapid.StringMatching(`[a-z0-9]{1,12}`).Draw(t, "key")
		title := rapid.StringMatching(`[A-Za-z ]{1,20}`).Draw(t, "title")
		author := rapid.StringMatching(`[A-Za-z ]{1,20}`).Draw(t, "author")
		year := rapid.IntRange(MinYear, 2026).Draw(t, "year")

		added, err := r.Add(key, title, author, year)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		avail := r.Available()
		if len(avail) != 1 || avail[0] != added || !avail[0].Available {
			t.Fatalf("available = %+v, want exactly %+v", avail, added)
		}
	})
}

func TestPropertyYearOutOfRangeRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRegistry(fixedClock)
		year := rapid.OneOf(
			rapid.IntRange(-10000, MinYear-1),
			rapid.IntRange(2027, 100000),
		).Filter(func(y int) bool { return y != 0 }).Draw(t, "year")

		if _, err := r.Add("k", "T", "A", year); !errors.Is(err, errs.ErrRange) {
			t.Fatalf("year %d: got %v, want range error", year, err)
		}
	})
}

func TestPropertyDuplicateKeyConflicts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRegistry(fixedClock)
		key := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "key")
		if _, err := r.Add(key, "T", "A", 2000); err != nil {
			t.Fatalf("first add: %v", err)
		}
		title := rapid.StringMatching(`[A-Za-z]{1,10}`).Draw(t, "title")
		year := rapid.IntRange(MinYear, 2026).Draw(t, "year")
		if _, err := r.Add(key, title, "B", year); !errors.Is(err, errs.ErrConflict) {
			t.Fatalf("second add: got %v, want conflict", err)
		}
	})
}

func TestPropertySearchIgnoresCase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRegistry(fixedClock)
		n := rapid.IntRange(1, 8).Draw(t, "books")
		for i := range n {
			title := rapid.StringMatching(`[A-Za-z]{1,12}`).Draw(t, "title")
			_, _ = r.Add(strings.Repeat("x", i+1), title, "Author", 2000)
		}
		q := rapid.StringMatching(`[A-Za-z]{1,3}`).Draw(t, "query")

		lower, upper := r.Search(strings.ToLower(q)), r.Search(strings.ToUpper(q))
		if len(lower) != len(upper) {
			t.Fatalf("search %q: %d results lower, %d upper", q, len(lower), len(upper))
		}
		for i := range lower {
			if lower[i] != upper[i] {
				t.Fatalf("search %q differs at %d", q, i)
			}
		}
	})
}
