package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/naksh1414/Kata-library-Management-System/internal/catalog"
	"github.com/naksh1414/Kata-library-Management-System/internal/circulation"
	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
	"github.com/naksh1414/Kata-library-Management-System/internal/history"
)

var now = time.Date(2026, time.August, 20, 8, 30, 0, 0, time.UTC)

func clock() time.Time { return now }

func populated(t *testing.T) (*catalog.Catalog, *history.Store) {
	t.Helper()
	c := catalog.New(clock)
	h := history.NewStore()
	d := circulation.NewDesk(c, h)

	_, err := c.AddWithCategory("p1", "Go", "Pike", 2012, "Programming")
	require.NoError(t, err)
	_, err = c.AddWithCategory("f1", "Dune", "Herbert", 1965, "Fiction")
	require.NoError(t, err)
	_, err = c.Add("x1", "Loose", "Nobody", 2001)
	require.NoError(t, err)

	_, err = d.Borrow("p1", "alice", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = d.Return("p1", "alice", now)
	require.NoError(t, err)
	_, err = d.Borrow("f1", "bob", now)
	require.NoError(t, err)
	return c, h
}

func TestRoundTrip(t *testing.T) {
	c, h := populated(t)

	data, err := Encode(Capture(c, h))
	require.NoError(t, err)

	doc, err := Decode(data)
	require.NoError(t, err)

	c2, h2 := catalog.New(clock), history.NewStore()
	require.NoError(t, Restore(doc, c2, h2))

	assert.Equal(t, c.Books.All(), c2.Books.All())
	assert.Equal(t, c.Categories.Entries(), c2.Categories.Entries())
	assert.Equal(t, h.Logs(), h2.Logs())
	b, _ := c2.Books.Get("f1")
	assert.False(t, b.Available, "availability survives")
}

func TestRestoreReplacesWholesale(t *testing.T) {
	c, h := populated(t)
	empty := Capture(catalog.New(clock), history.NewStore())

	require.NoError(t, Restore(empty, c, h))
	assert.Zero(t, c.Books.Len())
	assert.Empty(t, c.Categories.Labels())
	assert.Zero(t, h.Len())
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	tests := map[string]string{
		"not json":        `{"version":1,`,
		"wrong shape":     `{"version":1,"books":{"a":1}}`,
		"missing version": `{"books":[],"categories":[],"history":[]}`,
		"key mismatch":    `{"version":1,"books":[{"key":"a","value":{"key":"b","title":"T","author":"A","year":2000}}]}`,
		"array":           `[]`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(input))
			assert.ErrorIs(t, err, errs.ErrFormat)
		})
	}
}

func TestRestoreRejectsInconsistentDocumentsWithoutMutation(t *testing.T) {
	c, h := populated(t)
	before := Capture(c, h)

	bad := Document{
		Version: Version,
		Books:   []BookEntry{{Key: "a", Value: catalog.Book{Key: "a", Title: "T", Author: "A", Year: 2000}}},
		History: []history.Log{{Actor: "u", Events: []history.Event{{BookKey: "a", Action: "steal", Timestamp: now}}}},
	}
	assert.ErrorIs(t, Restore(bad, c, h), errs.ErrFormat)

	dangling := Document{
		Version:    Version,
		Categories: []catalog.CategoryEntry{{Label: "X", Keys: []string{"ghost"}}},
	}
	assert.ErrorIs(t, Restore(dangling, c, h), errs.ErrFormat)

	invalidBooks := map[string]catalog.Book{
		"empty title":     {Key: "x", Title: "", Author: "A", Year: 2000},
		"empty author":    {Key: "x", Title: "T", Author: "", Year: 2000},
		"year before min": {Key: "x", Title: "T", Author: "A", Year: 1200},
		"year in future":  {Key: "x", Title: "T", Author: "A", Year: now.Year() + 1},
		"missing year":    {Key: "x", Title: "T", Author: "A"},
	}
	for name, book := range invalidBooks {
		t.Run(name, func(t *testing.T) {
			doc := Document{Version: Version, Books: []BookEntry{{Key: book.Key, Value: book}}}
			assert.ErrorIs(t, Restore(doc, c, h), errs.ErrFormat)
		})
	}

	assert.Equal(t, before, Capture(c, h))
}

func TestPropertyRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := catalog.New(clock)
		h := history.NewStore()
		d := circulation.NewDesk(c, h)

		n := rapid.IntRange(0, 10).Draw(rt, "books")
		for i := range n {
			key := string(rune('a' + i))
			label := rapid.SampledFrom([]string{"", "Fiction", "Science"}).Draw(rt, "label")
			if label == "" {
				_, _ = c.Add(key, "T"+key, "A", 1950+i)
			} else {
				_, _ = c.AddWithCategory(key, "T"+key, "A", 1950+i, label)
			}
		}
		steps := rapid.IntRange(0, 30).Draw(rt, "steps")
		for s := range steps {
			if n == 0 {
				break
			}
			key := string(rune('a' + rapid.IntRange(0, n-1).Draw(rt, "key")))
			actor := rapid.SampledFrom([]string{"", "u1", "u2"}).Draw(rt, "actor")
			at := now.Add(time.Duration(s) * time.Minute)
			if _, err := d.Borrow(key, actor, at); err != nil {
				_, _ = d.Return(key, actor, at)
			}
		}

		data, err := Encode(Capture(c, h))
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		doc, err := Decode(data)
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		c2, h2 := catalog.New(clock), history.NewStore()
		if err := Restore(doc, c2, h2); err != nil {
			rt.Fatalf("restore: %v", err)
		}
		if !assert.ObjectsAreEqual(Capture(c, h), Capture(c2, h2)) {
			rt.Fatalf("round trip changed state")
		}
	})
}
