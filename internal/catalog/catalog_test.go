package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
)

func fixedClock() time.Time {
	return time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry(fixedClock)

	book, err := r.Add("123", "Test", "Author", 2024)
	require.NoError(t, err)
	assert.Equal(t, Book{Key: "123", Title: "Test", Author: "Author", Year: 2024, Available: true}, book)
	assert.Equal(t, []Book{book}, r.Available())
}

func TestRegistryAddValidation(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		title  string
		author string
		year   int
		want   error
	}{
		{"missing key", "", "T", "A", 2000, errs.ErrValidation},
		{"missing title", "k", "", "A", 2000, errs.ErrValidation},
		{"missing author", "k", "T", "", 2000, errs.ErrValidation},
		{"missing year", "k", "T", "A", 0, errs.ErrValidation},
		{"missing wins over range", "", "T", "A", 1800, errs.ErrValidation},
		{"too old", "k", "T", "A", 1899, errs.ErrRange},
		{"future", "k", "T", "A", 2027, errs.ErrRange},
		{"negative", "k", "T", "A", -5, errs.ErrRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(fixedClock)
			_, err := r.Add(tt.key, tt.title, tt.author, tt.year)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, r.Len())
		})
	}
}

func TestRegistryYearBoundaries(t *testing.T) {
	r := NewRegistry(fixedClock)

	_, err := r.Add("old", "T", "A", MinYear)
	require.NoError(t, err)
	_, err = r.Add("new", "T", "A", 2026)
	require.NoError(t, err)
}

func TestRegistryDuplicateKey(t *testing.T) {
	r := NewRegistry(fixedClock)
	_, err := r.Add("k", "T", "A", 2000)
	require.NoError(t, err)

	_, err = r.Add("k", "Other", "Someone", 1999)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySearch(t *testing.T) {
	r := NewRegistry(fixedClock)
	_, _ = r.Add("js-1", "JavaScript: The Good Parts", "Douglas Crockford", 2008)
	_, _ = r.Add("go-1", "The Go Programming Language", "Donovan", 2015)
	_, _ = r.Add("rb-1", "Eloquent Ruby", "Russ Olsen", 2011)

	assert.Empty(t, r.Search(""))

	lower := r.Search("javascript")
	upper := r.Search("JavaScript")
	require.Len(t, lower, 1)
	assert.Equal(t, lower, upper)

	assert.Len(t, r.Search("2015"), 1, "year matches as a string")
	assert.Len(t, r.Search("RB-"), 1, "key matches case-insensitively")
	assert.Len(t, r.Search("o"), 3)
	assert.Empty(t, r.Search("python"))
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(fixedClock)
	_, _ = r.Add("k", "T", "A", 2000)

	_, err := r.SetAvailable("k", false)
	require.NoError(t, err)
	_, err = r.Remove("k")
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = r.SetAvailable("k", true)
	require.NoError(t, err)
	_, err = r.Remove("k")
	require.NoError(t, err)

	_, err = r.Remove("k")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Zero(t, r.Len())
}

func TestCatalogAddWithCategory(t *testing.T) {
	c := New(fixedClock)

	_, err := c.AddWithCategory("k1", "Go", "Pike", 2012, "Programming")
	require.NoError(t, err)
	_, err = c.AddWithCategory("k1", "Dup", "X", 2012, "Fiction")
	require.ErrorIs(t, err, errs.ErrConflict)
	_, err = c.AddWithCategory("k2", "Bad", "X", 1700, "Fiction")
	require.ErrorIs(t, err, errs.ErrRange)
	_, err = c.AddWithCategory("k3", "Fine", "X", 2000, "")
	require.ErrorIs(t, err, errs.ErrValidation)

	assert.Equal(t, []string{"Programming"}, c.Categories.Labels(), "failed adds never touch the index")
	assert.Len(t, c.ByCategory("Programming"), 1)
	assert.Empty(t, c.ByCategory("Fiction"))
}

func TestCatalogDeleteRemovesFromEveryCategory(t *testing.T) {
	c := New(fixedClock)
	_, _ = c.AddWithCategory("k", "T", "A", 2000, "One")
	c.Categories.Add("Two", "k")

	ok, err := c.Delete("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, c.Categories.Keys("One"))
	assert.Empty(t, c.Categories.Keys("Two"))
	assert.Equal(t, []string{"One", "Two"}, c.Categories.Labels(), "categories are never removed")
}

func TestCatalogByCategorySkipsMissingBooks(t *testing.T) {
	c := New(fixedClock)
	_, _ = c.AddWithCategory("k", "T", "A", 2000, "One")
	c.Categories.Add("One", "ghost")

	books := c.ByCategory("One")
	require.Len(t, books, 1)
	assert.Equal(t, "k", books[0].Key)
	assert.NotNil(t, c.ByCategory("unknown"))
}

func TestCatalogReplaceRejectsDanglingCategories(t *testing.T) {
	c := New(fixedClock)
	_, _ = c.Add("keep", "T", "A", 2000)

	err := c.Replace(
		[]Book{{Key: "a", Title: "T", Author: "A", Year: 2000, Available: true}},
		[]CategoryEntry{{Label: "X", Keys: []string{"b"}}},
	)
	require.ErrorIs(t, err, errs.ErrFormat)
	_, ok := c.Books.Get("keep")
	assert.True(t, ok, "failed replace leaves the catalog untouched")

	err = c.Replace(
		[]Book{{Key: "a", Title: "T", Author: "A", Year: 2000}},
		[]CategoryEntry{{Label: "X", Keys: []string{"a"}}},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Books.Len())
	assert.Equal(t, 1, c.Books.OnLoan())
	assert.True(t, c.Categories.Contains("X", "a"))
}

func TestKeySet(t *testing.T) {
	s := NewKeySet("b", "a", "b")
	assert.Equal(t, []string{"b", "a"}, s.Keys())
	assert.False(t, s.Add("a"))
	assert.True(t, s.Remove("b"))
	assert.False(t, s.Remove("b"))
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains("a"))
}
