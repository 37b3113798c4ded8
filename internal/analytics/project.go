// internal/analytics/project.go
package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/naksh1414/Kata-library-Management-System/internal/catalog"
	"github.com/naksh1414/Kata-library-Management-System/internal/history"
)

// Compute projects the analytics aggregate from the current catalog and
// history. It never fails: events that reference deleted books, unmatched
// returns and stale category entries are skipped.
func Compute(c *catalog.Catalog, h *history.Store, now time.Time) Result {
	counts := PopularityCounts(h)
	withTitles(c.Books, counts)

	recs := Recommendations(h, now)
	for i := range recs {
		if b, ok := c.Books.Get(recs[i].Key); ok {
			recs[i].Title = b.Title
		}
	}

	return Result{
		TotalBorrows:          TotalBorrows(h),
		ActiveLoans:           c.Books.OnLoan(),
		AverageLoanDurationMs: float64(AverageLoanDuration(h)) / float64(time.Millisecond),
		TopBooks:              TopBooks(counts),
		GenrePopularity:       GenrePopularity(h, c.Categories),
		Trends:                BuildTrends(h),
		Recommendations:       recs,
	}
}

// TotalBorrows counts borrow events across all actors.
func TotalBorrows(h *history.Store) int {
	total := 0
	eachBorrow(h, func(history.Event) { total++ })
	return total
}

// AverageLoanDuration pairs each return with the actor's most recent open
// borrow, regardless of book, and averages the elapsed time. Returns without
// an open borrow are ignored. It is zero when no pair was seen.
func AverageLoanDuration(h *history.Store) time.Duration {
	var total time.Duration
	returns := 0
	h.Each(func(_ string, events []history.Event) {
		var open *time.Time
		for i := range events {
			switch events[i].Action {
			case history.Borrow:
				open = &events[i].Timestamp
			case history.Return:
				if open == nil {
					continue
				}
				total += events[i].Timestamp.Sub(*open)
				returns++
				open = nil
			}
		}
	})
	if returns == 0 {
		return 0
	}
	return total / time.Duration(returns)
}

// PopularityCounts returns per-book borrow counts in order of each book's
// first borrow.
func PopularityCounts(h *history.Store) []BookCount {
	pos := make(map[string]int)
	var counts []BookCount
	eachBorrow(h, func(e history.Event) {
		i, ok := pos[e.BookKey]
		if !ok {
			i = len(counts)
			pos[e.BookKey] = i
			counts = append(counts, BookCount{Key: e.BookKey})
		}
		counts[i].Count++
	})
	return counts
}

// TopBooks ranks counts by descending count, keeping first-seen order among
// ties, and keeps the first TopBooksLimit.
func TopBooks(counts []BookCount) []BookCount {
	ranked := slices.Clone(counts)
	slices.SortStableFunc(ranked, func(a, b BookCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(ranked) > TopBooksLimit {
		ranked = ranked[:TopBooksLimit]
	}
	return nonNil(ranked)
}

// GenrePopularity credits every borrow to each category whose set contains
// the borrowed book, ranked by descending count.
func GenrePopularity(h *history.Store, ix *catalog.Index) []CategoryCount {
	labels := ix.Labels()
	counts := make([]CategoryCount, len(labels))
	for i, l := range labels {
		counts[i].Category = l
	}
	eachBorrow(h, func(e history.Event) {
		for i, l := range labels {
			if ix.Contains(l, e.BookKey) {
				counts[i].Count++
			}
		}
	})

	counts = slices.DeleteFunc(counts, func(c CategoryCount) bool { return c.Count == 0 })
	slices.SortStableFunc(counts, func(a, b CategoryCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return nonNil(counts)
}

// BuildTrends buckets borrow events by UTC calendar day, ISO-8601 week and
// month.
func BuildTrends(h *history.Store) Trends {
	daily := make(map[string]int)
	weekly := make(map[string]int)
	monthly := make(map[string]int)
	eachBorrow(h, func(e history.Event) {
		daily[DayKey(e.Timestamp)]++
		weekly[WeekKey(e.Timestamp)]++
		monthly[MonthKey(e.Timestamp)]++
	})
	return Trends{
		Daily:   sortedBuckets(daily),
		Weekly:  sortedBuckets(weekly),
		Monthly: sortedBuckets(monthly),
	}
}

// PopularityScores weighs each book's total borrows against its borrows in
// the last RecentWindowDays UTC calendar days, today included, in order of
// each book's first borrow.
func PopularityScores(h *history.Store, now time.Time) []Score {
	today := startOfDay(now)
	oldest := today.AddDate(0, 0, -(RecentWindowDays - 1))

	pos := make(map[string]int)
	var scores []Score
	eachBorrow(h, func(e history.Event) {
		i, ok := pos[e.BookKey]
		if !ok {
			i = len(scores)
			pos[e.BookKey] = i
			scores = append(scores, Score{Key: e.BookKey})
		}
		scores[i].TotalBorrows++
		if day := startOfDay(e.Timestamp); !day.Before(oldest) && !day.After(today) {
			scores[i].RecentBorrows++
		}
	})
	for i := range scores {
		scores[i].Score = float64(scores[i].TotalBorrows)*TotalWeight + float64(scores[i].RecentBorrows)*RecentWeight
	}
	return scores
}

// Recommendations returns the RecommendationsLimit best scored books.
func Recommendations(h *history.Store, now time.Time) []Score {
	scores := PopularityScores(h, now)
	slices.SortStableFunc(scores, func(a, b Score) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(scores) > RecommendationsLimit {
		scores = scores[:RecommendationsLimit]
	}
	return nonNil(scores)
}

// DayKey formats the UTC calendar date of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// WeekKey formats the ISO-8601 week of t, e.g. "2026-W09". The ISO year can
// differ from the calendar year around new year.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey formats the UTC year and month of t.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func eachBorrow(h *history.Store, fn func(history.Event)) {
	h.Each(func(_ string, events []history.Event) {
		for _, e := range events {
			if e.Action == history.Borrow {
				fn(e)
			}
		}
	})
}

func withTitles(books *catalog.Registry, counts []BookCount) {
	for i := range counts {
		if b, ok := books.Get(counts[i].Key); ok {
			counts[i].Title = b.Title
		}
	}
}

func sortedBuckets(m map[string]int) []Bucket {
	out := make([]Bucket, 0, len(m))
	for period, n := range m {
		out = append(out, Bucket{Period: period, Count: n})
	}
	slices.SortFunc(out, func(a, b Bucket) int { return cmp.Compare(a.Period, b.Period) })
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
