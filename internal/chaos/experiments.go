// internal/chaos/experiments.go
package chaos

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
)

// Settings sizes the predefined experiments.
type Settings struct {
	Concurrency    int
	Rounds         int
	Books          int
	Duration       time.Duration
	SampleInterval time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Concurrency:    32,
		Rounds:         20,
		Books:          4,
		Duration:       3 * time.Second,
		SampleInterval: 500 * time.Millisecond,
	}
}

// Experiments returns every predefined experiment against t.
func Experiments(t Target, s Settings) []Experiment {
	return []Experiment{
		ConcurrentBorrowRace(t, s),
		BorrowReturnChurn(t, s),
		InvalidInputFlood(t, s),
	}
}

func chaosKey() string   { return "chaos-" + uuid.NewString() }
func chaosActor() string { return "chaos-actor-" + uuid.NewString() }

func counter(name string, c *atomic.Int64, threshold Threshold) Probe {
	return Probe{
		Name:      name,
		Query:     func(context.Context) (float64, error) { return float64(c.Load()), nil },
		Threshold: threshold,
	}
}

func equals(v float64) func(float64) bool { return func(x float64) bool { return x == v } }

// ConcurrentBorrowRace lets many actors borrow the same single copy at once.
func ConcurrentBorrowRace(t Target, s Settings) Experiment {
	key := chaosKey()
	var winners, unexpected atomic.Int64

	return Experiment{
		Name:       "concurrent-borrow-race",
		Hypothesis: "Exactly one of many simultaneous borrows of one book succeeds",
		SteadyState: []Probe{
			counter("borrow_winners", &winners, Threshold{Operator: "<=", Value: 1}),
			counter("unexpected_errors", &unexpected, Threshold{Operator: "==", Value: 0}),
			{
				Name: "loan_state_consistent",
				Query: func(ctx context.Context) (float64, error) {
					book, err := t.GetBook(ctx, key)
					if errors.Is(err, errs.ErrNotFound) {
						return 1, nil
					}
					if err != nil {
						return 0, err
					}
					if book.Available == (winners.Load() == 0) {
						return 1, nil
					}
					return 0, nil
				},
				Threshold: Threshold{Operator: "==", Value: 1},
			},
		},
		Method: []Action{
			{
				Type:   "seed-book",
				Target: "catalog",
				Execute: func(ctx context.Context) error {
					_, err := t.AddBook(ctx, key, "Chaos Race", "Chaos Engine", 2000)
					return err
				},
			},
			{
				Type:   "concurrent-borrows",
				Target: "circulation",
				Execute: func(ctx context.Context) error {
					g, gctx := errgroup.WithContext(ctx)
					for range max(s.Concurrency, 2) {
						g.Go(func() error {
							_, err := t.Borrow(gctx, key, chaosActor())
							switch {
							case err == nil:
								winners.Add(1)
							case !errors.Is(err, errs.ErrConflict):
								unexpected.Add(1)
							}
							return nil
						})
					}
					return g.Wait()
				},
			},
		},
		Rollback: []Action{
			{
				Type:   "remove-book",
				Target: "catalog",
				Execute: func(ctx context.Context) error {
					if winners.Load() > 0 {
						if _, err := t.Return(ctx, key, "chaos-rollback"); err != nil && !errors.Is(err, errs.ErrConflict) {
							return err
						}
					}
					_, err := t.DeleteBook(ctx, key)
					return err
				},
			},
		},
		Validation: []Assertion{
			{Probe: "borrow_winners", Condition: equals(1), Message: "exactly one borrow should win"},
			{Probe: "unexpected_errors", Condition: equals(0), Message: "losers should see conflicts only"},
			{Probe: "loan_state_consistent", Condition: equals(1), Message: "the book should be on loan to the winner"},
		},
		Duration:       s.Duration,
		SampleInterval: s.SampleInterval,
	}
}

// BorrowReturnChurn has actors cycle borrow and return over a few books.
func BorrowReturnChurn(t Target, s Settings) Experiment {
	books := max(s.Books, 1)
	keys := make([]string, books)
	for i := range keys {
		keys[i] = chaosKey()
	}
	var (
		seeded                    atomic.Bool
		successes, unexpected     atomic.Int64
		baselineBorrows, baseline atomic.Int64
	)

	ownOnLoan := func(ctx context.Context) (int, error) {
		n := 0
		for _, k := range keys {
			book, err := t.GetBook(ctx, k)
			if errors.Is(err, errs.ErrNotFound) {
				continue
			}
			if err != nil {
				return 0, err
			}
			if !book.Available {
				n++
			}
		}
		return n, nil
	}

	return Experiment{
		Name:       "borrow-return-churn",
		Hypothesis: "Under borrow/return churn loans never exceed copies and analytics count every borrow",
		SteadyState: []Probe{
			counter("unexpected_errors", &unexpected, Threshold{Operator: "==", Value: 0}),
			{
				Name: "loans_over_capacity",
				Query: func(ctx context.Context) (float64, error) {
					if !seeded.Load() {
						return 0, nil
					}
					res, err := t.Analytics(ctx)
					if err != nil {
						return 0, err
					}
					return float64(int64(res.ActiveLoans) - baseline.Load() - int64(books)), nil
				},
				Threshold: Threshold{Operator: "<=", Value: 0},
			},
			{
				Name: "borrow_count_drift",
				Query: func(ctx context.Context) (float64, error) {
					if !seeded.Load() {
						return 0, nil
					}
					res, err := t.Analytics(ctx)
					if err != nil {
						return 0, err
					}
					return float64(int64(res.TotalBorrows) - baselineBorrows.Load() - successes.Load()), nil
				},
				Threshold: Threshold{Operator: "==", Value: 0},
			},
			{
				Name: "open_loans",
				Query: func(ctx context.Context) (float64, error) {
					n, err := ownOnLoan(ctx)
					return float64(n), err
				},
				Threshold: Threshold{Operator: "<=", Value: float64(books)},
			},
		},
		Method: []Action{
			{
				Type:   "seed-books",
				Target: "catalog",
				Execute: func(ctx context.Context) error {
					res, err := t.Analytics(ctx)
					if err != nil {
						return err
					}
					baseline.Store(int64(res.ActiveLoans))
					baselineBorrows.Store(int64(res.TotalBorrows))
					for i, k := range keys {
						if _, err := t.AddBook(ctx, k, fmt.Sprintf("Churn %d", i), "Chaos Engine", 2000); err != nil {
							return err
						}
					}
					seeded.Store(true)
					return nil
				},
			},
			{
				Type:   "borrow-return-churn",
				Target: "circulation",
				Execute: func(ctx context.Context) error {
					g, gctx := errgroup.WithContext(ctx)
					for i := range max(s.Concurrency, 1) {
						actor := chaosActor()
						g.Go(func() error {
							for r := range max(s.Rounds, 1) {
								key := keys[(i+r)%books]
								_, err := t.Borrow(gctx, key, actor)
								if errors.Is(err, errs.ErrConflict) {
									continue
								}
								if err != nil {
									unexpected.Add(1)
									continue
								}
								successes.Add(1)
								if _, err := t.Return(gctx, key, actor); err != nil {
									unexpected.Add(1)
								}
							}
							return nil
						})
					}
					return g.Wait()
				},
			},
		},
		Rollback: []Action{
			{
				Type:   "remove-books",
				Target: "catalog",
				Execute: func(ctx context.Context) error {
					var errsSeen []error
					for _, k := range keys {
						book, err := t.GetBook(ctx, k)
						if errors.Is(err, errs.ErrNotFound) {
							continue
						}
						if err == nil && !book.Available {
							_, err = t.Return(ctx, k, "chaos-rollback")
						}
						if err == nil {
							_, err = t.DeleteBook(ctx, k)
						}
						if err != nil {
							errsSeen = append(errsSeen, err)
						}
					}
					return errors.Join(errsSeen...)
				},
			},
		},
		Validation: []Assertion{
			{Probe: "unexpected_errors", Condition: equals(0), Message: "only conflicts are expected under churn"},
			{Probe: "loans_over_capacity", Condition: func(v float64) bool { return v <= 0 }, Message: "active loans must not exceed copies"},
			{Probe: "borrow_count_drift", Condition: equals(0), Message: "analytics should count every successful borrow"},
			{Probe: "open_loans", Condition: equals(0), Message: "every borrowed book should be back"},
		},
		Duration:       s.Duration,
		SampleInterval: s.SampleInterval,
	}
}

type bookInput struct {
	key, title, author string
	year               int
}

// InvalidInputFlood submits a stream of invalid books.
func InvalidInputFlood(t Target, s Settings) Experiment {
	seedKey := chaosKey()
	var (
		seeded                         atomic.Bool
		accepted, rejected, unexpected atomic.Int64
		baseline                       atomic.Int64
	)
	inputs := func() []bookInput {
		k := chaosKey()
		return []bookInput{
			{"", "Title", "Author", 2000},
			{k, "", "Author", 2000},
			{k, "Title", "", 2000},
			{k, "Title", "Author", 0},
			{k, "Title", "Author", 1899},
			{k, "Title", "Author", 9999},
			{seedKey, "Title", "Author", 2000},
		}
	}
	total := max(s.Concurrency, 1) * len(inputs())

	return Experiment{
		Name:       "invalid-input-flood",
		Hypothesis: "Invalid book submissions are all rejected and leave the catalog unchanged",
		SteadyState: []Probe{
			counter("accepted_invalid", &accepted, Threshold{Operator: "==", Value: 0}),
			counter("unexpected_errors", &unexpected, Threshold{Operator: "==", Value: 0}),
			counter("rejected_inputs", &rejected, Threshold{Operator: ">=", Value: 0}),
			{
				Name: "available_delta",
				Query: func(ctx context.Context) (float64, error) {
					if !seeded.Load() {
						return 0, nil
					}
					books, err := t.Available(ctx)
					if err != nil {
						return 0, err
					}
					return float64(int64(len(books)) - baseline.Load()), nil
				},
				Threshold: Threshold{Operator: "==", Value: 0},
			},
		},
		Method: []Action{
			{
				Type:   "seed-book",
				Target: "catalog",
				Execute: func(ctx context.Context) error {
					if _, err := t.AddBook(ctx, seedKey, "Flood Seed", "Chaos Engine", 2000); err != nil {
						return err
					}
					books, err := t.Available(ctx)
					if err != nil {
						return err
					}
					baseline.Store(int64(len(books)))
					seeded.Store(true)
					return nil
				},
			},
			{
				Type:   "invalid-input-flood",
				Target: "catalog",
				Execute: func(ctx context.Context) error {
					g, gctx := errgroup.WithContext(ctx)
					g.SetLimit(8)
					for range max(s.Concurrency, 1) {
						for _, in := range inputs() {
							g.Go(func() error {
								_, err := t.AddBook(gctx, in.key, in.title, in.author, in.year)
								switch {
								case err == nil:
									accepted.Add(1)
								case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrRange), errors.Is(err, errs.ErrConflict):
									rejected.Add(1)
								default:
									unexpected.Add(1)
								}
								return nil
							})
						}
					}
					return g.Wait()
				},
			},
		},
		Rollback: []Action{
			{
				Type:   "remove-book",
				Target: "catalog",
				Execute: func(ctx context.Context) error {
					_, err := t.DeleteBook(ctx, seedKey)
					return err
				},
			},
		},
		Validation: []Assertion{
			{Probe: "accepted_invalid", Condition: equals(0), Message: "no invalid book may be accepted"},
			{Probe: "unexpected_errors", Condition: equals(0), Message: "rejections should carry validation, range or conflict kinds"},
			{Probe: "rejected_inputs", Condition: equals(float64(total)), Message: "every invalid submission should be rejected"},
			{Probe: "available_delta", Condition: equals(0), Message: "the catalog should be unchanged"},
		},
		Duration:       s.Duration,
		SampleInterval: s.SampleInterval,
	}
}
