// internal/library/implementation.go
package library

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/naksh1414/Kata-library-Management-System/internal/analytics"
	"github.com/naksh1414/Kata-library-Management-System/internal/catalog"
	"github.com/naksh1414/Kata-library-Management-System/internal/circulation"
	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
	"github.com/naksh1414/Kata-library-Management-System/internal/history"
	"github.com/naksh1414/Kata-library-Management-System/internal/metrics"
	"github.com/naksh1414/Kata-library-Management-System/internal/snapshot"
)

// Operation names recorded by the metrics collector.
const (
	opAddBook             = "add_book"
	opAddBookWithCategory = "add_book_with_category"
	opDeleteBook          = "delete_book"
	opBorrow              = "borrow"
	opReturn              = "return"
	opAvailable           = "available"
	opSearch              = "search"
	opAnalytics           = "analytics"
	opImportSnapshot      = "import_snapshot"
)

// Library bundles the registry, category index, history store and metrics
// collector. One mutex guards all of them, so every operation observes and
// produces a consistent state.
type Library struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	history *history.Store
	desk    *circulation.Desk
	metrics *metrics.Collector

	now       func() time.Time
	retention time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
}

var _ Service = (*Library)(nil)

// New creates an empty library.
func New(opts ...Option) (*Library, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.retention < 0 {
		return nil, fmt.Errorf("retention must not be negative: %w", errs.ErrValidation)
	}

	collector, err := metrics.NewCollector(o.now(), o.interval, o.registerer)
	if err != nil {
		return nil, fmt.Errorf("create metrics collector: %w", err)
	}

	c := catalog.New(o.now)
	h := history.NewStore()
	return &Library{
		catalog:   c,
		history:   h,
		desk:      circulation.NewDesk(c, h),
		metrics:   collector,
		now:       o.now,
		retention: o.retention,
		logger:    o.logger,
		tracer:    otel.Tracer("github.com/naksh1414/Kata-library-Management-System/internal/library"),
	}, nil
}

// Registry returns the Prometheus registry holding the library metrics.
func (l *Library) Registry() *prometheus.Registry {
	return l.metrics.Registry()
}

// AddBook registers a new, available book.
func (l *Library) AddBook(ctx context.Context, key, title, author string, year int) (catalog.Book, error) {
	ctx, span := l.tracer.Start(ctx, "library.add_book",
		trace.WithAttributes(attribute.String("book.key", key), attribute.Int("book.year", year)))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	book, err := l.catalog.Add(key, title, author, year)
	l.record(ctx, opAddBook)
	if err != nil {
		return catalog.Book{}, l.fail(span, "add book", err, "key", key)
	}
	l.logger.Debug("book added", "key", key)
	return book, nil
}

// AddBookWithCategory registers a new book and files it under category.
func (l *Library) AddBookWithCategory(ctx context.Context, key, title, author string, year int, category string) (catalog.Book, error) {
	ctx, span := l.tracer.Start(ctx, "library.add_book_with_category",
		trace.WithAttributes(attribute.String("book.key", key), attribute.String("book.category", category)))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	book, err := l.catalog.AddWithCategory(key, title, author, year, category)
	l.record(ctx, opAddBookWithCategory)
	if err != nil {
		return catalog.Book{}, l.fail(span, "add book", err, "key", key, "category", category)
	}
	l.logger.Debug("book added", "key", key, "category", category)
	return book, nil
}

// DeleteBook removes an available book and its category memberships.
// History referring to the book is kept.
func (l *Library) DeleteBook(ctx context.Context, key string) (bool, error) {
	ctx, span := l.tracer.Start(ctx, "library.delete_book",
		trace.WithAttributes(attribute.String("book.key", key)))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	deleted, err := l.catalog.Delete(key)
	l.record(ctx, opDeleteBook)
	if err != nil {
		return false, l.fail(span, "delete book", err, "key", key)
	}
	l.logger.Debug("book deleted", "key", key)
	return deleted, nil
}

// GetBook looks up a single book.
func (l *Library) GetBook(ctx context.Context, key string) (catalog.Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.catalog.Books.Lookup(key)
}

// Available lists books that are not on loan.
func (l *Library) Available(ctx context.Context) []catalog.Book {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(ctx, opAvailable)
	return l.catalog.Books.Available()
}

// Search returns books whose title, author, key or year contains query,
// ignoring case.
func (l *Library) Search(ctx context.Context, query string) []catalog.Book {
	ctx, span := l.tracer.Start(ctx, "library.search")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(ctx, opSearch)
	found := l.catalog.Books.Search(query)
	span.SetAttributes(attribute.Int("search.results", len(found)))
	return found
}

// ByCategory lists the books filed under label.
func (l *Library) ByCategory(ctx context.Context, label string) []catalog.Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.catalog.ByCategory(label)
}

// Categories lists category labels in creation order.
func (l *Library) Categories(ctx context.Context) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.catalog.Categories.Labels()
}

// Borrow lends an available book to actor. An empty actor is recorded as
// anonymous.
func (l *Library) Borrow(ctx context.Context, key, actor string) (catalog.Book, error) {
	return l.lend(ctx, opBorrow, key, actor, l.desk.Borrow)
}

// Return takes back a book that is on loan.
func (l *Library) Return(ctx context.Context, key, actor string) (catalog.Book, error) {
	return l.lend(ctx, opReturn, key, actor, l.desk.Return)
}

func (l *Library) lend(ctx context.Context, op, key, actor string,
	apply func(key, actor string, at time.Time) (catalog.Book, error)) (catalog.Book, error) {
	ctx, span := l.tracer.Start(ctx, "library."+op,
		trace.WithAttributes(
			attribute.String("book.key", key),
			attribute.String("actor", circulation.ActorOrAnonymous(actor)),
		))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	book, err := apply(key, actor, l.now().UTC())
	l.record(ctx, op)
	if err != nil {
		return catalog.Book{}, l.fail(span, op, err, "key", key, "actor", actor)
	}
	l.logger.Debug("lending transition", "op", op, "key", key, "actor", circulation.ActorOrAnonymous(actor))
	return book, nil
}

// History returns a copy of actor's event log; unknown actors have none.
func (l *Library) History(ctx context.Context, actor string) []history.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history.History(actor)
}

// Analytics projects the current history and registry.
func (l *Library) Analytics(ctx context.Context) analytics.Result {
	ctx, span := l.tracer.Start(ctx, "library.analytics")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(ctx, opAnalytics)
	res := analytics.Compute(l.catalog, l.history, l.now())
	span.SetAttributes(
		attribute.Int("analytics.total_borrows", res.TotalBorrows),
		attribute.Int("analytics.active_loans", res.ActiveLoans),
	)
	return res
}

// Metrics reports operation counts, uptime and throughput.
func (l *Library) Metrics(ctx context.Context) metrics.Snapshot {
	return l.metrics.Snapshot(l.now())
}

// ExportSnapshot serializes registry, category index and history.
func (l *Library) ExportSnapshot(ctx context.Context) ([]byte, error) {
	_, span := l.tracer.Start(ctx, "library.export_snapshot")
	defer span.End()

	l.mu.Lock()
	doc := snapshot.Capture(l.catalog, l.history)
	l.mu.Unlock()

	data, err := snapshot.Encode(doc)
	if err != nil {
		return nil, l.fail(span, "export snapshot", err)
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(data)))
	return data, nil
}

// ImportSnapshot replaces registry, category index and history wholesale.
// Metrics are kept. On error the current state is unchanged.
func (l *Library) ImportSnapshot(ctx context.Context, data []byte) error {
	ctx, span := l.tracer.Start(ctx, "library.import_snapshot",
		trace.WithAttributes(attribute.Int("snapshot.bytes", len(data))))
	defer span.End()

	doc, err := snapshot.Decode(data)

	l.mu.Lock()
	defer l.mu.Unlock()

	// A due compaction runs against the state being replaced, so the
	// imported history is kept as exported.
	l.record(ctx, opImportSnapshot)
	if err == nil {
		err = snapshot.Restore(doc, l.catalog, l.history)
	}
	if err != nil {
		return l.fail(span, "import snapshot", err)
	}
	l.logger.Info("snapshot imported",
		"books", l.catalog.Books.Len(),
		"actors", len(l.history.Actors()),
		"events", l.history.Len())
	return nil
}

// Compact drops history events older than the retention window now,
// regardless of the compaction interval. It returns the number of dropped
// events.
func (l *Library) Compact(ctx context.Context) int {
	_, span := l.tracer.Start(ctx, "library.compact")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := l.metrics.Compact(l.now(), l.compactHistory)
	span.SetAttributes(attribute.Int("history.dropped", dropped))
	return dropped
}

// record counts op and gives compaction a chance to run. Callers hold mu.
func (l *Library) record(ctx context.Context, op string) {
	l.metrics.RecordOperation(ctx, op)
	l.metrics.MaybeCompact(l.now(), l.compactHistory)
}

func (l *Library) compactHistory(now time.Time) int {
	dropped := l.history.Compact(now, l.retention)
	l.logger.Info("history compacted", "dropped", dropped, "retention", l.retention)
	return dropped
}

func (l *Library) fail(span trace.Span, op string, err error, args ...any) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.logger.Warn(op+" failed", append(args, "kind", errs.KindOf(err), "error", err)...)
	return err
}
