// internal/library/service.go
package library

import (
	"context"

	"github.com/naksh1414/Kata-library-Management-System/internal/analytics"
	"github.com/naksh1414/Kata-library-Management-System/internal/catalog"
	"github.com/naksh1414/Kata-library-Management-System/internal/history"
	"github.com/naksh1414/Kata-library-Management-System/internal/metrics"
)

// Service defines the interface for the library.
type Service interface {
	AddBook(ctx context.Context, key, title, author string, year int) (catalog.Book, error)
	AddBookWithCategory(ctx context.Context, key, title, author string, year int, category string) (catalog.Book, error)
	DeleteBook(ctx context.Context, key string) (bool, error)
	GetBook(ctx context.Context, key string) (catalog.Book, error)
	Available(ctx context.Context) []catalog.Book
	Search(ctx context.Context, query string) []catalog.Book
	ByCategory(ctx context.Context, label string) []catalog.Book
	Categories(ctx context.Context) []string

	Borrow(ctx context.Context, key, actor string) (catalog.Book, error)
	Return(ctx context.Context, key, actor string) (catalog.Book, error)
	History(ctx context.Context, actor string) []history.Event

	Analytics(ctx context.Context) analytics.Result
	Metrics(ctx context.Context) metrics.Snapshot

	ExportSnapshot(ctx context.Context) ([]byte, error)
	ImportSnapshot(ctx context.Context, data []byte) error
	Compact(ctx context.Context) int
}
