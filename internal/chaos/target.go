// internal/chaos/target.go
package chaos

import (
	"context"

	"github.com/naksh1414/Kata-library-Management-System/internal/analytics"
	"github.com/naksh1414/Kata-library-Management-System/internal/catalog"
	"github.com/naksh1414/Kata-library-Management-System/internal/library"
)

// Target is the library surface experiments drive. *client.Client
// satisfies it for a remote server; InProcess adapts a local library.
type Target interface {
	AddBook(ctx context.Context, key, title, author string, year int) (catalog.Book, error)
	DeleteBook(ctx context.Context, key string) (bool, error)
	GetBook(ctx context.Context, key string) (catalog.Book, error)
	Borrow(ctx context.Context, key, actor string) (catalog.Book, error)
	Return(ctx context.Context, key, actor string) (catalog.Book, error)
	Available(ctx context.Context) ([]catalog.Book, error)
	Analytics(ctx context.Context) (analytics.Result, error)
}

type inProcess struct {
	library.Service
}

// InProcess exposes a library service as a Target.
func InProcess(svc library.Service) Target {
	return inProcess{Service: svc}
}

func (p inProcess) Available(ctx context.Context) ([]catalog.Book, error) {
	return p.Service.Available(ctx), nil
}

func (p inProcess) Analytics(ctx context.Context) (analytics.Result, error) {
	return p.Service.Analytics(ctx), nil
}
