// internal/archive/archive.go
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
)

// Supported drivers.
const (
	DriverNone     = "none"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
	DriverS3       = "s3"
)

// Drivers lists every accepted driver name.
var Drivers = []string{DriverNone, DriverFile, DriverPostgres, DriverSQLite, DriverBadger, DriverS3}

// ErrDisabled is returned by Open for the none driver.
var ErrDisabled = errors.New("archive disabled")

// Archive stores encoded snapshot documents under a name. Load of an
// unknown name fails with errs.ErrNotFound.
type Archive interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver   string
	File     FileConfig
	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Badger   BadgerConfig
	S3       S3Config
	Logger   *slog.Logger
}

// Open creates the archive selected by cfg.Driver. Every backend is wrapped
// with tracing.
func Open(ctx context.Context, cfg Config) (Archive, error) {
	var (
		a   Archive
		err error
	)
	switch cfg.Driver {
	case "", DriverNone:
		return nil, ErrDisabled
	case DriverFile:
		a, err = NewFile(cfg.File.Dir)
	case DriverPostgres:
		a, err = OpenPostgres(ctx, cfg.Postgres.DSN)
	case DriverSQLite:
		a, err = OpenSQLite(ctx, cfg.SQLite.Path)
	case DriverBadger:
		bc := cfg.Badger
		if bc.Logger == nil {
			bc.Logger = cfg.Logger
		}
		a, err = OpenBadger(bc)
	case DriverS3:
		a, err = NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive driver %q: %w", cfg.Driver, errs.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", cfg.Driver, err)
	}
	return Traced(a, cfg.Driver), nil
}

// NewName returns a fresh, unique snapshot name.
func NewName() string {
	return "library-" + uuid.NewString()
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("snapshot name is required: %w", errs.ErrValidation)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("snapshot name %q is not a plain name: %w", name, errs.ErrValidation)
	}
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("snapshot %q: %w", name, errs.ErrNotFound)
}

type traced struct {
	Archive
	driver string
	tracer trace.Tracer
}

// Traced wraps a with a span per call.
func Traced(a Archive, driver string) Archive {
	return &traced{
		Archive: a,
		driver:  driver,
		tracer:  otel.Tracer("github.com/naksh1414/Kata-library-Management-System/internal/archive"),
	}
}

func (t *traced) Save(ctx context.Context, name string, data []byte) error {
	ctx, span := t.tracer.Start(ctx, "archive.save",
		trace.WithAttributes(
			attribute.String("archive.driver", t.driver),
			attribute.String("snapshot.name", name),
			attribute.Int("snapshot.bytes", len(data)),
		))
	defer span.End()

	if err := t.Archive.Save(ctx, name, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (t *traced) Load(ctx context.Context, name string) ([]byte, error) {
	ctx, span := t.tracer.Start(ctx, "archive.load",
		trace.WithAttributes(
			attribute.String("archive.driver", t.driver),
			attribute.String("snapshot.name", name),
		))
	defer span.End()

	data, err := t.Archive.Load(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(data)))
	return data, nil
}
