// cmd/library/cmd_serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/naksh1414/Kata-library-Management-System/internal/archive"
	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
	"github.com/naksh1414/Kata-library-Management-System/internal/library"
	"github.com/naksh1414/Kata-library-Management-System/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/JSON library server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
				Endpoint:    cfg.Telemetry.OTLPEndpoint,
				ServiceName: cfg.Telemetry.ServiceName,
			})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logger.Warn("tracing shutdown failed", "error", err)
				}
			}()

			lib, err := library.New(
				library.WithLogger(logger),
				library.WithRetention(cfg.History.Retention),
				library.WithCompactionInterval(cfg.History.CompactionInterval),
			)
			if err != nil {
				return fmt.Errorf("serve: creating library: %w", err)
			}

			arch, err := openArchive(ctx, cfg.Archive.Driver, logger)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			if arch != nil {
				defer func() { _ = arch.Close() }()
				if cfg.Archive.RestoreOnStart {
					if err := restore(ctx, lib, arch, cfg.Archive.Name, logger); err != nil {
						return fmt.Errorf("serve: %w", err)
					}
				}
			}

			compactor, err := library.NewCompactor(lib, cfg.History.CompactionInterval, logger)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			compactor.Start()
			defer compactor.Stop()

			handlerOpts := []library.HandlerOption{library.WithHandlerLogger(logger)}
			if cfg.API.WriteRate > 0 {
				handlerOpts = append(handlerOpts, library.WithWriteLimit(cfg.API.WriteRate, cfg.API.WriteBurst))
			}
			httpSrv := &http.Server{
				Addr:              cfg.API.ListenAddr,
				Handler:           library.NewHandler(lib, handlerOpts...).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			if err := run(ctx, httpSrv, logger); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			if arch != nil && cfg.Archive.SaveOnShutdown {
				if err := save(context.Background(), lib, arch, cfg.Archive.Name, logger); err != nil {
					return fmt.Errorf("serve: %w", err)
				}
			}
			return nil
		},
	}
}

// run serves until ctx is cancelled or the listener fails, then shuts the
// server down gracefully.
func run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// openArchive returns a nil archive when the driver is disabled.
func openArchive(ctx context.Context, driver string, logger *slog.Logger) (archive.Archive, error) {
	backend := cfg.Archive.Backend(driver)
	backend.Logger = logger
	arch, err := archive.Open(ctx, backend)
	if errors.Is(err, archive.ErrDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s archive: %w", driver, err)
	}
	return arch, nil
}

// restore imports the named snapshot. A missing snapshot leaves the library
// empty.
func restore(ctx context.Context, lib library.Service, arch archive.Archive, name string, logger *slog.Logger) error {
	data, err := arch.Load(ctx, name)
	if errors.Is(err, errs.ErrNotFound) {
		logger.Info("no snapshot to restore", "name", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading snapshot %q: %w", name, err)
	}
	if err := lib.ImportSnapshot(ctx, data); err != nil {
		return fmt.Errorf("restoring snapshot %q: %w", name, err)
	}
	logger.Info("snapshot restored", "name", name, "bytes", len(data))
	return nil
}

func save(ctx context.Context, lib library.Service, arch archive.Archive, name string, logger *slog.Logger) error {
	data, err := lib.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("exporting snapshot: %w", err)
	}
	if err := arch.Save(ctx, name, data); err != nil {
		return fmt.Errorf("saving snapshot %q: %w", name, err)
	}
	logger.Info("snapshot saved", "name", name, "bytes", len(data))
	return nil
}
