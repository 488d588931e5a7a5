package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grc-risk/internal/config"
	"grc-risk/internal/database"
	"grc-risk/internal/metrics"
	"grc-risk/internal/server"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		dbCfg     config.Database
		seedCfg   config.Seed
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server",
		Flags: joinFlags(
			serverCfg.Flags(),
			dbCfg.Flags(),
			seedCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting risk register",
				slog.Any("server", serverCfg),
				slog.Any("database", dbCfg),
				slog.Bool("seed", seedCfg.Enabled),
			)

			if err := serverCfg.Validate(); err != nil {
				return err
			}

			store, err := openStore(ctx, &dbCfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Warn("failed to close database", slog.Any("error", err))
				}
			}()

			if seedCfg.Enabled {
				if err := runSeed(ctx, store, &seedCfg); err != nil {
					return err
				}
			}

			m := metrics.New()
			recordStored(ctx, store, m)

			router, err := server.NewRouter(store, server.Options{
				CORSOrigins:   serverCfg.CORSOrigins,
				SessionSecret: serverCfg.SessionSecret,
				Logger:        logger,
				Metrics:       m,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create router")
			}

			srv := &http.Server{
				Addr:              serverCfg.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			case err := <-errCh:
				return goerr.Wrap(err, "HTTP server failed", goerr.V("addr", serverCfg.Addr))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}

func openStore(ctx context.Context, dbCfg *config.Database) (*database.Store, error) {
	store, err := database.Open(ctx, dbCfg.Options())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database")
	}
	return store, nil
}

func runSeed(ctx context.Context, store *database.Store, seedCfg *config.Seed) error {
	inputs, err := seedCfg.Inputs()
	if err != nil {
		return err
	}
	n, err := store.Seed(ctx, inputs)
	if err != nil {
		return goerr.Wrap(err, "failed to seed risks")
	}
	if n > 0 {
		ctxlog.From(ctx).Info("seeded risks", slog.Int("count", n))
	}
	return nil
}

type riskCounter interface {
	CountRisks(ctx context.Context) (int64, error)
}

// recordStored primes the stored-risks gauge. A failed count only leaves the
// gauge at zero until the next /stats call.
func recordStored(ctx context.Context, store riskCounter, m *metrics.Metrics) {
	n, err := store.CountRisks(ctx)
	if err != nil {
		ctxlog.From(ctx).Warn("failed to count stored risks", slog.Any("error", err))
		return
	}
	m.SetStored(int(n))
}
