package database

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"grc-risk/internal/models"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	DSN             string
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// Store owns the risks table. It is created with Open and must be closed.
type Store struct {
	db     *gorm.DB
	driver string
}

// Open connects with retries, then migrates the schema.
func Open(ctx context.Context, opts Options) (*Store, error) {
	logger := ctxlog.From(ctx)

	if opts.DSN == "" {
		return nil, goerr.New("database DSN is not set")
	}
	if opts.ConnectAttempts < 1 {
		opts.ConnectAttempts = 1
	}

	dialector, driver := dialectorFor(opts.DSN)

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= opts.ConnectAttempts; i++ {
		logger.Debug("connecting to database",
			slog.String("driver", driver),
			slog.Int("attempt", i),
			slog.Int("max_attempts", opts.ConnectAttempts),
		)

		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err == nil {
			break
		}

		logger.Warn("failed to connect to database", slog.Any("error", err))
		if i == opts.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "database connection cancelled")
		case <-time.After(opts.ConnectDelay):
		}
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to database",
			goerr.V("driver", driver),
			goerr.V("attempts", opts.ConnectAttempts))
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to access sqlite pool")
		}
		// sqlite allows a single writer; this also keeps ":memory:" on one connection
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.Risk{}); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate")
	}

	logger.Info("connected to database", slog.String("driver", driver))
	return &Store{db: db, driver: driver}, nil
}

func dialectorFor(dsn string) (gorm.Dialector, string) {
	if strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") {
		return postgres.Open(dsn), "postgres"
	}
	return sqlite.Open(dsn), "sqlite"
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to access connection pool")
	}
	if err := sqlDB.Close(); err != nil {
		return goerr.Wrap(err, "failed to close database")
	}
	return nil
}

// Ping is used by the health check.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to access connection pool")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return goerr.Wrap(err, "database ping failed")
	}
	return nil
}
