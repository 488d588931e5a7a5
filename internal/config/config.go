package config

import (
	"log/slog"
	"os"
	"time"

	"grc-risk/internal/database"
	"grc-risk/internal/logging"
	"grc-risk/internal/models"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// LoadEnv reads .env (if present) into the process environment so the flag
// sources below can see it. Variables already set take precedence.
func LoadEnv() {
	_ = godotenv.Load()
}

type Server struct {
	Addr          string
	CORSOrigins   []string
	SessionSecret string
}

func (s *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP listen address",
			Category:    "Server",
			Value:       ":5000",
			Sources:     cli.EnvVars("RISK_ADDR"),
			Destination: &s.Addr,
		},
		&cli.StringSliceFlag{
			Name:        "cors-origin",
			Usage:       "Allowed CORS origin (repeatable)",
			Category:    "Server",
			Sources:     cli.EnvVars("RISK_CORS_ORIGINS"),
			Destination: &s.CORSOrigins,
		},
		&cli.StringFlag{
			Name:        "session-secret",
			Usage:       "Secret for the dashboard session cookie",
			Category:    "Server",
			Sources:     cli.EnvVars("RISK_SESSION_SECRET"),
			Destination: &s.SessionSecret,
		},
	}
}

func (s *Server) Validate() error {
	if s.Addr == "" {
		return goerr.New("listen address is not set")
	}
	if s.SessionSecret == "" {
		return goerr.New("RISK_SESSION_SECRET is not set")
	}
	return nil
}

func (s Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", s.Addr),
		slog.Any("cors_origins", s.CORSOrigins),
		slog.Bool("has_session_secret", s.SessionSecret != ""),
	)
}

type Database struct {
	DSN             string
	ConnectAttempts int
	ConnectDelay    time.Duration
}

func (d *Database) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-dsn",
			Usage:       "sqlite file path, or a postgres URL/DSN",
			Category:    "Database",
			Value:       "risks.db",
			Sources:     cli.EnvVars("RISK_DB_DSN", "DB_DSN"),
			Destination: &d.DSN,
		},
		&cli.IntFlag{
			Name:        "db-connect-attempts",
			Usage:       "Connection attempts before giving up",
			Category:    "Database",
			Value:       10,
			Sources:     cli.EnvVars("RISK_DB_CONNECT_ATTEMPTS"),
			Destination: &d.ConnectAttempts,
			Validator: func(n int) error {
				if n < 1 {
					return goerr.New("db-connect-attempts must be at least 1", goerr.V("value", n))
				}
				return nil
			},
		},
		&cli.DurationFlag{
			Name:        "db-connect-delay",
			Usage:       "Delay between connection attempts",
			Category:    "Database",
			Value:       2 * time.Second,
			Sources:     cli.EnvVars("RISK_DB_CONNECT_DELAY"),
			Destination: &d.ConnectDelay,
		},
	}
}

func (d *Database) Options() database.Options {
	return database.Options{
		DSN:             d.DSN,
		ConnectAttempts: d.ConnectAttempts,
		ConnectDelay:    d.ConnectDelay,
	}
}

// LogValue hides the DSN since it may carry credentials.
func (d Database) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("has_dsn", d.DSN != ""),
		slog.Int("connect_attempts", d.ConnectAttempts),
		slog.Duration("connect_delay", d.ConnectDelay),
	)
}

type Seed struct {
	Enabled bool
	File    string
}

func (s *Seed) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "seed",
			Usage:       "Insert default risks when the table is empty",
			Category:    "Seed",
			Value:       true,
			Sources:     cli.EnvVars("RISK_SEED"),
			Destination: &s.Enabled,
		},
		&cli.StringFlag{
			Name:        "seed-file",
			Usage:       "YAML file with risks to seed instead of the defaults",
			Category:    "Seed",
			Sources:     cli.EnvVars("RISK_SEED_FILE"),
			Destination: &s.File,
		},
	}
}

func (s *Seed) Inputs() ([]models.RiskInput, error) {
	if s.File == "" {
		return database.DefaultSeed, nil
	}
	return database.LoadSeedFile(s.File)
}

type Logger struct {
	Level  string
	Format string
}

func (l *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Category:    "Logging",
			Value:       "info",
			Sources:     cli.EnvVars("RISK_LOG_LEVEL"),
			Destination: &l.Level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json, auto)",
			Category:    "Logging",
			Value:       "auto",
			Sources:     cli.EnvVars("RISK_LOG_FORMAT"),
			Destination: &l.Format,
		},
	}
}

func (l *Logger) Configure() (*slog.Logger, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(level, os.Stdout, format), nil
}
