// Command migrate manages the Salesflow PostgreSQL schema.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/salesflow/backend/internal/infrastructure/config"
	"github.com/salesflow/backend/internal/infrastructure/logger"
	"github.com/salesflow/backend/internal/infrastructure/migration"
	"github.com/salesflow/backend/migrations"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

// dbCommand runs against an open migrator
type dbCommand func(m *migration.Migrator, args []string, log *zap.Logger) error

var dbCommands = map[string]dbCommand{
	"up":      func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() },
	"down":    func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() },
	"step":    runSteps,
	"force":   runForce,
	"version": runVersion,
	"status":  runStatus,
}

func main() {
	var (
		migrationsDir string
		logLevel      string
		connTimeout   time.Duration
	)
	flag.StringVar(&migrationsDir, "dir", "migrations", "Directory new migrations are written to (create only)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&connTimeout, "timeout", 10*time.Second, "Database connection timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(args, migrationsDir, connTimeout, log); err != nil {
		if errors.Is(err, errUsage) {
			log.Error(err.Error())
			printUsage()
			os.Exit(2)
		}
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string, migrationsDir string, connTimeout time.Duration, log *zap.Logger) error {
	command, rest := args[0], args[1:]
	log.Debug("Migration CLI started", zap.String("command", command))

	// create and list work without a database
	switch command {
	case "create":
		if len(rest) == 0 {
			return fmt.Errorf("%w: migrate create <name> [description]", errUsage)
		}
		mf, err := migration.CreateMigration(migrationsDir, rest[0], strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	case "list":
		names, err := migration.ListMigrations(migrations.FS)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	cmd, ok := dbCommands[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s:%d/%s: %w", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, err)
	}

	m, err := migration.New(db, migrations.FS, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return cmd(m, rest, log)
}

func runSteps(m *migration.Migrator, args []string, _ *zap.Logger) error {
	n, err := intArg(args, "migrate step <n>")
	if err != nil {
		return err
	}
	return m.Steps(n)
}

func runForce(m *migration.Migrator, args []string, _ *zap.Logger) error {
	version, err := intArg(args, "migrate force <version>")
	if err != nil {
		return err
	}
	return m.Force(version)
}

func runVersion(m *migration.Migrator, _ []string, log *zap.Logger) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		log.Info("No migrations applied")
		return nil
	}
	log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// runStatus prints every embedded migration with whether it has been applied
func runStatus(m *migration.Migrator, _ []string, _ *zap.Logger) error {
	current, dirty, err := m.Version()
	if err != nil {
		return err
	}
	names, err := migration.ListMigrations(migrations.FS)
	if err != nil {
		return err
	}
	for _, name := range names {
		state := "pending"
		if v, err := strconv.ParseUint(strings.SplitN(name, "_", 2)[0], 10, 64); err == nil && uint(v) <= current {
			state = "applied"
			if dirty && uint(v) == current {
				state = "dirty"
			}
		}
		fmt.Printf("%-8s %s\n", state, name)
	}
	return nil
}

func intArg(args []string, usage string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

func printUsage() {
	fmt.Println(`Salesflow Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  version               Show current migration version
  status                Show every embedded migration as applied, pending or dirty
  force <version>       Force set migration version (use with caution)
  create <name> [desc]  Create the next sequential migration pair
  list                  List embedded migrations

Flags:
  -dir string           Directory for new migrations (default: migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)
  -timeout duration     Database connection timeout (default: 10s)

Environment Variables:
  SALESFLOW_DATABASE_HOST, SALESFLOW_DATABASE_PORT, SALESFLOW_DATABASE_USER,
  SALESFLOW_DATABASE_PASSWORD, SALESFLOW_DATABASE_DBNAME, SALESFLOW_DATABASE_SSLMODE`)
}
