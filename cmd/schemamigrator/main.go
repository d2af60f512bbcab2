package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"schemamigrator/internal/app"
	"schemamigrator/internal/catalog"
	"schemamigrator/internal/config"
	"schemamigrator/internal/domain"
	"schemamigrator/internal/infrastructure/postgres"
	"schemamigrator/internal/infrastructure/sqlite"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "usage:  schemamigrator [flags] <up <batch.yaml|catalog name|all>|validate <batch.yaml>|inspect [table...]|create <name> [table]|list>")
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := config.LoadEnvFile(os.Getenv("MIGRATOR_ENV_FILE")); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fs := flag.NewFlagSet("schemamigrator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) < 1 {
		printHelp(stderr)
		return 2
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, params := rest[0], rest[1:]
	switch command {
	case "list":
		for _, name := range catalog.Names() {
			fmt.Fprintln(stdout, name)
		}
		return 0
	case "create":
		if len(params) < 1 {
			printHelp(stderr)
			return 2
		}
		table := ""
		if len(params) > 1 {
			table = params[1]
		}
		path, err := app.Create(cfg.BatchDir, params[0], table, time.Now())
		if err != nil {
			logger.Error(err)
			return 1
		}
		fmt.Fprintln(stdout, "Generated new batch file...", path)
		return 0
	case "validate":
		if len(params) != 1 {
			printHelp(stderr)
			return 2
		}
		batch, err := resolveBatch(params[0])
		if err == nil {
			err = batch.Validate()
		}
		if err != nil {
			logger.Error(err)
			return 1
		}
		fmt.Fprintf(stdout, "batch %s: %d steps ok\n", batch.Name, len(batch.Steps))
		return 0
	case "up", "inspect":
	default:
		fmt.Fprintln(stderr, "Unknown command")
		printHelp(stderr)
		return 2
	}

	if err := cfg.Validate(); err != nil {
		logger.Error(err)
		return 1
	}
	logger.Print("Starting the migrator...")
	repo, db, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error(err)
		return 1
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()
	runner := app.NewRunner(repo, logger)

	switch command {
	case "up":
		if len(params) != 1 {
			printHelp(stderr)
			return 2
		}
		batch, err := resolveBatch(params[0])
		if err != nil {
			logger.Error(err)
			return 1
		}
		report, err := runner.Run(ctx, batch)
		_ = app.WriteReport(stdout, report)
		if err != nil {
			logger.WithField("state", report.State).Error(err)
			return 1
		}
	case "inspect":
		snap, err := runner.Inspect(ctx, params...)
		if err != nil {
			logger.Error(err)
			return 1
		}
		_ = app.WriteSnapshot(stdout, snap)
	}
	return 0
}

func newLogger(cfg config.Config, out io.Writer) (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(out)
	switch strings.ToLower(cfg.LogFormat) {
	case "", "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.LogFormat)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logger.SetLevel(level)
	return logger, nil
}

func openRepository(ctx context.Context, cfg config.Config, logger *log.Logger) (domain.SchemaRepository, *sql.DB, error) {
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DB.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewSchemaRepository(db), db, nil
	default:
		db, err := postgres.Open(ctx, cfg.DB, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSchemaRepository(db), db, nil
	}
}

// resolveBatch accepts a catalog batch name, "all", or a path to a YAML batch file.
func resolveBatch(arg string) (domain.Batch, error) {
	if arg == "all" {
		return catalog.All(), nil
	}
	if b, ok := catalog.Get(arg); ok {
		return b, nil
	}
	return app.LoadBatchFile(arg)
}
