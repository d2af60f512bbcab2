package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"schemamigrator/internal/config"
	"schemamigrator/internal/domain"
)

// Open connects with the configured driver ("postgres" is lib/pq, "pgx" is
// pgx/v5) and pings until the server answers or the retries are spent.
func Open(ctx context.Context, cfg config.Database, logger log.FieldLogger) (*sql.DB, error) {
	driver := cfg.Driver
	if driver != config.DriverPostgres && driver != config.DriverPgx {
		return nil, errors.Errorf("postgres: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, cfg.DSN())
	if err != nil {
		return nil, &domain.ConnectionError{Err: errors.Wrap(err, "open")}
	}
	db.SetMaxOpenConns(1)

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		logger.WithFields(log.Fields{
			"host":    cfg.Host,
			"dbName":  cfg.Name,
			"attempt": attempt,
		}).Info(errors.Wrap(err, "can't ping database"))
		if attempt >= retries {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, &domain.ConnectionError{Err: ctx.Err()}
		case <-time.After(cfg.RetryDelay):
		}
	}
	_ = db.Close()
	return nil, &domain.ConnectionError{Err: errors.Wrapf(wrapDriverError(err), "ping after %d attempts", retries)}
}
