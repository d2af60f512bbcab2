package postgres

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// SQLState extracts the SQLSTATE code from a lib/pq or pgx error.
func SQLState(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

func wrapDriverError(err error) error {
	if err == nil {
		return nil
	}
	if code, ok := SQLState(err); ok {
		return errors.Wrapf(err, "sqlstate %s", code)
	}
	return err
}
