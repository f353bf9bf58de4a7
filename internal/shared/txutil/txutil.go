package txutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

// TxFn runs inside a single database transaction. Returning an error rolls
// the whole unit back; nothing is partially applied.
type TxFn func(tx *sql.Tx) error

// WithTransaction membungkus satu unit kerja dalam transaksi tunggal.
// Service yang butuh multi-row atomicity (approval, bulk provisioning)
// memakai helper ini supaya disiplin commit/rollback-nya seragam.
func WithTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return MapInfraError(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return MapInfraError(err)
	}
	return nil
}

// MapInfraError memisahkan kegagalan infrastruktur (retryable) dari error
// domain. Lock timeout, koneksi putus, dan context timeout dipetakan ke
// SERVICE_UNAVAILABLE; selain itu error diteruskan apa adanya.
func MapInfraError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return apperror.Wrap(err, apperror.CodeServiceUnavailable, "A transient error occurred, please retry", 503)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03", // lock_not_available
			"57014": // query_canceled (statement timeout)
			return apperror.Wrap(err, apperror.CodeServiceUnavailable, "A transient error occurred, please retry", 503)
		}
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" { // connection exceptions
			return apperror.Wrap(err, apperror.CodeServiceUnavailable, "A transient error occurred, please retry", 503)
		}
	}

	return err
}
