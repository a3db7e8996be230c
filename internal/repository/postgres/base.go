package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/metrics"
)

const defaultQueryTimeout = 5 * time.Second

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *sqlx.DB
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository. Every call made through
// it is bounded by timeout.
func NewBaseRepository(db *sqlx.DB, timeout time.Duration, m *metrics.Metrics) BaseRepository {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return BaseRepository{db: db, timeout: timeout, metrics: m}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

func (r *BaseRepository) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// observe records the outcome and latency of one database operation.
func (r *BaseRepository) observe(op string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.DatabaseOperations.WithLabelValues(op, status).Inc()
	r.metrics.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// track starts timing op. Defer the returned func with the named error result.
func (r *BaseRepository) track(op string) func(*error) {
	start := time.Now()
	return func(errp *error) {
		r.observe(op, start, *errp)
	}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func requireRow(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, resource, "update")
	}
	if n == 0 {
		return errors.NewNotFound(resource, nil)
	}
	return nil
}

// deactivate soft deletes a row by clearing its active flag.
func (r *BaseRepository) deactivate(ctx context.Context, table, resource string, id uuid.UUID) (err error) {
	defer r.track(resource+"_deactivate")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET active = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		return mapError(err, resource, "deactivate")
	}
	return requireRow(res, resource)
}

func (r *BaseRepository) count(ctx context.Context, query, resource string, args ...interface{}) (int, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, mapError(err, resource, "count")
	}
	return n, nil
}
