package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"skinvault/internal/logger"
	"skinvault/internal/model"
)

// PgxPriceStore reconciles prices on PostgreSQL with COPY and set-based joins,
// so the definition lookup happens inside the same statements as the writes.
type PgxPriceStore struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

var _ PriceStore = (*PgxPriceStore)(nil)

// NewPgxPriceStore opens a pgx pool. Tables are created by the SQL store sharing the database.
func NewPgxPriceStore(ctx context.Context, dsn string, maxConns int32, log logrus.FieldLogger) (*PgxPriceStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL DSN: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 4
	}
	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PgxPriceStore{pool: pool, log: logger.Component(log, "store.pgx")}, nil
}

var stageColumns = []string{"seq", "market_hash_name", "currency", "price", "extra"}

// ApplyPrices stages rows with COPY, then appends history and upserts current prices
// joined against item_defs. Everything runs in one transaction.
func (s *PgxPriceStore) ApplyPrices(ctx context.Context, source string, capturedAt time.Time, rows []model.PriceWrite) (model.PriceApplyResult, error) {
	var result model.PriceApplyResult
	if len(rows) == 0 {
		return result, nil
	}
	capturedAt = capturedAt.UTC().Truncate(time.Microsecond)

	staged := make([][]any, 0, len(rows))
	for i, r := range rows {
		var extra any
		if len(r.Extra) > 0 {
			extra = string(r.Extra)
		}
		staged = append(staged, []any{int64(i), r.Name, r.Currency, r.Price.String(), extra})
	}

	err := s.runInTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `CREATE TEMP TABLE price_stage (
			seq BIGINT NOT NULL,
			market_hash_name TEXT NOT NULL,
			currency TEXT NOT NULL,
			price TEXT NOT NULL,
			extra TEXT
		) ON COMMIT DROP`); err != nil {
			return fmt.Errorf("failed to create stage table: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"price_stage"}, stageColumns, pgx.CopyFromRows(staged)); err != nil {
			return fmt.Errorf("failed to copy prices: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO price_snapshots (item_def_id, source, currency, price, captured_at, extra)
			SELECT d.id, $1, s.currency, s.price::numeric, $2, s.extra::jsonb
			FROM price_stage s
			JOIN item_defs d ON d.market_hash_name = s.market_hash_name`,
			source, capturedAt)
		if err != nil {
			return fmt.Errorf("failed to insert snapshots: %w", err)
		}
		result.Snapshots = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `
			INSERT INTO prices_current_defs (item_def_id, source, currency, price, captured_at, extra, updated_at)
			SELECT DISTINCT ON (d.id, s.currency) d.id, $1, s.currency, s.price::numeric, $2, s.extra::jsonb, NOW()
			FROM price_stage s
			JOIN item_defs d ON d.market_hash_name = s.market_hash_name
			ORDER BY d.id, s.currency, s.seq DESC
			ON CONFLICT (item_def_id, source, currency) DO UPDATE SET
				price = EXCLUDED.price,
				captured_at = EXCLUDED.captured_at,
				extra = EXCLUDED.extra,
				updated_at = EXCLUDED.updated_at`,
			source, capturedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert current prices: %w", err)
		}
		result.Current = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return model.PriceApplyResult{}, persistenceErr("apply prices", describePgError(err))
	}

	s.log.WithFields(logrus.Fields{
		"staged":    len(rows),
		"snapshots": result.Snapshots,
		"current":   result.Current,
	}).Debug("prices applied")
	return result, nil
}

// Ping checks the pool.
func (s *PgxPriceStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PgxPriceStore) Close() {
	s.pool.Close()
}

func (s *PgxPriceStore) runInTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// describePgError keeps the server-side code and detail in the message.
func describePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Detail != "" {
		return fmt.Errorf("%w (sqlstate %s: %s)", err, pgErr.Code, pgErr.Detail)
	}
	return fmt.Errorf("%w (sqlstate %s)", err, pgErr.Code)
}
