package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skinvault/internal/model"
)

// ApplyPrices resolves every name with one batched lookup, then appends history and
// upserts current prices with prepared statements, all in one transaction.
func (s *SQLStore) ApplyPrices(ctx context.Context, source string, capturedAt time.Time, rows []model.PriceWrite) (model.PriceApplyResult, error) {
	var result model.PriceApplyResult
	if len(rows) == 0 {
		return result, nil
	}

	names := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		names = append(names, r.Name)
	}

	captured := s.dialect.ts(capturedAt)
	currentSQL := `INSERT INTO prices_current_defs (item_def_id, source, currency, price, captured_at, extra, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) ` +
		s.dialect.upsert([]string{"item_def_id", "source", "currency"},
			[]string{"price", "captured_at", "extra", "updated_at"})

	err := s.inTx(ctx, "apply prices", func(tx *sql.Tx) error {
		defs, err := s.lookupDefinitions(ctx, tx, names)
		if err != nil {
			return err
		}
		if len(defs) == 0 {
			return nil
		}

		snapStmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
			`INSERT INTO price_snapshots (item_def_id, source, currency, price, captured_at, extra)
			VALUES (?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("failed to prepare snapshot insert: %w", err)
		}
		defer snapStmt.Close()

		curStmt, err := tx.PrepareContext(ctx, s.dialect.rebind(currentSQL))
		if err != nil {
			return fmt.Errorf("failed to prepare current price upsert: %w", err)
		}
		defer curStmt.Close()

		for _, r := range rows {
			defID, ok := defs[r.Name]
			if !ok {
				continue
			}
			price := r.Price.String()
			extra := jsonArg(r.Extra)

			if _, err := snapStmt.ExecContext(ctx, defID, source, r.Currency, price, captured, extra); err != nil {
				return fmt.Errorf("failed to insert snapshot for %q: %w", r.Name, err)
			}
			if _, err := curStmt.ExecContext(ctx, defID, source, r.Currency, price, captured, extra, captured); err != nil {
				return fmt.Errorf("failed to upsert current price for %q: %w", r.Name, err)
			}
			result.Snapshots++
			result.Current++
		}
		return nil
	})
	if err != nil {
		return model.PriceApplyResult{}, err
	}
	return result, nil
}

// ListCurrentPrices returns current prices for one source, newest capture first.
func (s *SQLStore) ListCurrentPrices(ctx context.Context, source string, limit int) ([]model.CurrentPrice, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.query(ctx, s.db,
		`SELECT item_def_id, source, currency, price, captured_at, extra
		FROM prices_current_defs WHERE source = ?
		ORDER BY captured_at DESC, item_def_id LIMIT ?`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list current prices: %w", err)
	}
	defer rows.Close()

	out := make([]model.CurrentPrice, 0)
	for rows.Next() {
		var (
			p        model.CurrentPrice
			captured dbTime
			extra    sql.NullString
		)
		if err := rows.Scan(&p.ItemDefID, &p.Source, &p.Currency, &p.Price, &captured, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan current price: %w", err)
		}
		p.CapturedAt = captured.Time
		if extra.Valid {
			p.Extra = []byte(extra.String)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate current prices: %w", err)
	}
	return out, nil
}
