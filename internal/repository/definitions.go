package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skinvault/internal/model"
)

// BackfillDefinitions creates a definition for every distinct item name and links items to it.
func (s *SQLStore) BackfillDefinitions(ctx context.Context) (model.BackfillResult, error) {
	var result model.BackfillResult

	// created_at comes from the server clock on postgres and mysql; an untyped
	// parameter in a SELECT list cannot be coerced to a timestamp there.
	var insert string
	var args []any
	switch s.dialect {
	case dialectPostgres:
		insert = `INSERT INTO item_defs (market_hash_name, created_at)
		SELECT DISTINCT market_hash_name, NOW() FROM inventory_items
		WHERE market_hash_name <> ''
		ON CONFLICT (market_hash_name) DO NOTHING`
	case dialectMySQL:
		insert = `INSERT IGNORE INTO item_defs (market_hash_name, created_at)
		SELECT DISTINCT market_hash_name, UTC_TIMESTAMP(6) FROM inventory_items
		WHERE market_hash_name <> ''`
	default:
		insert = `INSERT INTO item_defs (market_hash_name, created_at)
		SELECT DISTINCT market_hash_name, ? FROM inventory_items
		WHERE market_hash_name <> ''
		ON CONFLICT (market_hash_name) DO NOTHING`
		args = append(args, s.dialect.ts(time.Now()))
	}

	err := s.inTx(ctx, "backfill definitions", func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, insert, args...)
		if err != nil {
			return fmt.Errorf("failed to insert definitions: %w", err)
		}
		if result.Created, err = res.RowsAffected(); err != nil {
			return err
		}

		res, err = s.exec(ctx, tx, `UPDATE inventory_items
			SET item_def_id = (SELECT d.id FROM item_defs d WHERE d.market_hash_name = inventory_items.market_hash_name)
			WHERE item_def_id IS NULL
			AND EXISTS (SELECT 1 FROM item_defs d WHERE d.market_hash_name = inventory_items.market_hash_name)`)
		if err != nil {
			return fmt.Errorf("failed to link items: %w", err)
		}
		result.Linked, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return model.BackfillResult{}, err
	}

	s.log.WithField("created", result.Created).WithField("linked", result.Linked).Info("definitions backfilled")
	return result, nil
}

// lookupDefinitions maps names to definition ids in batches of bounded size.
func (s *SQLStore) lookupDefinitions(ctx context.Context, q sqlQueryer, names []string) (map[string]int64, error) {
	const batch = 500
	ids := make(map[string]int64, len(names))

	for start := 0; start < len(names); start += batch {
		end := min(start+batch, len(names))
		chunk := names[start:end]

		args := make([]any, len(chunk))
		for i, n := range chunk {
			args[i] = n
		}
		rows, err := s.query(ctx, q,
			"SELECT id, market_hash_name FROM item_defs WHERE market_hash_name IN "+placeholders(len(chunk)),
			args...)
		if err != nil {
			return nil, fmt.Errorf("failed to look up definitions: %w", err)
		}
		for rows.Next() {
			var id int64
			var name string
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan definition: %w", err)
			}
			ids[name] = id
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate definitions: %w", err)
		}
	}
	return ids, nil
}
