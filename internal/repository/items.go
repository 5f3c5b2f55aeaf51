package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"skinvault/internal/model"
)

// itemColumns are written on every upsert, in argument order.
var itemColumns = []string{
	"id", "def_index", "paint_index", "market_hash_name",
	"paint_wear", "prefab", "image_path",
	"sys_item_name", "sys_skin_name", "englishtoken",
	"sticker_id",
	"casket_id", "custom_name",
	"category", "skin_rarity", "collection", "currency",
	"quantity", "tradable", "marketable",
	"raw",
	"first_seen_at", "last_seen_at", "removed_at", "updated_at",
}

// itemMutable are refreshed when the row already exists. first_seen_at is never touched.
var itemMutable = []string{
	"def_index", "paint_index", "market_hash_name",
	"paint_wear", "prefab", "image_path",
	"sys_item_name", "sys_skin_name", "englishtoken",
	"sticker_id",
	"casket_id", "custom_name",
	"category", "skin_rarity", "collection", "currency",
	"quantity", "tradable", "marketable",
	"raw",
	"last_seen_at", "updated_at",
}

func (s *SQLStore) itemUpsertSQL(rows int) string {
	row := placeholders(len(itemColumns))
	values := make([]string, rows)
	for i := range values {
		values[i] = row
	}
	return fmt.Sprintf("INSERT INTO inventory_items (%s) VALUES %s %s",
		strings.Join(itemColumns, ", "),
		strings.Join(values, ", "),
		s.dialect.upsert([]string{"id"}, itemMutable, "removed_at = NULL"),
	)
}

// UpsertItems writes one chunk inside one transaction. The chunk is split into as few
// multi-row statements as the backend's parameter limit allows.
func (s *SQLStore) UpsertItems(ctx context.Context, items []model.InventoryItem, seenAt time.Time) error {
	if len(items) == 0 {
		return nil
	}

	seen := s.dialect.ts(seenAt)
	perStmt := s.dialect.maxParams() / len(itemColumns)
	return s.inTx(ctx, "upsert items", func(tx *sql.Tx) error {
		for start := 0; start < len(items); start += perStmt {
			part := items[start:min(start+perStmt, len(items))]
			args := make([]any, 0, len(part)*len(itemColumns))
			for _, it := range part {
				args = append(args,
					it.ID, it.DefIndex, nullable(it.PaintIndex), it.MarketHashName,
					nullable(it.PaintWear), nullable(it.Prefab), nullable(it.ImagePath),
					nullable(it.SysItemName), nullable(it.SysSkinName), nullable(it.EnglishToken),
					nullable(it.StickerID),
					nullable(it.CasketID), nullable(it.CustomName),
					nullable(it.Category), nullable(it.SkinRarity), nullable(it.Collection), nullable(it.Currency),
					it.Quantity, nullable(it.Tradable), nullable(it.Marketable),
					jsonArg(it.Raw),
					seen, seen, nil, seen,
				)
			}
			if _, err := s.exec(ctx, tx, s.itemUpsertSQL(len(part)), args...); err != nil {
				return fmt.Errorf("failed to upsert %d items: %w", len(items), err)
			}
		}
		return nil
	})
}

// RetireMissing flags rows that were not part of the snapshot taken at seenAt.
func (s *SQLStore) RetireMissing(ctx context.Context, seenAt, removedAt time.Time) (int64, error) {
	var retired int64
	err := s.inTx(ctx, "retire items", func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx,
			`UPDATE inventory_items SET removed_at = ?, updated_at = ?
			WHERE last_seen_at < ? AND removed_at IS NULL`,
			s.dialect.ts(removedAt), s.dialect.ts(removedAt), s.dialect.ts(seenAt))
		if err != nil {
			return fmt.Errorf("failed to retire items: %w", err)
		}
		retired, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return retired, nil
}

const itemSelect = `SELECT id, def_index, paint_index, market_hash_name,
	paint_wear, prefab, image_path, sys_item_name, sys_skin_name, englishtoken,
	sticker_id, casket_id, custom_name, category, skin_rarity, collection, currency,
	quantity, tradable, marketable, raw, item_def_id,
	first_seen_at, last_seen_at, removed_at
	FROM inventory_items`

// ListItems returns items ordered by id. Removed items are hidden unless requested.
func (s *SQLStore) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.InventoryItem, error) {
	var where []string
	var args []any
	if !filter.IncludeRemoved {
		where = append(where, "removed_at IS NULL")
	}
	if filter.CasketID != "" {
		where = append(where, "casket_id = ?")
		args = append(args, filter.CasketID)
	}

	query := itemSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]model.InventoryItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func scanItem(rows *sql.Rows) (model.InventoryItem, error) {
	var (
		it                                      model.InventoryItem
		paintIndex, stickerID, itemDefID        sql.NullInt64
		paintWear                               sql.NullFloat64
		prefab, imagePath, sysItem, sysSkin     sql.NullString
		token, casket, custom, category, rarity sql.NullString
		collection, currency, raw               sql.NullString
		tradable, marketable                    sql.NullBool
		firstSeen, lastSeen, removed            dbTime
	)
	err := rows.Scan(
		&it.ID, &it.DefIndex, &paintIndex, &it.MarketHashName,
		&paintWear, &prefab, &imagePath, &sysItem, &sysSkin, &token,
		&stickerID, &casket, &custom, &category, &rarity, &collection, &currency,
		&it.Quantity, &tradable, &marketable, &raw, &itemDefID,
		&firstSeen, &lastSeen, &removed,
	)
	if err != nil {
		return model.InventoryItem{}, fmt.Errorf("failed to scan item: %w", err)
	}

	it.PaintIndex = intPtr(paintIndex)
	it.StickerID = intPtr(stickerID)
	it.ItemDefID = intPtr(itemDefID)
	if paintWear.Valid {
		it.PaintWear = &paintWear.Float64
	}
	it.Prefab = strPtr(prefab)
	it.ImagePath = strPtr(imagePath)
	it.SysItemName = strPtr(sysItem)
	it.SysSkinName = strPtr(sysSkin)
	it.EnglishToken = strPtr(token)
	it.CasketID = strPtr(casket)
	it.CustomName = strPtr(custom)
	it.Category = strPtr(category)
	it.SkinRarity = strPtr(rarity)
	it.Collection = strPtr(collection)
	it.Currency = strPtr(currency)
	if tradable.Valid {
		it.Tradable = &tradable.Bool
	}
	if marketable.Valid {
		it.Marketable = &marketable.Bool
	}
	if raw.Valid {
		it.Raw = []byte(raw.String)
	}
	it.FirstSeenAt = firstSeen.Time
	it.LastSeenAt = lastSeen.Time
	it.RemovedAt = removed.ptr()
	return it, nil
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
