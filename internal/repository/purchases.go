package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skinvault/internal/model"
	"skinvault/pkg/uid"
)

// CreatePurchase stores a purchase entry, assigning id and created_at when empty.
func (s *SQLStore) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	if p.ID == "" {
		p.ID = uid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	_, err := s.exec(ctx, s.db,
		`INSERT INTO purchases (id, scope, match_json, unit_price_eur, quantity, purchase_date, note, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Scope, string(p.Match), p.UnitPriceEUR.String(), p.Quantity,
		s.dialect.nullTS(p.Date), nullable(p.Note), nullable(p.Source), s.dialect.ts(p.CreatedAt))
	if err != nil {
		return persistenceErr("create purchase", err)
	}
	return nil
}

// ListPurchases returns entries newest first by purchase date, falling back to creation time.
func (s *SQLStore) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT id, scope, match_json, unit_price_eur, quantity, purchase_date, note, source, created_at
		FROM purchases
		ORDER BY COALESCE(purchase_date, created_at) DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []model.Purchase{}
	for rows.Next() {
		var (
			p             model.Purchase
			match         string
			note, source  sql.NullString
			date, created dbTime
		)
		if err := rows.Scan(&p.ID, &p.Scope, &match, &p.UnitPriceEUR, &p.Quantity, &date, &note, &source, &created); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		p.Match = []byte(match)
		p.Date = date.ptr()
		p.Note = strPtr(note)
		p.Source = strPtr(source)
		p.CreatedAt = created.Time
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}
	return purchases, nil
}
