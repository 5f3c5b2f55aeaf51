package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"skinvault/internal/config"
)

// Open connects the store selected by STORE_TYPE.
func Open(cfg config.StoreConfig, log logrus.FieldLogger) (*SQLStore, error) {
	switch strings.ToLower(cfg.Type) {
	case "sqlite", "":
		return NewSQLiteStore(cfg.Path, log)
	case "postgres", "postgresql":
		return NewPostgresStore(cfg.PostgresDSN(), cfg.MaxConns, log)
	case "mysql":
		return NewMySQLStore(cfg.MySQLDSN(), cfg.MaxConns, log)
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.Type)
	}
}

// OpenPriceStore returns the bulk pgx price store on PostgreSQL and the SQL store elsewhere.
// The returned close function releases anything opened here.
func OpenPriceStore(ctx context.Context, cfg config.StoreConfig, store *SQLStore, log logrus.FieldLogger) (PriceStore, func(), error) {
	if store.dialect != dialectPostgres {
		return store, func() {}, nil
	}
	pgx, err := NewPgxPriceStore(ctx, cfg.PostgresDSN(), int32(cfg.MaxConns), log)
	if err != nil {
		return nil, nil, err
	}
	return pgx, pgx.Close, nil
}
