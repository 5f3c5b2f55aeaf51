package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"skinvault/internal/logger"
)

// NewMySQLStore opens a MySQL store. The DSN must carry parseTime=true.
func NewMySQLStore(dsn string, maxConns int, log logrus.FieldLogger) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}
	db := sql.OpenDB(connector)

	if maxConns <= 0 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	entry := logger.Component(log, "store.mysql")
	store, err := newSQLStore(db, dialectMySQL, entry)
	if err != nil {
		return nil, err
	}
	entry.WithField("max_conns", maxConns).Info("store initialized")
	return store, nil
}
