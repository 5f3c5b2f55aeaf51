package repository

// Tables read and written by the pipelines. Statements are idempotent and run one by one.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id TEXT PRIMARY KEY,
		def_index INTEGER NOT NULL,
		paint_index INTEGER,
		market_hash_name TEXT NOT NULL,
		paint_wear REAL,
		prefab TEXT,
		image_path TEXT,
		sys_item_name TEXT,
		sys_skin_name TEXT,
		englishtoken TEXT,
		sticker_id INTEGER,
		casket_id TEXT,
		custom_name TEXT,
		category TEXT,
		skin_rarity TEXT,
		collection TEXT,
		currency TEXT,
		quantity INTEGER NOT NULL DEFAULT 1,
		tradable INTEGER,
		marketable INTEGER,
		raw TEXT,
		item_def_id INTEGER,
		first_seen_at TEXT NOT NULL,
		last_seen_at TEXT NOT NULL,
		removed_at TEXT,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_items_last_seen ON inventory_items(last_seen_at)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_items_name ON inventory_items(market_hash_name)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_items_casket ON inventory_items(casket_id)`,
	`CREATE TABLE IF NOT EXISTS item_defs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		market_hash_name TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS price_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_def_id INTEGER NOT NULL REFERENCES item_defs(id),
		source TEXT NOT NULL,
		currency TEXT NOT NULL,
		price TEXT NOT NULL,
		captured_at TEXT NOT NULL,
		extra TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_snapshots_def ON price_snapshots(item_def_id, captured_at)`,
	`CREATE TABLE IF NOT EXISTS prices_current_defs (
		item_def_id INTEGER NOT NULL REFERENCES item_defs(id),
		source TEXT NOT NULL,
		currency TEXT NOT NULL,
		price TEXT NOT NULL,
		captured_at TEXT NOT NULL,
		extra TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (item_def_id, source, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		scope TEXT NOT NULL,
		match_json TEXT NOT NULL,
		unit_price_eur TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		purchase_date TEXT,
		note TEXT,
		source TEXT,
		created_at TEXT NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id TEXT PRIMARY KEY,
		def_index BIGINT NOT NULL,
		paint_index BIGINT,
		market_hash_name TEXT NOT NULL,
		paint_wear DOUBLE PRECISION,
		prefab TEXT,
		image_path TEXT,
		sys_item_name TEXT,
		sys_skin_name TEXT,
		englishtoken TEXT,
		sticker_id BIGINT,
		casket_id TEXT,
		custom_name TEXT,
		category TEXT,
		skin_rarity TEXT,
		collection TEXT,
		currency TEXT,
		quantity BIGINT NOT NULL DEFAULT 1,
		tradable BOOLEAN,
		marketable BOOLEAN,
		raw JSONB,
		item_def_id BIGINT,
		first_seen_at TIMESTAMPTZ NOT NULL,
		last_seen_at TIMESTAMPTZ NOT NULL,
		removed_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_items_last_seen ON inventory_items(last_seen_at)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_items_name ON inventory_items(market_hash_name)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_items_casket ON inventory_items(casket_id)`,
	`CREATE TABLE IF NOT EXISTS item_defs (
		id BIGSERIAL PRIMARY KEY,
		market_hash_name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS price_snapshots (
		id BIGSERIAL PRIMARY KEY,
		item_def_id BIGINT NOT NULL REFERENCES item_defs(id),
		source TEXT NOT NULL,
		currency TEXT NOT NULL,
		price NUMERIC(14,4) NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL,
		extra JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_snapshots_def ON price_snapshots(item_def_id, captured_at)`,
	`CREATE TABLE IF NOT EXISTS prices_current_defs (
		item_def_id BIGINT NOT NULL REFERENCES item_defs(id),
		source TEXT NOT NULL,
		currency TEXT NOT NULL,
		price NUMERIC(14,4) NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL,
		extra JSONB,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (item_def_id, source, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		scope TEXT NOT NULL,
		match_json JSONB NOT NULL,
		unit_price_eur NUMERIC(14,4) NOT NULL,
		quantity INTEGER NOT NULL,
		purchase_date TIMESTAMPTZ,
		note TEXT,
		source TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		def_index BIGINT NOT NULL,
		paint_index BIGINT NULL,
		market_hash_name VARCHAR(255) NOT NULL,
		paint_wear DOUBLE NULL,
		prefab VARCHAR(255) NULL,
		image_path TEXT NULL,
		sys_item_name VARCHAR(255) NULL,
		sys_skin_name VARCHAR(255) NULL,
		englishtoken VARCHAR(255) NULL,
		sticker_id BIGINT NULL,
		casket_id VARCHAR(64) NULL,
		custom_name VARCHAR(255) NULL,
		category VARCHAR(128) NULL,
		skin_rarity VARCHAR(128) NULL,
		collection VARCHAR(255) NULL,
		currency VARCHAR(16) NULL,
		quantity BIGINT NOT NULL DEFAULT 1,
		tradable TINYINT(1) NULL,
		marketable TINYINT(1) NULL,
		raw JSON NULL,
		item_def_id BIGINT NULL,
		first_seen_at DATETIME(6) NOT NULL,
		last_seen_at DATETIME(6) NOT NULL,
		removed_at DATETIME(6) NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_inventory_items_last_seen (last_seen_at),
		INDEX idx_inventory_items_name (market_hash_name),
		INDEX idx_inventory_items_casket (casket_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS item_defs (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		market_hash_name VARCHAR(255) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_item_defs_name (market_hash_name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS price_snapshots (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		item_def_id BIGINT NOT NULL,
		source VARCHAR(64) NOT NULL,
		currency VARCHAR(16) NOT NULL,
		price DECIMAL(14,4) NOT NULL,
		captured_at DATETIME(6) NOT NULL,
		extra JSON NULL,
		INDEX idx_price_snapshots_def (item_def_id, captured_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS prices_current_defs (
		item_def_id BIGINT NOT NULL,
		source VARCHAR(64) NOT NULL,
		currency VARCHAR(16) NOT NULL,
		price DECIMAL(14,4) NOT NULL,
		captured_at DATETIME(6) NOT NULL,
		extra JSON NULL,
		updated_at DATETIME(6) NOT NULL,
		PRIMARY KEY (item_def_id, source, currency)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		scope VARCHAR(32) NOT NULL,
		match_json JSON NOT NULL,
		unit_price_eur DECIMAL(14,4) NOT NULL,
		quantity INT NOT NULL,
		purchase_date DATETIME(6) NULL,
		note TEXT NULL,
		source VARCHAR(255) NULL,
		created_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

func (d dialect) schema() []string {
	switch d {
	case dialectPostgres:
		return postgresSchema
	case dialectMySQL:
		return mysqlSchema
	default:
		return sqliteSchema
	}
}
