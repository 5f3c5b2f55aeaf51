package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b IN (?, ?)"
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)", dialectPostgres.rebind(q))
	assert.Equal(t, q, dialectSQLite.rebind(q))
	assert.Equal(t, q, dialectMySQL.rebind(q))

	// Literals are not parsed, so a ? inside one is rewritten too.
	assert.Equal(t, "SELECT '$1' WHERE a = $2", dialectPostgres.rebind("SELECT '?' WHERE a = ?"))
}

func TestUpsertClause(t *testing.T) {
	conflict := []string{"item_def_id", "source", "currency"}
	cols := []string{"price", "captured_at"}

	assert.Equal(t,
		"ON CONFLICT (item_def_id, source, currency) DO UPDATE SET price = excluded.price, captured_at = excluded.captured_at",
		dialectSQLite.upsert(conflict, cols))
	assert.Equal(t,
		"ON CONFLICT (item_def_id, source, currency) DO UPDATE SET price = excluded.price, captured_at = excluded.captured_at, removed_at = NULL",
		dialectPostgres.upsert(conflict, cols, "removed_at = NULL"))
	assert.Equal(t,
		"ON DUPLICATE KEY UPDATE price = VALUES(price), captured_at = VALUES(captured_at)",
		dialectMySQL.upsert(conflict, cols))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "(?, ?, ?)", placeholders(3))
	assert.Equal(t, "(?)", placeholders(1))
	assert.Equal(t, "", placeholders(0))
}

func TestSQLiteTimestampsSortAsText(t *testing.T) {
	a := dialectSQLite.ts(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)).(string)
	b := dialectSQLite.ts(time.Date(2026, 1, 2, 3, 4, 5, 1000, time.UTC)).(string)
	assert.Equal(t, "2026-01-02T03:04:05.000000Z", a)
	assert.Less(t, a, b)
}

func TestDBTimeScan(t *testing.T) {
	var ts dbTime
	require.NoError(t, ts.Scan("2026-01-02T03:04:05.000006Z"))
	assert.True(t, ts.Valid)
	assert.Equal(t, 6000, ts.Time.Nanosecond())

	require.NoError(t, ts.Scan([]byte("2026-01-02 03:04:05")))
	assert.Equal(t, 2026, ts.Time.Year())

	require.NoError(t, ts.Scan(nil))
	assert.Nil(t, ts.ptr())

	assert.Error(t, ts.Scan(42))
	assert.Error(t, ts.Scan("yesterday"))
}

func TestPersistenceErrWraps(t *testing.T) {
	base := assert.AnError
	err := persistenceErr("apply prices", base)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "apply prices")
}

func TestMaxParamsFitsItemRow(t *testing.T) {
	for _, d := range []dialect{dialectSQLite, dialectPostgres, dialectMySQL} {
		assert.GreaterOrEqual(t, d.maxParams()/len(itemColumns), 1000, d.String())
	}
}
