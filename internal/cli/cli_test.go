package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinvault/internal/config"
	"skinvault/internal/model"
)

const snapshotInventory = `[
	{"id": "1", "def_index": 7, "sys_item_name": "weapon_ak47", "sys_skin_name": "redline", "paint_wear": 0.1},
	{"id": "2", "def_index": 1201, "casket_contained_item_count": 1}
]`

const snapshotContainer = `[
	{"id": "3", "def_index": 9, "casket_id": "2", "market_hash_name": "AWP | Asiimov (Field-Tested)"}
]`

type env struct {
	dbPath      string
	snapshotDir string
	priceURL    string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	snap := filepath.Join(dir, "snapshot")
	require.NoError(t, os.MkdirAll(filepath.Join(snap, "containers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(snap, "inventory.json"), []byte(snapshotInventory), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(snap, "containers", "2.json"), []byte(snapshotContainer), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"market_hash_name": "AK-47 | Redline (Minimal Wear)", "currency": %q, "suggested_price": 12.5},
			{"market_hash_name": "Not Owned", "currency": %q, "median_price": 1}
		]`, r.URL.Query().Get("currency"), r.URL.Query().Get("currency"))
	}))
	t.Cleanup(srv.Close)

	return &env{dbPath: filepath.Join(dir, "worker.db"), snapshotDir: snap, priceURL: srv.URL}
}

func (e *env) load() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Store.Type = "sqlite"
	cfg.Cache.Type = "memory"
	cfg.Session.Type = "file"
	cfg.Session.SnapshotDir = e.snapshotDir
	cfg.Sync.InventoryPoll = time.Millisecond
	cfg.Sync.ContainerThrottle = 0
	cfg.Sync.ContainerRetryDelay = 0
	cfg.Price.SourceURL = e.priceURL
	cfg.App.LogLevel = "error"
	return cfg, nil
}

// run executes one command and decodes its JSON output into out.
func (e *env) run(t *testing.T, out any, args ...string) error {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&RootOptions{Load: e.load})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--format", "json", "--db", e.dbPath}, args...))

	if err := cmd.Execute(); err != nil {
		return err
	}
	if out != nil {
		require.NoError(t, json.Unmarshal(stdout.Bytes(), out), stdout.String())
	}
	return nil
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "skinvault-worker", cmd.Use)

	for _, name := range []string{"fetch-inv", "sync-db", "prices-update", "defs-backfill", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	for _, name := range []string{"store", "db", "session", "snapshot-dir", "bridge-url"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	e := newEnv(t)
	cmd := newRootCommand(&RootOptions{Load: e.load})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml", "migrate"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMigrate(t *testing.T) {
	e := newEnv(t)
	var out map[string]string
	require.NoError(t, e.run(t, &out, "migrate"))
	assert.Equal(t, "migrated", out["status"])
	assert.Equal(t, "sqlite", out["backend"])
}

func TestFetchInventoryWritesNothing(t *testing.T) {
	e := newEnv(t)
	var out struct {
		Summary model.ExpansionSummary `json:"summary"`
	}
	require.NoError(t, e.run(t, &out, "fetch-inv"))
	assert.Equal(t, model.ExpansionSummary{TotalItems: 3, ContainerCount: 1, ItemsInContainers: 1}, out.Summary)

	var backfill model.BackfillResult
	require.NoError(t, e.run(t, &backfill, "defs-backfill"))
	assert.Zero(t, backfill.Created, "fetch-inv must not persist items")
}

func TestFetchInventoryContainerLimit(t *testing.T) {
	e := newEnv(t)
	var out struct {
		Summary model.ExpansionSummary `json:"summary"`
	}
	require.NoError(t, e.run(t, &out, "fetch-inv", "--container-limit", "0"))
	assert.Equal(t, 3, out.Summary.TotalItems)
}

func TestSyncBackfillAndPrices(t *testing.T) {
	e := newEnv(t)

	var synced model.InventorySyncResult
	require.NoError(t, e.run(t, &synced, "sync-db", "--batch-size", "2"))
	assert.NotEmpty(t, synced.RunID)
	assert.Equal(t, 3, synced.Write.Upserted)
	assert.Equal(t, 0, synced.Write.Skipped)

	var backfill model.BackfillResult
	require.NoError(t, e.run(t, &backfill, "defs-backfill"))
	assert.Equal(t, int64(3), backfill.Created)
	assert.Equal(t, int64(3), backfill.Linked)

	var prices model.PriceRefreshResult
	require.NoError(t, e.run(t, &prices, "prices-update", "--currency", "usd"))
	assert.Equal(t, "skinport", prices.Source)
	assert.Equal(t, 2, prices.Fetched)
	assert.Equal(t, int64(1), prices.Updated)
	assert.Equal(t, int64(1), prices.Snapshots)
}

func TestSyncWithoutSnapshotFails(t *testing.T) {
	e := newEnv(t)
	err := e.run(t, nil, "sync-db", "--snapshot-dir", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
