package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinvault/internal/cache"
	"skinvault/internal/config"
	"skinvault/internal/inventory"
	"skinvault/internal/lock"
	"skinvault/internal/logger"
	"skinvault/internal/model"
	"skinvault/internal/pricing"
	"skinvault/internal/repository"
)

type stubSession struct {
	items      []model.RawItem
	ready      bool
	containers map[string][]model.RawItem
}

func (s *stubSession) Inventory(ctx context.Context) ([]model.RawItem, bool, error) {
	return s.items, s.ready, nil
}

func (s *stubSession) ContainerContents(ctx context.Context, id string) ([]model.RawItem, error) {
	return s.containers[id], nil
}

func fastSync() config.SyncConfig {
	return config.SyncConfig{
		InventoryTimeout: 20 * time.Millisecond,
		InventoryPoll:    time.Millisecond,
		BatchSize:        500,
		LockTTL:          time.Minute,
	}
}

type fixture struct {
	store  *repository.SQLStore
	status *cache.StatusStore
	locker *lock.LocalLocker
	svc    *InventoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "svc.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })

	f := &fixture{
		store:  store,
		status: cache.NewStatusStore(mem, time.Hour),
		locker: lock.NewLocalLocker(),
	}
	cfg := fastSync()
	f.svc = NewInventoryService(
		inventory.NewExpander(cfg, log),
		inventory.NewWriter(store, cfg, log),
		f.locker, f.status, cfg.LockTTL, log,
	)
	return f
}

func TestInventoryService_SyncRecordsStatus(t *testing.T) {
	f := newFixture(t)
	sess := &stubSession{
		ready: true,
		items: []model.RawItem{
			{"id": "1", "def_index": 7, "sys_item_name": "weapon_ak47", "sys_skin_name": "redline", "paint_wear": 0.1},
			{"id": "2", "def_index": 1201, "casket_contained_item_count": 1},
		},
		containers: map[string][]model.RawItem{
			"2": {{"id": "3", "def_index": 9, "casket_id": "2", "market_hash_name": "AWP | Asiimov (Field-Tested)"}},
		},
	}

	res, err := f.svc.Sync(context.Background(), sess)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, model.ExpansionSummary{TotalItems: 3, ContainerCount: 1, ItemsInContainers: 1}, res.Expansion)
	assert.Equal(t, 3, res.Write.Upserted)

	items, err := f.store.ListItems(context.Background(), model.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "AK-47 | Redline (Minimal Wear)", items[0].MarketHashName)

	st, ok, err := f.status.Get(context.Background(), model.PipelineInventory)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.RunSucceeded, st.Outcome)
	assert.Equal(t, res.RunID, st.RunID)
	require.NotNil(t, st.Inventory)
	assert.Equal(t, 3, st.Inventory.Write.Upserted)
}

func TestInventoryService_FailedRunIsRecorded(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Sync(context.Background(), &stubSession{})
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrInventoryTimeout)

	st, ok, err := f.status.Get(context.Background(), model.PipelineInventory)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.RunFailed, st.Outcome)
	assert.Contains(t, st.Error, "timed out")
}

func TestInventoryService_BusyLock(t *testing.T) {
	f := newFixture(t)
	release, err := f.locker.Acquire(context.Background(), model.PipelineInventory, time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = f.svc.Sync(context.Background(), &stubSession{ready: true})
	assert.ErrorIs(t, err, lock.ErrBusy)

	_, err = f.svc.Expand(context.Background(), &stubSession{ready: true})
	assert.ErrorIs(t, err, lock.ErrBusy)

	_, ok, err := f.status.Get(context.Background(), model.PipelineInventory)
	require.NoError(t, err)
	assert.False(t, ok, "a refused run leaves no status")
}

func TestInventoryService_ExpandWritesNothing(t *testing.T) {
	f := newFixture(t)
	exp, err := f.svc.Expand(context.Background(), &stubSession{ready: true, items: []model.RawItem{{"id": "1", "def_index": 7}}})
	require.NoError(t, err)
	assert.Len(t, exp.Items, 1)

	items, err := f.store.ListItems(context.Background(), model.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

type stubFetcher struct {
	records []model.PriceRecord
	err     error
	query   model.PriceQuery
}

func (s *stubFetcher) Source() string { return "stub" }

func (s *stubFetcher) FetchPrices(ctx context.Context, q model.PriceQuery) (model.PriceListing, error) {
	s.query = q
	return model.PriceListing{Records: s.records, FetchedAt: time.Now()}, s.err
}

func TestPriceService_Refresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.UpsertItems(ctx, []model.InventoryItem{{ID: "1", DefIndex: 7, MarketHashName: "Known", Quantity: 1}}, time.Now()))
	_, err := f.store.BackfillDefinitions(ctx)
	require.NoError(t, err)

	fetcher := &stubFetcher{records: []model.PriceRecord{
		{Name: "Known", Currency: "EUR", Median: decimal.NewNullDecimal(decimal.NewFromInt(5))},
		{Name: "Unknown", Currency: "EUR", Median: decimal.NewNullDecimal(decimal.NewFromInt(9))},
	}}
	log := logger.Discard()
	svc := NewPriceService(pricing.NewReconciler(fetcher, f.store, log), model.PriceQuery{Currency: "EUR", Tradable: true},
		f.locker, f.status, time.Minute, log)

	res, err := svc.Refresh(ctx, model.PriceQuery{Tradable: true})
	require.NoError(t, err)
	assert.Equal(t, "EUR", fetcher.query.Currency, "empty currency takes the default")
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, int64(1), res.Updated)
	assert.NotEmpty(t, res.RunID)

	st, ok, err := f.status.Get(ctx, model.PipelinePrices)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, st.Prices)
	assert.Equal(t, int64(1), st.Prices.Updated)
}

func TestPriceService_FetchFailure(t *testing.T) {
	f := newFixture(t)
	fetcher := &stubFetcher{err: pricing.ErrNotAList}
	log := logger.Discard()
	svc := NewPriceService(pricing.NewReconciler(fetcher, f.store, log), model.PriceQuery{Currency: "EUR"},
		f.locker, f.status, time.Minute, log)

	_, err := svc.Refresh(context.Background(), model.PriceQuery{})
	assert.True(t, errors.Is(err, pricing.ErrNotAList))

	st, ok, err := f.status.Get(context.Background(), model.PipelinePrices)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.RunFailed, st.Outcome)
}
