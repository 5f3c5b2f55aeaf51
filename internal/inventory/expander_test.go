package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinvault/internal/logger"
	"skinvault/internal/model"
)

type fakeSession struct {
	inventory  []model.RawItem
	readyAfter int // Inventory calls that report "not populated" first
	present    bool
	invErr     error

	containers map[string][]model.RawItem
	failFirst  map[string]int

	invCalls int
	attempts map[string]int
	fetched  []string
}

func (f *fakeSession) Inventory(ctx context.Context) ([]model.RawItem, bool, error) {
	f.invCalls++
	if f.invErr != nil {
		return nil, false, f.invErr
	}
	if f.invCalls <= f.readyAfter || !f.present {
		return nil, false, nil
	}
	return f.inventory, true, nil
}

func (f *fakeSession) ContainerContents(ctx context.Context, id string) ([]model.RawItem, error) {
	if f.attempts == nil {
		f.attempts = map[string]int{}
	}
	f.attempts[id]++
	if f.attempts[id] <= f.failFirst[id] {
		return nil, errors.New("session busy")
	}
	f.fetched = append(f.fetched, id)
	return f.containers[id], nil
}

// fakeClock advances only when the expander sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestExpander(clock *fakeClock) *Expander {
	return &Expander{
		InventoryTimeout: 60 * time.Second,
		PollInterval:     500 * time.Millisecond,
		Throttle:         900 * time.Millisecond,
		Retries:          2,
		RetryDelay:       1200 * time.Millisecond,
		log:              logger.Component(logger.Discard(), "expander"),
		now:              clock.Now,
		sleep:            clock.Sleep,
	}
}

func baseWithContainer() []model.RawItem {
	return []model.RawItem{
		{"id": "1", "def_index": 7},
		{"id": "2", "def_index": 9},
		{"id": "100", "def_index": 1201, "casket_contained_item_count": 2},
	}
}

func TestExpand_EndToEndDedup(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	sess := &fakeSession{
		present:   true,
		inventory: baseWithContainer(),
		containers: map[string][]model.RawItem{
			"100": {
				{"id": "1", "def_index": 7, "casket_id": "100"},
				{"id": "2", "def_index": 9, "casket_id": "100"},
			},
		},
	}

	exp, err := newTestExpander(clock).Expand(context.Background(), sess)
	require.NoError(t, err)

	require.Len(t, exp.Items, 3)
	assert.Equal(t, model.ExpansionSummary{TotalItems: 3, ContainerCount: 1, ItemsInContainers: 2}, exp.Summary)
	assert.Empty(t, exp.FailedContainers)

	ids := make([]string, 0, len(exp.Items))
	for _, it := range exp.Items {
		id, _ := ItemID(it)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"1", "2", "100"}, ids, "first-seen order is kept")
	assert.Equal(t, "100", exp.Items[0]["casket_id"], "container version wins")
	assert.Equal(t, []time.Duration{900 * time.Millisecond}, clock.sleeps, "one throttle per container")
}

func TestExpand_RetriesWithFixedDelay(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	sess := &fakeSession{
		present:    true,
		inventory:  baseWithContainer(),
		containers: map[string][]model.RawItem{"100": {{"id": "55", "def_index": 7, "casket_id": "100"}}},
		failFirst:  map[string]int{"100": 2},
	}

	exp, err := newTestExpander(clock).Expand(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, 3, sess.attempts["100"])
	assert.Len(t, exp.Items, 4)
	assert.Equal(t, []time.Duration{
		1200 * time.Millisecond,
		1200 * time.Millisecond,
		900 * time.Millisecond,
	}, clock.sleeps)
}

func TestExpand_SkipsContainerAfterExhaustedRetries(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	base := append(baseWithContainer(), model.RawItem{"id": "200", "def_index": 1201, "casketContainedItemCount": "1"})
	sess := &fakeSession{
		present:    true,
		inventory:  base,
		containers: map[string][]model.RawItem{"200": {{"id": "201", "def_index": 7, "casket_id": "200"}}},
		failFirst:  map[string]int{"100": 10},
	}

	exp, err := newTestExpander(clock).Expand(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, 3, sess.attempts["100"], "first attempt plus two retries")
	assert.Equal(t, []string{"100"}, exp.FailedContainers)
	assert.Equal(t, []string{"200"}, sess.fetched, "later containers are still opened")
	assert.Len(t, exp.Items, 5)
	assert.Equal(t, 2, exp.Summary.ContainerCount)
	assert.Equal(t, 1, exp.Summary.ItemsInContainers)
}

func TestExpand_ContainerLimit(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	base := append(baseWithContainer(), model.RawItem{"id": "200", "def_index": 1201, "casket_contained_item_count": 4})
	sess := &fakeSession{present: true, inventory: base}

	e := newTestExpander(clock)
	e.ContainerLimit = 1
	_, err := e.Expand(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, []string{"100"}, sess.fetched)
}

func TestExpand_WaitsForSnapshot(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	sess := &fakeSession{present: true, inventory: []model.RawItem{{"id": "1", "def_index": 7}}, readyAfter: 3}

	exp, err := newTestExpander(clock).Expand(context.Background(), sess)
	require.NoError(t, err)

	assert.Len(t, exp.Items, 1)
	assert.Equal(t, 4, sess.invCalls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond}, clock.sleeps)
}

func TestExpand_TimeoutWhenSnapshotAbsent(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	sess := &fakeSession{present: false}

	_, err := newTestExpander(clock).Expand(context.Background(), sess)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInventoryTimeout)
	assert.True(t, clock.now.Equal(time.Unix(60, 0)), "gives up once the bound is reached")
}

func TestExpand_TimeoutKeepsLastSessionError(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	sess := &fakeSession{invErr: errors.New("bridge unreachable")}

	_, err := newTestExpander(clock).Expand(context.Background(), sess)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInventoryTimeout)
	assert.Contains(t, err.Error(), "bridge unreachable")
}

func TestExpand_EmptyButPresentIsAccepted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	sess := &fakeSession{present: true, inventory: []model.RawItem{}}

	exp, err := newTestExpander(clock).Expand(context.Background(), sess)
	require.NoError(t, err)
	assert.Empty(t, exp.Items)
	assert.Equal(t, model.ExpansionSummary{}, exp.Summary)
}

func TestExpand_Cancelled(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	sess := &fakeSession{present: false}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExpander(clock).Expand(ctx, sess)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.RawItem{
		{"id": "1", "casket_contained_item_count": 0},
		{"id": "2", "casket_contained_item_count": "3"},
		{"id": "3", "casketId": "2"},
		{"id": "4", "casket_id": nil},
	})
	assert.Equal(t, model.ExpansionSummary{TotalItems: 4, ContainerCount: 1, ItemsInContainers: 1}, s)
}
