package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-cart/internal/logger"
	"food-cart/internal/storage"
)

// memoryKV is an in-test storage.KV
type memoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
	puts   int
	putErr error
	getErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: make(map[string][]byte)}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

func (m *memoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.values[key] = value
	return nil
}

func (m *memoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func newTestEngine(t *testing.T, kv storage.KV) *Engine {
	t.Helper()
	return NewEngine(newTestReducer(t), NewKVStore(kv, ""), logger.Discard())
}

func TestEngine_PersistsChanges(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	engine := newTestEngine(t, kv)

	assert.Equal(t, OutcomeAdded, engine.AddItem(ctx, AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 2}))
	assert.Equal(t, 1, kv.puts)

	assert.Equal(t, OutcomeNoOp, engine.RemoveItem(ctx, "r1", "missing"))
	assert.Equal(t, OutcomeRejectedUnknownRestaurant, engine.AddItem(ctx, AddItem{RestaurantID: "zz", ItemID: "i1"}))
	assert.Equal(t, 1, kv.puts, "no-ops are not persisted")

	assert.Equal(t, OutcomeApplied, engine.UpdateQuantity(ctx, "r1", "i1", 3))
	assert.Equal(t, 2, kv.puts)

	stored, err := Decode(kv.values[DefaultSnapshotKey])
	require.NoError(t, err)
	assert.Equal(t, engine.Snapshot(), stored)
}

func TestEngine_SaveFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	kv.putErr = errors.New("quota exceeded")
	engine := newTestEngine(t, kv)

	assert.Equal(t, OutcomeAdded, engine.AddItem(ctx, AddItem{RestaurantID: "r1", ItemID: "i1"}))
	assert.Equal(t, 1, engine.Snapshot().TotalItems)
	assert.Empty(t, kv.values)
}

func TestEngine_RestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	first := newTestEngine(t, kv)

	at := time.Date(2026, 10, 18, 19, 0, 0, 0, time.UTC)
	first.AddItem(ctx, AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 2, SpecialInstructions: "well done", ScheduledDelivery: &at})
	first.AddItem(ctx, AddItem{RestaurantID: "r2", ItemID: "i5"})
	first.AddItem(ctx, AddItem{RestaurantID: "r1", ItemID: "ghost"})
	first.SetScheduledDelivery(ctx, "r2", at.Add(time.Hour))
	first.EnableGroupOrder(ctx, "Office lunch", []string{"Ana", "Bo"})

	second := newTestEngine(t, kv)
	second.Restore(ctx)

	restored := second.Snapshot()
	assert.Equal(t, first.Snapshot(), restored)
	require.NotNil(t, restored.Restaurants["r1"].Lines[0].ScheduledDelivery)
	assert.True(t, at.Equal(*restored.Restaurants["r1"].Lines[0].ScheduledDelivery))
}

func TestEngine_RestoreFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		engine := newTestEngine(t, newMemoryKV())
		engine.Restore(ctx)
		assert.Equal(t, Empty(), engine.Snapshot())
	})

	t.Run("corrupt", func(t *testing.T) {
		kv := newMemoryKV()
		kv.values[DefaultSnapshotKey] = []byte(`{"restaurant_carts": [`)
		engine := newTestEngine(t, kv)
		engine.Restore(ctx)
		assert.Equal(t, Empty(), engine.Snapshot())
	})

	t.Run("store unavailable", func(t *testing.T) {
		kv := newMemoryKV()
		kv.getErr = errors.New("connection refused")
		engine := newTestEngine(t, kv)
		engine.Restore(ctx)
		assert.Equal(t, Empty(), engine.Snapshot())
	})

	t.Run("no store", func(t *testing.T) {
		engine := NewEngine(newTestReducer(t), nil, logger.Discard())
		engine.Restore(ctx)
		assert.Equal(t, OutcomeAdded, engine.AddItem(ctx, AddItem{RestaurantID: "r1", ItemID: "i1"}))
	})
}

func TestEngine_RestoreRecomputesTotals(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	kv.values[DefaultSnapshotKey] = []byte(`{
		"restaurant_carts": {
			"r1": {
				"restaurant_name": "Bella Vista Pizza",
				"lines": [{"item_id": "i1", "item_name": "Margherita Pizza", "unit_price": 1899, "quantity": 2}],
				"subtotal": 5,
				"delivery_fee": 299,
				"service_fee": 299
			}
		},
		"total_items": 99,
		"grand_total": 1
	}`)

	engine := newTestEngine(t, kv)
	engine.Restore(ctx)

	snapshot := engine.Snapshot()
	assert.Equal(t, 2, snapshot.TotalItems)
	assert.Equal(t, "43.96", snapshot.GrandTotal.String())
}

func TestEngine_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, newMemoryKV())
	engine.AddItem(ctx, AddItem{RestaurantID: "r1", ItemID: "i1"})

	snapshot := engine.Snapshot()
	snapshot.Restaurants["r1"].Lines[0].Quantity = 100
	delete(snapshot.Restaurants, "r1")

	assert.Equal(t, 1, engine.Snapshot().TotalItems)
	assert.Equal(t, 1, engine.Snapshot().Restaurants["r1"].Lines[0].Quantity)
}

func TestEngine_ConcurrentDispatchKeepsInvariants(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, newMemoryKV())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.AddItem(ctx, AddItem{RestaurantID: "r1", ItemID: "i1"})
			engine.AddItem(ctx, AddItem{RestaurantID: "r2", ItemID: "i5"})
		}()
	}
	wg.Wait()

	snapshot := engine.Snapshot()
	requireConsistent(t, snapshot)
	assert.Equal(t, 100, snapshot.TotalItems)
}
