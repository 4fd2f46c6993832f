package cart

import (
	"context"
	"sync"
	"time"

	"food-cart/internal/logger"
)

const saveTimeout = 5 * time.Second

// Engine owns the canonical cart state. Commands are applied one at a time
// in the order Dispatch is called, and every change is written to the store
// before the next command runs so snapshots land in command order.
type Engine struct {
	mu      sync.Mutex
	state   *Aggregate
	reducer *Reducer
	store   Store
	logger  *logger.Logger
}

// NewEngine creates an engine holding an empty cart. store may be nil, in
// which case nothing is persisted.
func NewEngine(reducer *Reducer, store Store, log *logger.Logger) *Engine {
	return &Engine{
		state:   Empty(),
		reducer: reducer,
		store:   store,
		logger:  log,
	}
}

// Restore loads the stored snapshot. A missing or unreadable snapshot leaves
// the cart empty; the failure is logged, never returned.
func (e *Engine) Restore(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	requestID := logger.RequestIDFromContext(ctx)
	if e.store == nil {
		return
	}

	snapshot, err := e.store.LoadSnapshot(ctx)
	if err != nil {
		e.logger.Error("snapshot_restore_failed", "Failed to restore cart snapshot, starting empty", requestID, err, nil)
		e.state = Empty()
		return
	}
	if snapshot == nil {
		e.state = Empty()
		return
	}

	e.state, _ = e.reducer.Apply(e.state, LoadSnapshot{Snapshot: snapshot})
	e.logger.Info("snapshot_restored", "Restored cart snapshot", requestID, map[string]interface{}{
		"restaurants": len(e.state.Restaurants),
		"total_items": e.state.TotalItems,
	})
}

// Dispatch applies cmd and persists the result when the cart changed
func (e *Engine) Dispatch(ctx context.Context, cmd Command) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	requestID := logger.RequestIDFromContext(ctx)
	next, outcome := e.reducer.Apply(e.state, cmd)
	e.state = next

	e.logger.Debug("cart_command_applied", "Applied cart command", requestID, map[string]interface{}{
		"command":     cmd.Name(),
		"outcome":     string(outcome),
		"total_items": next.TotalItems,
		"grand_total": next.GrandTotal.String(),
	})

	if outcome.Changed() {
		e.persist(ctx, requestID)
	}
	return outcome
}

// persist writes the current state. Failures are logged and swallowed: the
// in-memory cart stays authoritative for the session.
func (e *Engine) persist(ctx context.Context, requestID string) {
	if e.store == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := e.store.SaveSnapshot(saveCtx, e.state); err != nil {
		e.logger.Error("snapshot_save_failed", "Failed to persist cart snapshot", requestID, err, nil)
	}
}

// Snapshot returns a deep copy of the current cart
func (e *Engine) Snapshot() *Aggregate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) AddItem(ctx context.Context, cmd AddItem) Outcome {
	return e.Dispatch(ctx, cmd)
}

func (e *Engine) RemoveItem(ctx context.Context, restaurantID, itemID string) Outcome {
	return e.Dispatch(ctx, RemoveItem{RestaurantID: restaurantID, ItemID: itemID})
}

func (e *Engine) UpdateQuantity(ctx context.Context, restaurantID, itemID string, quantity int) Outcome {
	return e.Dispatch(ctx, UpdateQuantity{RestaurantID: restaurantID, ItemID: itemID, Quantity: quantity})
}

func (e *Engine) ClearRestaurantCart(ctx context.Context, restaurantID string) Outcome {
	return e.Dispatch(ctx, ClearRestaurantCart{RestaurantID: restaurantID})
}

func (e *Engine) ClearAll(ctx context.Context) Outcome {
	return e.Dispatch(ctx, ClearAll{})
}

func (e *Engine) SetScheduledDelivery(ctx context.Context, restaurantID string, at time.Time) Outcome {
	return e.Dispatch(ctx, SetScheduledDelivery{RestaurantID: restaurantID, At: at})
}

func (e *Engine) EnableGroupOrder(ctx context.Context, name string, members []string) Outcome {
	return e.Dispatch(ctx, EnableGroupOrder{GroupName: name, Members: members})
}

func (e *Engine) DisableGroupOrder(ctx context.Context) Outcome {
	return e.Dispatch(ctx, DisableGroupOrder{})
}
