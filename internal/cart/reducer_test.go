package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-cart/internal/catalog"
	"food-cart/internal/models"
)

func testCatalog(t *testing.T) *catalog.Static {
	t.Helper()
	cat, err := catalog.New([]catalog.Restaurant{
		{
			ID:              "r1",
			Name:            "Bella Vista Pizza",
			DeliveryFee:     models.MustParseMoney("2.99"),
			DeliveryTimeMin: 25,
			DeliveryTimeMax: 35,
			Menu: []catalog.MenuItem{
				{ID: "i1", Name: "Margherita Pizza", Price: models.MustParseMoney("18.99")},
				{ID: "i2", Name: "Tiramisu", Price: models.MustParseMoney("8.99")},
			},
		},
		{
			ID:              "r2",
			Name:            "Burger Spot",
			DeliveryFee:     models.MustParseMoney("1.99"),
			DeliveryTimeMin: 15,
			DeliveryTimeMax: 25,
			Menu: []catalog.MenuItem{
				{ID: "i5", Name: "French Fries", Price: models.MustParseMoney("5.99")},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

func newTestReducer(t *testing.T) *Reducer {
	return NewReducer(testCatalog(t), DefaultRules())
}

// requireConsistent checks every derived-total invariant of a snapshot
func requireConsistent(t *testing.T, a *Aggregate) {
	t.Helper()
	var items int
	var grand models.Money
	for id, rc := range a.Restaurants {
		require.NotEmpty(t, rc.Lines, "restaurant cart %s has no lines", id)
		var sub models.Money
		for _, l := range rc.Lines {
			require.GreaterOrEqual(t, l.Quantity, 1)
			sub += l.UnitPrice.Mul(l.Quantity)
			items += l.Quantity
		}
		require.Equal(t, sub, rc.Subtotal, "subtotal of %s", id)
		grand += rc.Subtotal + rc.DeliveryFee + rc.ServiceFee
	}
	require.Equal(t, items, a.TotalItems)
	require.Equal(t, grand, a.GrandTotal)
}

func applyAll(t *testing.T, r *Reducer, cmds ...Command) (*Aggregate, []Outcome) {
	t.Helper()
	state := Empty()
	outcomes := make([]Outcome, 0, len(cmds))
	for _, cmd := range cmds {
		var outcome Outcome
		state, outcome = r.Apply(state, cmd)
		requireConsistent(t, state)
		outcomes = append(outcomes, outcome)
	}
	return state, outcomes
}

func TestReducer_Scenarios(t *testing.T) {
	r := newTestReducer(t)

	t.Run("re-adding merges into one line", func(t *testing.T) {
		state, _ := applyAll(t, r,
			AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 2},
			AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 3},
		)
		rc := state.Restaurants["r1"]
		require.Len(t, rc.Lines, 1)
		assert.Equal(t, 5, rc.Lines[0].Quantity)
		assert.Equal(t, models.MustParseMoney("18.99").Mul(5), rc.Subtotal)
	})

	t.Run("removing the last line removes the restaurant", func(t *testing.T) {
		state, _ := applyAll(t, r,
			AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 1},
			RemoveItem{RestaurantID: "r1", ItemID: "i1"},
		)
		assert.NotContains(t, state.Restaurants, "r1")
		assert.Zero(t, state.TotalItems)
		assert.Zero(t, state.GrandTotal)
	})

	t.Run("two restaurants", func(t *testing.T) {
		state, _ := applyAll(t, r,
			AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 1},
			AddItem{RestaurantID: "r2", ItemID: "i5", Quantity: 2},
		)
		require.Len(t, state.Restaurants, 2)
		assert.Equal(t, 3, state.TotalItems)
		// (18.99 + 2.99 + 2.99) + (11.98 + 1.99 + 2.99)
		assert.Equal(t, "41.93", state.GrandTotal.String())
	})

	t.Run("update to zero removes", func(t *testing.T) {
		state, outcomes := applyAll(t, r,
			AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 1},
			UpdateQuantity{RestaurantID: "r1", ItemID: "i1", Quantity: 0},
		)
		assert.NotContains(t, state.Restaurants, "r1")
		assert.Equal(t, OutcomeApplied, outcomes[1])
	})

	t.Run("update sets quantity exactly", func(t *testing.T) {
		state, _ := applyAll(t, r,
			AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 2},
			UpdateQuantity{RestaurantID: "r1", ItemID: "i1", Quantity: 1},
		)
		assert.Equal(t, 1, state.Restaurants["r1"].Lines[0].Quantity)
		assert.Equal(t, 1, state.TotalItems)
	})

	t.Run("clear all restores the initial state", func(t *testing.T) {
		state, _ := applyAll(t, r,
			AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 2},
			AddItem{RestaurantID: "r2", ItemID: "i5"},
			EnableGroupOrder{GroupName: "Office lunch", Members: []string{"Ana", "Bo"}},
			ClearAll{},
		)
		assert.Equal(t, Empty(), state)
	})
}

func TestReducer_AddItem(t *testing.T) {
	r := newTestReducer(t)
	delivery := time.Date(2026, 10, 18, 19, 0, 0, 0, time.UTC)

	state, outcomes := applyAll(t, r,
		AddItem{RestaurantID: "r1", ItemID: "i1", SpecialInstructions: "extra basil", ScheduledDelivery: &delivery},
		AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 1},
		AddItem{RestaurantID: "r1", ItemID: "i2", Quantity: 1},
	)
	assert.Equal(t, []Outcome{OutcomeAdded, OutcomeAdded, OutcomeAdded}, outcomes)

	rc := state.Restaurants["r1"]
	assert.Equal(t, "Bella Vista Pizza", rc.RestaurantName)
	assert.Equal(t, models.MustParseMoney("2.99"), rc.DeliveryFee)
	assert.Equal(t, DefaultRules().ServiceFee, rc.ServiceFee)
	assert.Equal(t, "25-35 min", rc.EstimatedDeliveryTime)
	require.NotNil(t, rc.ScheduledDelivery)
	assert.True(t, delivery.Equal(*rc.ScheduledDelivery))

	require.Len(t, rc.Lines, 2)
	assert.Equal(t, "i1", rc.Lines[0].ItemID)
	assert.Equal(t, "i2", rc.Lines[1].ItemID)
	assert.Equal(t, 2, rc.Lines[0].Quantity, "zero quantity defaults to one")
	assert.Equal(t, "extra basil", rc.Lines[0].SpecialInstructions, "empty instructions do not overwrite")

	state, _ = r.Apply(state, AddItem{RestaurantID: "r1", ItemID: "i1", SpecialInstructions: "no basil"})
	assert.Equal(t, "no basil", state.Restaurants["r1"].Lines[0].SpecialInstructions)
}

func TestReducer_AddItemUnknownIDs(t *testing.T) {
	r := newTestReducer(t)

	state, outcome := r.Apply(Empty(), AddItem{RestaurantID: "nope", ItemID: "i1"})
	assert.Equal(t, OutcomeRejectedUnknownRestaurant, outcome)
	assert.Equal(t, Empty(), state)

	state, outcome = r.Apply(Empty(), AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: -2})
	assert.Equal(t, OutcomeRejectedInvalidQuantity, outcome)
	assert.True(t, state.IsEmpty())

	state, outcome = r.Apply(Empty(), AddItem{RestaurantID: "r1", ItemID: "ghost", Quantity: 2})
	assert.Equal(t, OutcomeAddedWithFallback, outcome)
	requireConsistent(t, state)
	line := state.Restaurants["r1"].Lines[0]
	assert.Equal(t, "ghost", line.ItemID)
	assert.Equal(t, "Sample Item", line.ItemName)
	assert.Equal(t, models.MustParseMoney("12.99"), line.UnitPrice)
}

func TestReducer_RemoveItemIsIdempotent(t *testing.T) {
	r := newTestReducer(t)
	state, _ := applyAll(t, r,
		AddItem{RestaurantID: "r1", ItemID: "i1"},
		AddItem{RestaurantID: "r1", ItemID: "i2"},
	)

	once, outcome := r.Apply(state, RemoveItem{RestaurantID: "r1", ItemID: "i1"})
	assert.Equal(t, OutcomeApplied, outcome)
	twice, outcome := r.Apply(once, RemoveItem{RestaurantID: "r1", ItemID: "i1"})
	assert.Equal(t, OutcomeNoOp, outcome)
	assert.Equal(t, once, twice)

	_, outcome = r.Apply(state, RemoveItem{RestaurantID: "r9", ItemID: "i1"})
	assert.Equal(t, OutcomeNoOp, outcome)
}

func TestReducer_OrderMatters(t *testing.T) {
	r := newTestReducer(t)
	add := AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 2}
	update := UpdateQuantity{RestaurantID: "r1", ItemID: "i1", Quantity: 4}

	addThenUpdate, _ := applyAll(t, r, AddItem{RestaurantID: "r1", ItemID: "i1"}, add, update)
	updateThenAdd, _ := applyAll(t, r, AddItem{RestaurantID: "r1", ItemID: "i1"}, update, add)

	assert.Equal(t, 4, addThenUpdate.TotalItems)
	assert.Equal(t, 6, updateThenAdd.TotalItems)
}

func TestReducer_NoOps(t *testing.T) {
	r := newTestReducer(t)
	state, _ := applyAll(t, r, AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 2})

	tests := []struct {
		name string
		cmd  Command
	}{
		{name: "update unknown restaurant", cmd: UpdateQuantity{RestaurantID: "r2", ItemID: "i5", Quantity: 3}},
		{name: "update unknown line", cmd: UpdateQuantity{RestaurantID: "r1", ItemID: "i2", Quantity: 3}},
		{name: "update to same quantity", cmd: UpdateQuantity{RestaurantID: "r1", ItemID: "i1", Quantity: 2}},
		{name: "clear absent restaurant", cmd: ClearRestaurantCart{RestaurantID: "r2"}},
		{name: "schedule absent restaurant", cmd: SetScheduledDelivery{RestaurantID: "r2", At: time.Now()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, outcome := r.Apply(state, tt.cmd)
			assert.Equal(t, OutcomeNoOp, outcome)
			assert.Same(t, state, next)
		})
	}
}

func TestReducer_ClearRestaurantCart(t *testing.T) {
	r := newTestReducer(t)
	state, _ := applyAll(t, r,
		AddItem{RestaurantID: "r1", ItemID: "i1"},
		AddItem{RestaurantID: "r2", ItemID: "i5", Quantity: 3},
		ClearRestaurantCart{RestaurantID: "r1"},
	)
	assert.Equal(t, []string{"r2"}, state.RestaurantIDs())
	assert.Equal(t, 3, state.TotalItems)
}

func TestReducer_ScheduleAndGroupOrderLeaveTotalsAlone(t *testing.T) {
	r := newTestReducer(t)
	at := time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC)

	before, _ := applyAll(t, r, AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 2})
	after, _ := applyAll(t, r,
		AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 2},
		SetScheduledDelivery{RestaurantID: "r1", At: at},
		EnableGroupOrder{GroupName: "Team", Members: []string{"Ana"}},
	)

	assert.Equal(t, before.GrandTotal, after.GrandTotal)
	assert.Equal(t, before.TotalItems, after.TotalItems)
	assert.Equal(t, at, *after.Restaurants["r1"].ScheduledDelivery)
	assert.True(t, after.GroupOrderEnabled)
	assert.Equal(t, "Team", after.GroupOrderName)
	assert.Equal(t, []string{"Ana"}, after.GroupOrderMembers)

	disabled, _ := r.Apply(after, DisableGroupOrder{})
	assert.False(t, disabled.GroupOrderEnabled)
	assert.Empty(t, disabled.GroupOrderName)
	assert.Nil(t, disabled.GroupOrderMembers)
}

func TestReducer_ApplyDoesNotMutatePrevious(t *testing.T) {
	r := newTestReducer(t)
	first, _ := r.Apply(Empty(), AddItem{RestaurantID: "r1", ItemID: "i1"})
	kept := first.Clone()

	_, _ = r.Apply(first, AddItem{RestaurantID: "r1", ItemID: "i1", Quantity: 4})
	_, _ = r.Apply(first, RemoveItem{RestaurantID: "r1", ItemID: "i1"})
	_, _ = r.Apply(first, ClearAll{})

	assert.Equal(t, kept, first)
}

func TestReducer_LoadSnapshotNormalizes(t *testing.T) {
	r := newTestReducer(t)
	local := time.FixedZone("EST", -5*3600)
	at := time.Date(2026, 10, 18, 14, 0, 0, 0, local)

	stored := &Aggregate{
		Restaurants: map[string]*RestaurantCart{
			"r1": {
				RestaurantName: "Bella Vista Pizza",
				DeliveryFee:    299,
				ServiceFee:     299,
				Subtotal:       1, // stale
				Lines: []Line{
					{ItemID: "i1", ItemName: "Margherita Pizza", UnitPrice: 1899, Quantity: 1},
					{ItemID: "i1", ItemName: "Margherita Pizza", UnitPrice: 1899, Quantity: 2},
					{ItemID: "i2", ItemName: "Tiramisu", UnitPrice: 899, Quantity: 0},
				},
				ScheduledDelivery: &at,
			},
			"r2":   {RestaurantName: "Burger Spot", DeliveryFee: 199, ServiceFee: 299},
			"gone": nil,
		},
		TotalItems:        42,
		GrandTotal:        7,
		GroupOrderMembers: []string{},
	}

	state, outcome := r.Apply(Empty(), LoadSnapshot{Snapshot: stored})
	assert.Equal(t, OutcomeApplied, outcome)
	requireConsistent(t, state)

	assert.Equal(t, []string{"r1"}, state.RestaurantIDs())
	rc := state.Restaurants["r1"]
	assert.Equal(t, "r1", rc.RestaurantID)
	require.Len(t, rc.Lines, 1)
	assert.Equal(t, 3, rc.Lines[0].Quantity)
	assert.Equal(t, time.UTC, rc.ScheduledDelivery.Location())
	assert.True(t, at.Equal(*rc.ScheduledDelivery))
	assert.Nil(t, state.GroupOrderMembers)

	// the caller's snapshot is left untouched
	assert.Len(t, stored.Restaurants["r1"].Lines, 3)

	empty, _ := r.Apply(state, LoadSnapshot{})
	assert.Equal(t, Empty(), empty)
}
