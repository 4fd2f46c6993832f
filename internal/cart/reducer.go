package cart

import (
	"time"

	"food-cart/internal/catalog"
	"food-cart/internal/models"
)

// Outcome reports what a command did to the cart
type Outcome string

const (
	OutcomeAdded                     Outcome = "added"
	OutcomeAddedWithFallback         Outcome = "added_with_fallback"
	OutcomeRejectedUnknownRestaurant Outcome = "rejected_unknown_restaurant"
	OutcomeRejectedInvalidQuantity   Outcome = "rejected_invalid_quantity"
	OutcomeApplied                   Outcome = "applied"
	OutcomeNoOp                      Outcome = "no_op"
)

// Changed reports whether the command produced a new snapshot
func (o Outcome) Changed() bool {
	switch o {
	case OutcomeAdded, OutcomeAddedWithFallback, OutcomeApplied:
		return true
	default:
		return false
	}
}

// Catalog resolves restaurants and menu items at add time
type Catalog interface {
	FindRestaurant(id string) (catalog.Restaurant, bool)
	FindMenuItem(restaurantID, itemID string) (catalog.MenuItem, bool)
}

// Rules are the pricing constants applied by the reducer
type Rules struct {
	ServiceFee        models.Money
	FallbackItemName  string
	FallbackItemPrice models.Money
}

func DefaultRules() Rules {
	return Rules{
		ServiceFee:        models.MustParseMoney("2.99"),
		FallbackItemName:  "Sample Item",
		FallbackItemPrice: models.MustParseMoney("12.99"),
	}
}

// Reducer computes the next cart state from the previous one and a command.
type Reducer struct {
	catalog Catalog
	rules   Rules
}

func NewReducer(cat Catalog, rules Rules) *Reducer {
	return &Reducer{catalog: cat, rules: rules}
}

// Apply returns the state produced by cmd. prev is never modified; when the
// command changes nothing prev itself is returned.
func (r *Reducer) Apply(prev *Aggregate, cmd Command) (*Aggregate, Outcome) {
	if prev == nil {
		prev = Empty()
	}
	next := prev.Clone()
	outcome := cmd.apply(r, next)
	if !outcome.Changed() {
		return prev, outcome
	}
	return next, outcome
}

// Command is a cart mutation
type Command interface {
	Name() string
	apply(r *Reducer, a *Aggregate) Outcome
}

// AddItem adds Quantity of an item, merging into an existing line for the
// same (restaurant, item). A zero Quantity means 1.
type AddItem struct {
	RestaurantID        string
	ItemID              string
	Quantity            int
	SpecialInstructions string
	ScheduledDelivery   *time.Time
}

func (AddItem) Name() string { return "add_item" }

func (c AddItem) apply(r *Reducer, a *Aggregate) Outcome {
	quantity := c.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return OutcomeRejectedInvalidQuantity
	}

	restaurant, ok := r.catalog.FindRestaurant(c.RestaurantID)
	if !ok {
		return OutcomeRejectedUnknownRestaurant
	}

	outcome := OutcomeAdded
	item, ok := r.catalog.FindMenuItem(c.RestaurantID, c.ItemID)
	if !ok {
		// Voice-driven adds may reference items the catalog does not know yet.
		item = catalog.MenuItem{
			ID:    c.ItemID,
			Name:  r.rules.FallbackItemName,
			Price: r.rules.FallbackItemPrice,
		}
		outcome = OutcomeAddedWithFallback
	}

	rc, ok := a.Restaurants[c.RestaurantID]
	if !ok {
		rc = &RestaurantCart{
			RestaurantID:          restaurant.ID,
			RestaurantName:        restaurant.Name,
			DeliveryFee:           restaurant.DeliveryFee,
			ServiceFee:            r.rules.ServiceFee,
			EstimatedDeliveryTime: restaurant.EstimatedDeliveryTime(),
			ScheduledDelivery:     cloneTime(c.ScheduledDelivery),
		}
		a.Restaurants[c.RestaurantID] = rc
	}

	if i := rc.lineIndex(c.ItemID); i >= 0 {
		rc.Lines[i].Quantity += quantity
		if c.SpecialInstructions != "" {
			rc.Lines[i].SpecialInstructions = c.SpecialInstructions
		}
	} else {
		rc.Lines = append(rc.Lines, Line{
			ItemID:              item.ID,
			ItemName:            item.Name,
			UnitPrice:           item.Price,
			Quantity:            quantity,
			SpecialInstructions: c.SpecialInstructions,
			ScheduledDelivery:   cloneTime(c.ScheduledDelivery),
		})
	}

	recompute(a)
	return outcome
}

// RemoveItem deletes a line; the restaurant cart goes with its last line.
type RemoveItem struct {
	RestaurantID string
	ItemID       string
}

func (RemoveItem) Name() string { return "remove_item" }

func (c RemoveItem) apply(_ *Reducer, a *Aggregate) Outcome {
	rc, ok := a.Restaurants[c.RestaurantID]
	if !ok {
		return OutcomeNoOp
	}
	i := rc.lineIndex(c.ItemID)
	if i < 0 {
		return OutcomeNoOp
	}
	rc.Lines = append(rc.Lines[:i], rc.Lines[i+1:]...)
	recompute(a)
	return OutcomeApplied
}

// UpdateQuantity sets a line's quantity; zero or below removes the line.
type UpdateQuantity struct {
	RestaurantID string
	ItemID       string
	Quantity     int
}

func (UpdateQuantity) Name() string { return "update_quantity" }

func (c UpdateQuantity) apply(r *Reducer, a *Aggregate) Outcome {
	if c.Quantity <= 0 {
		return RemoveItem{RestaurantID: c.RestaurantID, ItemID: c.ItemID}.apply(r, a)
	}
	rc, ok := a.Restaurants[c.RestaurantID]
	if !ok {
		return OutcomeNoOp
	}
	i := rc.lineIndex(c.ItemID)
	if i < 0 || rc.Lines[i].Quantity == c.Quantity {
		return OutcomeNoOp
	}
	rc.Lines[i].Quantity = c.Quantity
	recompute(a)
	return OutcomeApplied
}

type ClearRestaurantCart struct {
	RestaurantID string
}

func (ClearRestaurantCart) Name() string { return "clear_restaurant_cart" }

func (c ClearRestaurantCart) apply(_ *Reducer, a *Aggregate) Outcome {
	if _, ok := a.Restaurants[c.RestaurantID]; !ok {
		return OutcomeNoOp
	}
	delete(a.Restaurants, c.RestaurantID)
	recompute(a)
	return OutcomeApplied
}

// ClearAll resets the cart, group order state included.
type ClearAll struct{}

func (ClearAll) Name() string { return "clear_all" }

func (ClearAll) apply(_ *Reducer, a *Aggregate) Outcome {
	*a = *Empty()
	return OutcomeApplied
}

type SetScheduledDelivery struct {
	RestaurantID string
	At           time.Time
}

func (SetScheduledDelivery) Name() string { return "set_scheduled_delivery" }

func (c SetScheduledDelivery) apply(_ *Reducer, a *Aggregate) Outcome {
	rc, ok := a.Restaurants[c.RestaurantID]
	if !ok {
		return OutcomeNoOp
	}
	at := c.At
	rc.ScheduledDelivery = &at
	return OutcomeApplied
}

type EnableGroupOrder struct {
	GroupName string
	Members   []string
}

func (EnableGroupOrder) Name() string { return "enable_group_order" }

func (c EnableGroupOrder) apply(_ *Reducer, a *Aggregate) Outcome {
	a.GroupOrderEnabled = true
	a.GroupOrderName = c.GroupName
	a.GroupOrderMembers = nil
	if len(c.Members) > 0 {
		a.GroupOrderMembers = append([]string(nil), c.Members...)
	}
	return OutcomeApplied
}

type DisableGroupOrder struct{}

func (DisableGroupOrder) Name() string { return "disable_group_order" }

func (DisableGroupOrder) apply(_ *Reducer, a *Aggregate) Outcome {
	a.GroupOrderEnabled = false
	a.GroupOrderName = ""
	a.GroupOrderMembers = nil
	return OutcomeApplied
}

// LoadSnapshot replaces the whole cart with a stored snapshot. The snapshot
// is normalized and every derived total recomputed rather than trusted.
type LoadSnapshot struct {
	Snapshot *Aggregate
}

func (LoadSnapshot) Name() string { return "load_snapshot" }

func (c LoadSnapshot) apply(_ *Reducer, a *Aggregate) Outcome {
	if c.Snapshot == nil {
		*a = *Empty()
		return OutcomeApplied
	}
	*a = *normalize(c.Snapshot.Clone())
	return OutcomeApplied
}

// recompute derives every subtotal and the aggregate totals from the lines
// and drops restaurant carts left without lines.
func recompute(a *Aggregate) {
	a.TotalItems = 0
	a.GrandTotal = 0
	for id, rc := range a.Restaurants {
		if len(rc.Lines) == 0 {
			delete(a.Restaurants, id)
			continue
		}
		var subtotal models.Money
		for _, l := range rc.Lines {
			subtotal += l.Total()
			a.TotalItems += l.Quantity
		}
		rc.Subtotal = subtotal
		a.GrandTotal += rc.Total()
	}
}

func normalize(a *Aggregate) *Aggregate {
	if a.Restaurants == nil {
		a.Restaurants = make(map[string]*RestaurantCart)
	}
	for id, rc := range a.Restaurants {
		if rc == nil {
			delete(a.Restaurants, id)
			continue
		}
		rc.RestaurantID = id
		rc.ScheduledDelivery = utc(rc.ScheduledDelivery)

		kept := make([]Line, 0, len(rc.Lines))
		seen := make(map[string]int, len(rc.Lines))
		for _, l := range rc.Lines {
			if l.Quantity <= 0 {
				continue
			}
			if i, dup := seen[l.ItemID]; dup {
				kept[i].Quantity += l.Quantity
				continue
			}
			l.ScheduledDelivery = utc(l.ScheduledDelivery)
			seen[l.ItemID] = len(kept)
			kept = append(kept, l)
		}
		rc.Lines = kept
	}
	if len(a.GroupOrderMembers) == 0 {
		a.GroupOrderMembers = nil
	}
	recompute(a)
	return a
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
