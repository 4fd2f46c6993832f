package cart

import (
	"sort"
	"time"

	"food-cart/internal/models"
)

// Line is one distinct (restaurant, menu item) pairing in the cart
type Line struct {
	ItemID              string       `json:"item_id"`
	ItemName            string       `json:"item_name"`
	UnitPrice           models.Money `json:"unit_price"`
	Quantity            int          `json:"quantity"`
	SpecialInstructions string       `json:"special_instructions,omitempty"`
	ScheduledDelivery   *time.Time   `json:"scheduled_delivery,omitempty"`
}

// Total is UnitPrice x Quantity
func (l Line) Total() models.Money {
	return l.UnitPrice.Mul(l.Quantity)
}

// RestaurantCart holds the lines ordered from a single restaurant.
// Lines keep insertion order.
type RestaurantCart struct {
	RestaurantID          string       `json:"restaurant_id"`
	RestaurantName        string       `json:"restaurant_name"`
	Lines                 []Line       `json:"lines"`
	Subtotal              models.Money `json:"subtotal"`
	DeliveryFee           models.Money `json:"delivery_fee"`
	ServiceFee            models.Money `json:"service_fee"`
	EstimatedDeliveryTime string       `json:"estimated_delivery_time"`
	ScheduledDelivery     *time.Time   `json:"scheduled_delivery,omitempty"`
}

// Total is Subtotal + DeliveryFee + ServiceFee
func (rc *RestaurantCart) Total() models.Money {
	return rc.Subtotal + rc.DeliveryFee + rc.ServiceFee
}

func (rc *RestaurantCart) lineIndex(itemID string) int {
	for i := range rc.Lines {
		if rc.Lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (rc *RestaurantCart) clone() *RestaurantCart {
	out := *rc
	out.Lines = make([]Line, len(rc.Lines))
	for i, l := range rc.Lines {
		l.ScheduledDelivery = cloneTime(l.ScheduledDelivery)
		out.Lines[i] = l
	}
	out.ScheduledDelivery = cloneTime(rc.ScheduledDelivery)
	return &out
}

// Aggregate is the whole cart across all restaurants for one session.
type Aggregate struct {
	Restaurants       map[string]*RestaurantCart `json:"restaurant_carts"`
	TotalItems        int                        `json:"total_items"`
	GrandTotal        models.Money               `json:"grand_total"`
	GroupOrderEnabled bool                       `json:"group_order_enabled"`
	GroupOrderName    string                     `json:"group_order_name,omitempty"`
	GroupOrderMembers []string                   `json:"group_order_members,omitempty"`
}

// Empty returns the initial cart state
func Empty() *Aggregate {
	return &Aggregate{Restaurants: make(map[string]*RestaurantCart)}
}

// Clone returns a deep copy; the receiver is never shared with the result.
func (a *Aggregate) Clone() *Aggregate {
	out := &Aggregate{
		Restaurants:       make(map[string]*RestaurantCart, len(a.Restaurants)),
		TotalItems:        a.TotalItems,
		GrandTotal:        a.GrandTotal,
		GroupOrderEnabled: a.GroupOrderEnabled,
		GroupOrderName:    a.GroupOrderName,
	}
	for id, rc := range a.Restaurants {
		if rc == nil {
			out.Restaurants[id] = nil
			continue
		}
		out.Restaurants[id] = rc.clone()
	}
	if a.GroupOrderMembers != nil {
		out.GroupOrderMembers = append([]string(nil), a.GroupOrderMembers...)
	}
	return out
}

// RestaurantIDs returns the ids of the restaurant carts in sorted order
func (a *Aggregate) RestaurantIDs() []string {
	ids := make([]string, 0, len(a.Restaurants))
	for id := range a.Restaurants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FlatLine is a cart line together with the restaurant it belongs to
type FlatLine struct {
	RestaurantID   string
	RestaurantName string
	Line
}

// Lines flattens every restaurant cart, restaurants in id order and lines in
// insertion order.
func (a *Aggregate) Lines() []FlatLine {
	var out []FlatLine
	for _, id := range a.RestaurantIDs() {
		rc := a.Restaurants[id]
		for _, l := range rc.Lines {
			out = append(out, FlatLine{
				RestaurantID:   rc.RestaurantID,
				RestaurantName: rc.RestaurantName,
				Line:           l,
			})
		}
	}
	return out
}

// IsEmpty reports whether the cart holds no lines
func (a *Aggregate) IsEmpty() bool {
	return len(a.Restaurants) == 0
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
