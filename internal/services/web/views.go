package web

import (
	"time"

	"food-cart/internal/cart"
	"food-cart/internal/catalog"
	"food-cart/internal/models"
	"food-cart/internal/services/checkout"
)

// moneyView renders an amount both as integer cents and as a display string
type moneyView struct {
	Cents  int64  `json:"cents"`
	Amount string `json:"amount"`
}

func money(m models.Money) moneyView {
	return moneyView{Cents: m.Cents(), Amount: m.String()}
}

type lineView struct {
	ItemID              string     `json:"item_id"`
	ItemName            string     `json:"item_name"`
	UnitPrice           moneyView  `json:"unit_price"`
	Quantity            int        `json:"quantity"`
	Total               moneyView  `json:"total"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
	ScheduledDelivery   *time.Time `json:"scheduled_delivery,omitempty"`
}

type restaurantCartView struct {
	RestaurantID          string     `json:"restaurant_id"`
	RestaurantName        string     `json:"restaurant_name"`
	Lines                 []lineView `json:"lines"`
	Subtotal              moneyView  `json:"subtotal"`
	DeliveryFee           moneyView  `json:"delivery_fee"`
	ServiceFee            moneyView  `json:"service_fee"`
	Total                 moneyView  `json:"total"`
	EstimatedDeliveryTime string     `json:"estimated_delivery_time"`
	ScheduledDelivery     *time.Time `json:"scheduled_delivery,omitempty"`
}

type groupOrderView struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type cartView struct {
	Restaurants []restaurantCartView `json:"restaurants"`
	TotalItems  int                  `json:"total_items"`
	GrandTotal  moneyView            `json:"grand_total"`
	GroupOrder  *groupOrderView      `json:"group_order,omitempty"`
}

func newCartView(a *cart.Aggregate) cartView {
	v := cartView{
		Restaurants: make([]restaurantCartView, 0, len(a.Restaurants)),
		TotalItems:  a.TotalItems,
		GrandTotal:  money(a.GrandTotal),
	}
	for _, id := range a.RestaurantIDs() {
		rc := a.Restaurants[id]
		rv := restaurantCartView{
			RestaurantID:          rc.RestaurantID,
			RestaurantName:        rc.RestaurantName,
			Lines:                 make([]lineView, 0, len(rc.Lines)),
			Subtotal:              money(rc.Subtotal),
			DeliveryFee:           money(rc.DeliveryFee),
			ServiceFee:            money(rc.ServiceFee),
			Total:                 money(rc.Total()),
			EstimatedDeliveryTime: rc.EstimatedDeliveryTime,
			ScheduledDelivery:     rc.ScheduledDelivery,
		}
		for _, l := range rc.Lines {
			rv.Lines = append(rv.Lines, lineView{
				ItemID:              l.ItemID,
				ItemName:            l.ItemName,
				UnitPrice:           money(l.UnitPrice),
				Quantity:            l.Quantity,
				Total:               money(l.Total()),
				SpecialInstructions: l.SpecialInstructions,
				ScheduledDelivery:   l.ScheduledDelivery,
			})
		}
		v.Restaurants = append(v.Restaurants, rv)
	}
	if a.GroupOrderEnabled {
		members := a.GroupOrderMembers
		if members == nil {
			members = []string{}
		}
		v.GroupOrder = &groupOrderView{Name: a.GroupOrderName, Members: members}
	}
	return v
}

type menuItemView struct {
	catalog.MenuItem
	Price moneyView `json:"price"`
}

type restaurantView struct {
	catalog.Restaurant
	DeliveryFee           moneyView      `json:"delivery_fee"`
	MinOrder              moneyView      `json:"min_order"`
	EstimatedDeliveryTime string         `json:"estimated_delivery_time"`
	Menu                  []menuItemView `json:"menu,omitempty"`
}

func newRestaurantView(r catalog.Restaurant, menu []catalog.MenuItem) restaurantView {
	v := restaurantView{
		Restaurant:            r,
		DeliveryFee:           money(r.DeliveryFee),
		MinOrder:              money(r.MinOrder),
		EstimatedDeliveryTime: r.EstimatedDeliveryTime(),
	}
	if menu != nil {
		v.Menu = make([]menuItemView, 0, len(menu))
		for _, item := range menu {
			v.Menu = append(v.Menu, menuItemView{MenuItem: item, Price: money(item.Price)})
		}
	}
	return v
}

type quoteView struct {
	DeliveryMethod models.DeliveryMethod `json:"delivery_method"`
	Subtotal       moneyView             `json:"subtotal"`
	DeliveryFees   moneyView             `json:"delivery_fees"`
	ServiceFees    moneyView             `json:"service_fees"`
	CartTotal      moneyView             `json:"cart_total"`
	TipPercent     int                   `json:"tip_percent"`
	Tip            moneyView             `json:"tip"`
	Tax            moneyView             `json:"tax"`
	Total          moneyView             `json:"total"`
}

func newQuoteView(q checkout.Quote) quoteView {
	return quoteView{
		DeliveryMethod: q.DeliveryMethod,
		Subtotal:       money(q.Subtotal),
		DeliveryFees:   money(q.DeliveryFees),
		ServiceFees:    money(q.ServiceFees),
		CartTotal:      money(q.CartTotal),
		TipPercent:     q.TipPercent,
		Tip:            money(q.Tip),
		Tax:            money(q.Tax),
		Total:          money(q.Total),
	}
}
