package checkout

import (
	"github.com/shopspring/decimal"

	"food-cart/internal/cart"
	"food-cart/internal/models"
)

// Pricing holds the checkout-time rates
type Pricing struct {
	TaxRate           decimal.Decimal
	DefaultTipPercent int
}

// Quote is the price breakdown shown before an order is placed
type Quote struct {
	DeliveryMethod models.DeliveryMethod `json:"delivery_method"`
	Subtotal       models.Money          `json:"subtotal"`
	DeliveryFees   models.Money          `json:"delivery_fees"`
	ServiceFees    models.Money          `json:"service_fees"`
	CartTotal      models.Money          `json:"cart_total"`
	TipPercent     int                   `json:"tip_percent"`
	Tip            models.Money          `json:"tip"`
	Tax            models.Money          `json:"tax"`
	Total          models.Money          `json:"total"`
}

// Quote prices agg. Pickup orders pay no delivery fees; tip is a share of the
// food subtotal and tax applies to subtotal plus service fees.
func (p Pricing) Quote(agg *cart.Aggregate, method models.DeliveryMethod, tipPercent int) Quote {
	q := Quote{DeliveryMethod: method, TipPercent: tipPercent}

	for _, rc := range agg.Restaurants {
		q.Subtotal += rc.Subtotal
		q.DeliveryFees += rc.DeliveryFee
		q.ServiceFees += rc.ServiceFee
	}

	q.CartTotal = agg.GrandTotal
	if method == models.Pickup {
		q.CartTotal -= q.DeliveryFees
		q.DeliveryFees = 0
	}

	q.Tip = q.Subtotal.MulRate(decimal.New(int64(tipPercent), -2))
	q.Tax = (q.Subtotal + q.ServiceFees).MulRate(p.TaxRate)
	q.Total = q.CartTotal + q.Tip + q.Tax
	return q
}
