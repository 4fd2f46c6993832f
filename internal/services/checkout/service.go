package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"food-cart/internal/cart"
	"food-cart/internal/logger"
	"food-cart/internal/models"
)

// ASAPEstimate is quoted when no delivery time was scheduled
const ASAPEstimate = "25-35 minutes"

// Cart is the part of the cart engine checkout needs
type Cart interface {
	Snapshot() *cart.Aggregate
	ClearAll(ctx context.Context) cart.Outcome
}

// OrderPublisher announces placed orders
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, msg *models.OrderPlacedMessage) error
	PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error
}

// Confirmation is returned to the customer after a successful checkout
type Confirmation struct {
	Order         *models.Order `json:"order"`
	EstimatedTime string        `json:"estimated_time"`
}

type Service struct {
	cart      Cart
	repo      OrderRepository
	publisher OrderPublisher
	pricing   Pricing
	logger    *logger.Logger
	now       func() time.Time

	// serializes checkouts so the daily counter and cart clearing stay ordered
	mu      sync.Mutex
	day     string
	counter int
}

// NewService wires checkout. repo nil keeps orders in memory; publisher nil
// disables broker events.
func NewService(c Cart, repo OrderRepository, publisher OrderPublisher, pricing Pricing, log *logger.Logger) *Service {
	if repo == nil {
		repo = NewMemoryRepository()
	}
	return &Service{
		cart:      c,
		repo:      repo,
		publisher: publisher,
		pricing:   pricing,
		logger:    log,
		now:       time.Now,
	}
}

// Quote prices the current cart
func (s *Service) Quote(method models.DeliveryMethod, tipPercent *int) (Quote, error) {
	if err := validateDeliveryMethod(method); err != nil {
		return Quote{}, err
	}
	tip := s.pricing.DefaultTipPercent
	if tipPercent != nil {
		if err := validateTipPercent(*tipPercent); err != nil {
			return Quote{}, err
		}
		tip = *tipPercent
	}
	return s.pricing.Quote(s.cart.Snapshot(), method, tip), nil
}

// PlaceOrder validates req, records the order built from the current cart,
// announces it and empties the cart.
func (s *Service) PlaceOrder(ctx context.Context, req *Request) (*Confirmation, error) {
	requestID := logger.RequestIDFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.cart.Snapshot()
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	tip := s.pricing.DefaultTipPercent
	if req.TipPercent != nil {
		tip = *req.TipPercent
	}
	quote := s.pricing.Quote(snapshot, req.DeliveryMethod, tip)
	now := s.now().UTC()

	order := &models.Order{
		ID:             uuid.NewString(),
		Number:         s.nextOrderNumber(ctx, now),
		CustomerName:   req.Delivery.FullName(),
		Email:          req.Delivery.Email,
		Phone:          req.Delivery.Phone,
		DeliveryMethod: req.DeliveryMethod,
		PaymentMethod:  req.PaymentMethod,
		Subtotal:       quote.Subtotal,
		DeliveryFees:   quote.DeliveryFees,
		ServiceFees:    quote.ServiceFees,
		Tip:            quote.Tip,
		Tax:            quote.Tax,
		TotalAmount:    quote.Total,
		Priority:       models.CalculatePriority(quote.Total),
		Status:         models.StatusReceived,
		CreatedAt:      now,
	}
	if req.DeliveryMethod == models.Delivery {
		order.Address = req.Delivery.FullAddress()
	}
	if snapshot.GroupOrderEnabled {
		order.GroupOrderName = snapshot.GroupOrderName
	}
	if req.ScheduledFor != nil {
		at := req.ScheduledFor.UTC()
		order.ScheduledFor = &at
	}
	for _, l := range snapshot.Lines() {
		order.Items = append(order.Items, models.OrderItem{
			RestaurantID:        l.RestaurantID,
			RestaurantName:      l.RestaurantName,
			ItemID:              l.ItemID,
			Name:                l.ItemName,
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			SpecialInstructions: l.SpecialInstructions,
		})
	}

	if err := s.repo.SaveOrder(ctx, order); err != nil {
		s.logger.Error("order_save_failed", "Failed to save order", requestID, err, map[string]interface{}{
			"order_number": order.Number,
		})
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	estimate := ASAPEstimate
	if order.ScheduledFor != nil {
		estimate = order.ScheduledFor.Format(time.RFC3339)
	}

	s.publish(ctx, order, estimate)
	s.cart.ClearAll(ctx)

	s.logger.Info("order_placed", fmt.Sprintf("Order %s placed", order.Number), requestID, map[string]interface{}{
		"order_number":    order.Number,
		"delivery_method": order.DeliveryMethod,
		"items":           len(order.Items),
		"total_amount":    order.TotalAmount.String(),
		"priority":        order.Priority,
	})

	return &Confirmation{Order: order, EstimatedTime: estimate}, nil
}

// GetOrder looks up a placed order by number
func (s *Service) GetOrder(ctx context.Context, number string) (*models.Order, error) {
	return s.repo.GetOrder(ctx, number)
}

// publish failures are logged; the order already exists
func (s *Service) publish(ctx context.Context, order *models.Order, estimate string) {
	if s.publisher == nil {
		return
	}
	requestID := logger.RequestIDFromContext(ctx)

	if err := s.publisher.PublishOrderPlaced(ctx, models.NewOrderPlacedMessage(order)); err != nil {
		s.logger.Error("order_publish_failed", "Failed to publish placed order", requestID, err, map[string]interface{}{
			"order_number": order.Number,
		})
	}

	update := models.NewStatusUpdateMessage(order.Number, "", string(models.StatusReceived), "cart-service", estimate)
	if err := s.publisher.PublishStatusUpdate(ctx, update); err != nil {
		s.logger.Error("status_publish_failed", "Failed to publish status update", requestID, err, map[string]interface{}{
			"order_number": order.Number,
		})
	}
}

// nextOrderNumber keeps a per-day counter seeded from the repository on the
// first order of each day. Callers hold s.mu.
func (s *Service) nextOrderNumber(ctx context.Context, now time.Time) string {
	today := now.Format("20060102")
	if today != s.day {
		last, err := s.repo.LastOrderSequence(ctx, now)
		if err != nil {
			s.logger.Error("order_sequence_failed", "Failed to read today's order count", logger.RequestIDFromContext(ctx), err, nil)
		}
		s.day, s.counter = today, last
	}
	s.counter++
	return models.GenerateOrderNumber(now, s.counter)
}
