package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"food-cart/internal/models"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository stores placed orders
type OrderRepository interface {
	SaveOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, number string) (*models.Order, error)
	// LastOrderSequence returns the highest NNN used in ORD_<day>_NNN, or 0
	LastOrderSequence(ctx context.Context, day time.Time) (int, error)
}

func orderNumberPrefix(day time.Time) string {
	return "ORD_" + day.UTC().Format("20060102") + "_"
}

// sequenceOf extracts NNN from an order number with the given prefix
func sequenceOf(number, prefix string) (int, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// MemoryRepository keeps orders for the lifetime of the process
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]*models.Order)}
}

func (r *MemoryRepository) SaveOrder(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.Number]; ok {
		return fmt.Errorf("order %s already exists", order.Number)
	}
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	r.orders[order.Number] = &stored
	return nil
}

func (r *MemoryRepository) GetOrder(_ context.Context, number string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[number]
	if !ok {
		return nil, ErrOrderNotFound
	}
	out := *order
	out.Items = append([]models.OrderItem(nil), order.Items...)
	return &out, nil
}

func (r *MemoryRepository) LastOrderSequence(_ context.Context, day time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix := orderNumberPrefix(day)
	last := 0
	for number := range r.orders {
		if n, ok := sequenceOf(number, prefix); ok && n > last {
			last = n
		}
	}
	return last, nil
}
