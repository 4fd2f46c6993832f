package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"food-cart/internal/database"
	"food-cart/internal/models"
)

// PostgresRepository stores orders in the orders and order_items tables
type PostgresRepository struct {
	db *database.DB
}

func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// SaveOrder writes the order, its lines and the initial status log entry in
// one transaction.
func (r *PostgresRepository) SaveOrder(ctx context.Context, order *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, database.InsertOrderSQL,
		order.ID, order.Number, order.CustomerName, order.Email, order.Phone, order.Address,
		string(order.DeliveryMethod), string(order.PaymentMethod),
		order.Subtotal.Cents(), order.DeliveryFees.Cents(), order.ServiceFees.Cents(),
		order.Tip.Cents(), order.Tax.Cents(), order.TotalAmount.Cents(),
		order.Priority, string(order.Status), order.GroupOrderName, order.ScheduledFor, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err = tx.Exec(ctx, database.InsertOrderItemSQL,
			order.ID, i, item.RestaurantID, item.RestaurantName, item.ItemID,
			item.Name, item.Quantity, item.UnitPrice.Cents(), item.SpecialInstructions)
		if err != nil {
			return fmt.Errorf("failed to insert order item %s: %w", item.ItemID, err)
		}
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL, order.ID, string(order.Status), "cart-service", "order placed")
	if err != nil {
		return fmt.Errorf("failed to insert status log: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetOrder(ctx context.Context, number string) (*models.Order, error) {
	var (
		o                                                     models.Order
		method, payment, status                               string
		subtotal, deliveryFees, serviceFees, tip, tax, total int64
	)
	err := r.db.QueryRow(ctx, database.GetOrderByNumberSQL, number).Scan(
		&o.ID, &o.Number, &o.CustomerName, &o.Email, &o.Phone, &o.Address, &method, &payment,
		&subtotal, &deliveryFees, &serviceFees, &tip, &tax, &total, &o.Priority, &status,
		&o.GroupOrderName, &o.ScheduledFor, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", number, err)
	}
	o.DeliveryMethod = models.DeliveryMethod(method)
	o.PaymentMethod = models.PaymentMethod(payment)
	o.Status = models.OrderStatus(status)
	o.Subtotal, o.DeliveryFees, o.ServiceFees = models.Money(subtotal), models.Money(deliveryFees), models.Money(serviceFees)
	o.Tip, o.Tax, o.TotalAmount = models.Money(tip), models.Money(tax), models.Money(total)

	rows, err := r.db.Query(ctx, database.GetOrderItemsSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for %s: %w", number, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item  models.OrderItem
			price int64
		)
		if err := rows.Scan(&item.RestaurantID, &item.RestaurantName, &item.ItemID, &item.Name,
			&item.Quantity, &price, &item.SpecialInstructions); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.UnitPrice = models.Money(price)
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) LastOrderSequence(ctx context.Context, day time.Time) (int, error) {
	var last int
	err := r.db.QueryRow(ctx, database.GetLastOrderSequenceSQL, orderNumberPrefix(day)+"%").Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to read order sequence: %w", err)
	}
	return last, nil
}
