package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"food-cart/internal/models"
)

type orderRecord struct {
	ID             string `gorm:"primaryKey"`
	Number         string `gorm:"uniqueIndex;not null"`
	CustomerName   string `gorm:"not null"`
	Email          string
	Phone          string
	Address        string
	DeliveryMethod string `gorm:"not null"`
	PaymentMethod  string `gorm:"not null"`
	Subtotal       int64
	DeliveryFees   int64
	ServiceFees    int64
	Tip            int64
	Tax            int64
	TotalAmount    int64
	Priority       int
	Status         string
	GroupOrderName string
	ScheduledFor   *time.Time
	CreatedAt      time.Time
	Items          []orderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID                  uint   `gorm:"primaryKey"`
	OrderID             string `gorm:"index;not null"`
	Position            int
	RestaurantID        string
	RestaurantName      string
	ItemID              string
	Name                string
	Quantity            int
	UnitPrice           int64
	SpecialInstructions string
}

func (orderItemRecord) TableName() string { return "order_items" }

// GormRepository stores orders through gorm, used with the SQLite driver
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository migrates the order tables
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&orderRecord{}, &orderItemRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate order tables: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) SaveOrder(ctx context.Context, order *models.Order) error {
	rec := toRecord(order)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *GormRepository) GetOrder(ctx context.Context, number string) (*models.Order, error) {
	var rec orderRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("number = ?", number).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", number, err)
	}
	return fromRecord(&rec), nil
}

func (r *GormRepository) LastOrderSequence(ctx context.Context, day time.Time) (int, error) {
	prefix := orderNumberPrefix(day)
	var numbers []string
	err := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("number LIKE ?", prefix+"%").
		Pluck("number", &numbers).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read order sequence: %w", err)
	}

	last := 0
	for _, number := range numbers {
		if n, ok := sequenceOf(number, prefix); ok && n > last {
			last = n
		}
	}
	return last, nil
}

func toRecord(o *models.Order) orderRecord {
	rec := orderRecord{
		ID:             o.ID,
		Number:         o.Number,
		CustomerName:   o.CustomerName,
		Email:          o.Email,
		Phone:          o.Phone,
		Address:        o.Address,
		DeliveryMethod: string(o.DeliveryMethod),
		PaymentMethod:  string(o.PaymentMethod),
		Subtotal:       o.Subtotal.Cents(),
		DeliveryFees:   o.DeliveryFees.Cents(),
		ServiceFees:    o.ServiceFees.Cents(),
		Tip:            o.Tip.Cents(),
		Tax:            o.Tax.Cents(),
		TotalAmount:    o.TotalAmount.Cents(),
		Priority:       o.Priority,
		Status:         string(o.Status),
		GroupOrderName: o.GroupOrderName,
		ScheduledFor:   o.ScheduledFor,
		CreatedAt:      o.CreatedAt,
	}
	for i, item := range o.Items {
		rec.Items = append(rec.Items, orderItemRecord{
			OrderID:             o.ID,
			Position:            i,
			RestaurantID:        item.RestaurantID,
			RestaurantName:      item.RestaurantName,
			ItemID:              item.ItemID,
			Name:                item.Name,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice.Cents(),
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	return rec
}

func fromRecord(rec *orderRecord) *models.Order {
	o := &models.Order{
		ID:             rec.ID,
		Number:         rec.Number,
		CustomerName:   rec.CustomerName,
		Email:          rec.Email,
		Phone:          rec.Phone,
		Address:        rec.Address,
		DeliveryMethod: models.DeliveryMethod(rec.DeliveryMethod),
		PaymentMethod:  models.PaymentMethod(rec.PaymentMethod),
		Subtotal:       models.Money(rec.Subtotal),
		DeliveryFees:   models.Money(rec.DeliveryFees),
		ServiceFees:    models.Money(rec.ServiceFees),
		Tip:            models.Money(rec.Tip),
		Tax:            models.Money(rec.Tax),
		TotalAmount:    models.Money(rec.TotalAmount),
		Priority:       rec.Priority,
		Status:         models.OrderStatus(rec.Status),
		GroupOrderName: rec.GroupOrderName,
		ScheduledFor:   rec.ScheduledFor,
		CreatedAt:      rec.CreatedAt,
	}
	for _, item := range rec.Items {
		o.Items = append(o.Items, models.OrderItem{
			RestaurantID:        item.RestaurantID,
			RestaurantName:      item.RestaurantName,
			ItemID:              item.ItemID,
			Name:                item.Name,
			Quantity:            item.Quantity,
			UnitPrice:           models.Money(item.UnitPrice),
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	return o
}
