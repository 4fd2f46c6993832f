package notification

import (
	"context"
	"errors"
	"fmt"
	"io"

	"food-cart/internal/logger"
	"food-cart/internal/messaging"
	"food-cart/internal/models"
)

// Source delivers raw notification bodies to a handler until ctx ends
type Source interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
}

// Subscriber prints order status notifications
type Subscriber struct {
	source Source
	logger *logger.Logger
	out    io.Writer
}

func NewSubscriber(source Source, log *logger.Logger, out io.Writer) *Subscriber {
	return &Subscriber{
		source: source,
		logger: log,
		out:    out,
	}
}

// Run consumes notifications until ctx is cancelled
func (s *Subscriber) Run(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.source.StartConsuming(ctx, s.HandleNotification)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		return err
	}

	s.logger.Info("graceful_shutdown", "Notification subscriber stopped", requestID, nil)
	return nil
}

// HandleNotification decodes one StatusUpdateMessage and displays it
func (s *Subscriber) HandleNotification(ctx context.Context, body []byte) error {
	requestID := logger.RequestIDFromContext(ctx)

	var update models.StatusUpdateMessage
	if err := messaging.ParseMessage(body, &update); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	if _, err := fmt.Fprintln(s.out, FormatNotification(&update)); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}

	s.logger.Info("notification_displayed", "Notification displayed to user", requestID, map[string]interface{}{
		"order_number":   update.OrderNumber,
		"old_status":     update.OldStatus,
		"new_status":     update.NewStatus,
		"changed_by":     update.ChangedBy,
		"estimated_time": update.EstimatedTime,
		"timestamp":      update.Timestamp.Format("2006-01-02 15:04:05"),
	})
	return nil
}

// FormatNotification renders a status update as one human-readable line
func FormatNotification(update *models.StatusUpdateMessage) string {
	timestamp := update.Timestamp.Format("2006-01-02 15:04:05")

	switch models.OrderStatus(update.NewStatus) {
	case models.StatusReceived:
		if update.EstimatedTime != "" {
			return fmt.Sprintf("🧾 [%s] Order %s has been received. Estimated delivery: %s.",
				timestamp, update.OrderNumber, update.EstimatedTime)
		}
		return fmt.Sprintf("🧾 [%s] Order %s has been received.", timestamp, update.OrderNumber)
	case models.StatusDispatched:
		return fmt.Sprintf("🛵 [%s] Order %s was sent to the restaurants by %s.",
			timestamp, update.OrderNumber, update.ChangedBy)
	case models.StatusCompleted:
		return fmt.Sprintf("🎉 [%s] Order %s has been completed and delivered! Thank you for your business.",
			timestamp, update.OrderNumber)
	case models.StatusCancelled:
		return fmt.Sprintf("❌ [%s] Order %s has been cancelled.", timestamp, update.OrderNumber)
	default:
		return fmt.Sprintf("📋 [%s] Order %s status changed from '%s' to '%s' by %s.",
			timestamp, update.OrderNumber, update.OldStatus, update.NewStatus, update.ChangedBy)
	}
}
