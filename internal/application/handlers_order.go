package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

type EventHandler interface {
	Handle(ctx context.Context, ev primitives.Event) error
}

// SaleRecorder is the slice of StockLedger the order consumer needs.
type SaleRecorder interface {
	RecordSale(ctx context.Context, productID uuid.UUID, quantity int, opts ...SaleOption) (*domain.Sale, error)
}

// OrderPlacedHandler books every line of a placed order as a sale. Lines carry a reference
// derived from the order id and line position, so a redelivered event does not sell twice.
type OrderPlacedHandler struct {
	ledger SaleRecorder
	logger *zap.Logger
}

func NewOrderPlacedHandler(ledger SaleRecorder, logger *zap.Logger) *OrderPlacedHandler {
	return &OrderPlacedHandler{ledger: ledger, logger: logger}
}

func (h *OrderPlacedHandler) Handle(ctx context.Context, ev primitives.Event) error {
	env, ok := ev.(*primitives.IntegrationEventEnvelope)
	if !ok {
		h.logger.Warn("OrderPlacedHandler: invalid event type", zap.String("type", fmt.Sprintf("%T", ev)))
		return nil
	}
	if env.Type != "OrderPlacedEvent" {
		return nil
	}

	var payload domain.OrderPlacedPayload
	if err := json.Unmarshal([]byte(env.PayloadJSON), &payload); err != nil {
		h.logger.Warn("OrderPlacedHandler: failed to unmarshal payload", zap.Error(err))
		return nil
	}
	if payload.OrderID == uuid.Nil {
		h.logger.Warn("OrderPlacedHandler: missing orderId")
		return nil
	}

	h.logger.Info("OrderPlacedHandler: received order",
		zap.String("orderId", payload.OrderID.String()),
		zap.Int("lines", len(payload.Lines)))

	for i, line := range payload.Lines {
		ref := OrderLineReference(payload.OrderID, i)
		_, err := h.ledger.RecordSale(ctx, line.ProductID, line.Quantity, WithReference(ref))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrConflict):
			h.logger.Info("OrderPlacedHandler: line already booked", zap.String("reference", ref))
		case errors.Is(err, domain.ErrInsufficientStock),
			errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrInvalidQuantity):
			// retrying cannot fix these
			h.logger.Warn("OrderPlacedHandler: line rejected",
				zap.String("reference", ref),
				zap.String("productId", line.ProductID.String()),
				zap.Error(err))
		default:
			return fmt.Errorf("order %s line %d: %w", payload.OrderID, i, err)
		}
	}
	return nil
}

func OrderLineReference(orderID uuid.UUID, line int) string {
	return fmt.Sprintf("order:%s:%d", orderID, line)
}
