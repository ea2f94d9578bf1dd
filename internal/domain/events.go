package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"github.com/shopspring/decimal"
)

// =========== Incoming event payloads ===========

// OrderPlaced (from orders.events)
type OrderPlacedLine struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type OrderPlacedPayload struct {
	OrderID uuid.UUID         `json:"orderId"`
	UserID  uuid.UUID         `json:"userId"`
	Lines   []OrderPlacedLine `json:"lines"`
}

// =========== Outgoing events ===========

type SaleRecordedEvent struct {
	primitives.BaseEvent
	SaleID         uuid.UUID       `json:"saleId"`
	ProductID      uuid.UUID       `json:"productId"`
	QuantitySold   int             `json:"quantitySold"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	RemainingStock int             `json:"remainingStock"`
	RecordedAtUtc  time.Time       `json:"recordedAtUtc"`
}

func NewSaleRecordedEvent(sale *Sale, remaining int) *SaleRecordedEvent {
	ev := &SaleRecordedEvent{
		BaseEvent:      primitives.NewBaseEvent(),
		SaleID:         sale.ID,
		ProductID:      sale.ProductID,
		QuantitySold:   sale.QuantitySold,
		TotalPrice:     sale.TotalPrice,
		RemainingStock: remaining,
		RecordedAtUtc:  time.Now().UTC(),
	}
	ev.SetRoutingKey("SaleRecorded")
	return ev
}

type SaleRevisedEvent struct {
	primitives.BaseEvent
	SaleID          uuid.UUID       `json:"saleId"`
	ProductID       uuid.UUID       `json:"productId"`
	OldQuantitySold int             `json:"oldQuantitySold"`
	NewQuantitySold int             `json:"newQuantitySold"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	RemainingStock  int             `json:"remainingStock"`
	RevisedAtUtc    time.Time       `json:"revisedAtUtc"`
}

func NewSaleRevisedEvent(sale *Sale, oldQty, remaining int) *SaleRevisedEvent {
	ev := &SaleRevisedEvent{
		BaseEvent:       primitives.NewBaseEvent(),
		SaleID:          sale.ID,
		ProductID:       sale.ProductID,
		OldQuantitySold: oldQty,
		NewQuantitySold: sale.QuantitySold,
		TotalPrice:      sale.TotalPrice,
		RemainingStock:  remaining,
		RevisedAtUtc:    time.Now().UTC(),
	}
	ev.SetRoutingKey("SaleRevised")
	return ev
}

type SaleReversedEvent struct {
	primitives.BaseEvent
	SaleID           uuid.UUID `json:"saleId"`
	ProductID        uuid.UUID `json:"productId"`
	QuantityRestored int       `json:"quantityRestored"`
	RemainingStock   int       `json:"remainingStock"`
	ReversedAtUtc    time.Time `json:"reversedAtUtc"`
}

func NewSaleReversedEvent(sale *Sale, remaining int) *SaleReversedEvent {
	ev := &SaleReversedEvent{
		BaseEvent:        primitives.NewBaseEvent(),
		SaleID:           sale.ID,
		ProductID:        sale.ProductID,
		QuantityRestored: sale.QuantitySold,
		RemainingStock:   remaining,
		ReversedAtUtc:    time.Now().UTC(),
	}
	ev.SetRoutingKey("SaleReversed")
	return ev
}

// StockAdjusted covers direct corrections that are not tied to a sale.
type StockAdjustedEvent struct {
	primitives.BaseEvent
	ProductID     uuid.UUID `json:"productId"`
	Delta         int       `json:"delta"`
	Quantity      int       `json:"quantity"`
	Reason        string    `json:"reason"`
	OccurredAtUtc time.Time `json:"occurredAtUtc"`
}

func NewStockAdjustedEvent(productID uuid.UUID, delta, quantity int, reason string) *StockAdjustedEvent {
	ev := &StockAdjustedEvent{
		BaseEvent:     primitives.NewBaseEvent(),
		ProductID:     productID,
		Delta:         delta,
		Quantity:      quantity,
		Reason:        reason,
		OccurredAtUtc: time.Now().UTC(),
	}
	ev.SetRoutingKey("StockAdjusted")
	return ev
}

type LowStockAlertEvent struct {
	primitives.BaseEvent
	ProductID    uuid.UUID `json:"productId"`
	Sku          string    `json:"sku"`
	Quantity     int       `json:"quantity"`
	Threshold    int       `json:"threshold"`
	AlertedAtUtc time.Time `json:"alertedAtUtc"`
}

func NewLowStockAlertEvent(p *Product) *LowStockAlertEvent {
	ev := &LowStockAlertEvent{
		BaseEvent:    primitives.NewBaseEvent(),
		ProductID:    p.ID,
		Sku:          p.Sku,
		Quantity:     p.Quantity,
		Threshold:    p.StockThreshold,
		AlertedAtUtc: time.Now().UTC(),
	}
	ev.SetRoutingKey("LowStockAlert")
	return ev
}
