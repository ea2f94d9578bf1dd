package application

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// OutboxWriter turns domain events into outbox rows. Build one per transaction from that
// transaction's OutboxRepository so events commit or roll back with the state change.
type OutboxWriter interface {
	Enqueue(ctx context.Context, events ...primitives.Event) error
}

type outboxWriter struct {
	repo domain.OutboxRepository
	now  func() time.Time
}

func NewOutboxWriter(repo domain.OutboxRepository) OutboxWriter {
	return &outboxWriter{repo: repo, now: time.Now}
}

func (w *outboxWriter) Enqueue(ctx context.Context, events ...primitives.Event) error {
	occurred := w.now().UTC().Unix()
	for _, ev := range events {
		if ev == nil {
			continue
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typeNameOf(ev), err)
		}

		eventType := ev.GetRoutingKey()
		if eventType == "" {
			eventType = typeNameOf(ev)
		}

		msg := domain.OutboxMessage{
			ID:            uuid.New(),
			Type:          eventType,
			PayloadJSON:   string(payload),
			OccurredAtUtc: occurred,
		}
		if err := w.repo.Insert(ctx, msg); err != nil {
			return fmt.Errorf("enqueue %s: %w", eventType, err)
		}
	}
	return nil
}

func typeNameOf(ev primitives.Event) string {
	t := reflect.TypeOf(ev)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
