package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// ErrSinkUnavailable means the sink refused a message without trying to deliver it.
// The message is left pending with its retry count untouched.
var ErrSinkUnavailable = errors.New("outbox sink unavailable")

// Sink delivers one outbox message to a broker.
type Sink interface {
	Publish(ctx context.Context, msg domain.OutboxMessage) error
}

type Dispatcher struct {
	tx        domain.TxManager
	sink      Sink
	logger    *zap.Logger
	maxRetry  int
	batchSize int
}

func NewDispatcher(
	tx domain.TxManager,
	sink Sink,
	logger *zap.Logger,
	maxRetry, batchSize int,
) *Dispatcher {
	return &Dispatcher{
		tx:        tx,
		sink:      sink,
		logger:    logger,
		maxRetry:  maxRetry,
		batchSize: batchSize,
	}
}

// DispatchOnce publishes one batch of pending messages and returns how many went out.
// The batch is claimed, published and saved in one transaction so row locks hold until commit.
// Failed messages have their retry count bumped and are picked up again until maxRetry.
// When the sink is unavailable the rest of the batch is left for a later tick.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	processed := 0
	err := d.tx.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		processed = 0
		outbox := repos.Outbox()

		msgs, err := outbox.GetPendingBatch(ctx, d.maxRetry, d.batchSize)
		if err != nil {
			return err
		}

		for i := range msgs {
			msg := &msgs[i]

			if !json.Valid([]byte(msg.PayloadJSON)) {
				d.logger.Warn("outbox: payload is not valid JSON",
					zap.String("id", msg.ID.String()), zap.String("type", msg.Type))
				msg.RetryCount = d.maxRetry
				if err := d.save(ctx, outbox, msg); err != nil {
					return err
				}
				continue
			}

			err := d.sink.Publish(ctx, *msg)
			switch {
			case errors.Is(err, ErrSinkUnavailable):
				d.logger.Info("outbox: sink unavailable, deferring batch",
					zap.Int("remaining", len(msgs)-i), zap.Error(err))
				return nil
			case err != nil:
				d.logger.Warn("outbox: publish failed",
					zap.String("id", msg.ID.String()),
					zap.String("type", msg.Type),
					zap.Int("retry", msg.RetryCount+1),
					zap.Error(err))
				msg.RetryCount++
			default:
				now := time.Now().UTC().Unix()
				msg.ProcessedAtUtc = &now
				processed++
			}
			if err := d.save(ctx, outbox, msg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

func (d *Dispatcher) save(ctx context.Context, repo domain.OutboxRepository, msg *domain.OutboxMessage) error {
	if err := repo.Save(ctx, *msg); err != nil {
		d.logger.Error("outbox: failed to save message", zap.String("id", msg.ID.String()), zap.Error(err))
		return fmt.Errorf("save outbox message %s: %w", msg.ID, err)
	}
	return nil
}
