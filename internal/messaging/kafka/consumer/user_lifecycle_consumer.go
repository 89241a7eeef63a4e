package consumer

import (
	"context"
	"encoding/json"

	"go-leave/internal/balance"
	"go-leave/internal/events"

	"go.uber.org/zap"
)

// ConsumeUserLifecycle provisions default balances for every user_created
// event. Provisioning skips existing counters, so replays and users created
// before a category was added are both handled.
func ConsumeUserLifecycle(
	ctx context.Context,
	reader MessageReader,
	ledger balance.Ledger,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.user_lifecycle")
	log.Info("user lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("user lifecycle consumer stopped")
				return
			}
			log.Error("fetch user lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.UserCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.UserID == "" {
			log.Error("decode user_created event failed", zap.ByteString("value", msg.Value), zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if event.EventType != "" && event.EventType != events.EventTypeUserCreated {
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := ledger.Provision(ctx, event.UserID); err != nil {
			log.Error("provision balances failed",
				zap.String("user_id", event.UserID),
				zap.String("request_id", event.RequestID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit user lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("balances provisioned from user_created event",
			zap.String("user_id", event.UserID),
			zap.String("request_id", event.RequestID),
		)
	}
}
