package consumer

import (
	"context"
	"encoding/json"

	"go-leave/internal/balance"
	"go-leave/internal/events"

	"go.uber.org/zap"
)

// ConsumeLeaveLifecycle drops the cached balance of the leave owner on every
// decision, so API replicas that did not serve the decision stop returning
// stale counters.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader MessageReader,
	ledger balance.Ledger,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.LeaveDecidedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.UserID == "" {
			log.Error("decode leave event failed", zap.ByteString("value", msg.Value), zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		ledger.Invalidate(ctx, event.UserID)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
			continue
		}

		log.Debug("balance cache invalidated",
			zap.String("event_type", event.EventType),
			zap.String("leave_id", event.LeaveID),
			zap.String("user_id", event.UserID),
		)
	}
}
