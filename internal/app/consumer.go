package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go-leave/internal/balance"
	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka/consumer"
	"go-leave/internal/shared/config"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer provisions balances for new users and keeps the balance cache
// in step with leave decisions, until SIGINT or SIGTERM.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	if cfg.Kafka.Broker == "" {
		return errors.New("KAFKA_BROKER is required")
	}

	infra, err := connectInfra(cfg, true)
	if err != nil {
		return err
	}
	defer infra.Close()

	ledger := balance.NewLedger(
		infra.DB,
		balance.NewRepository(infra.GormDB),
		balance.NewCategories(cfg.Leave.Categories),
		infra.Redis,
		zap.L(),
	)

	userReader := newReader(cfg, events.UserLifecycleTopic)
	defer userReader.Close()
	leaveReader := newReader(cfg, events.LeaveLifecycleTopic)
	defer leaveReader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		consumer.ConsumeUserLifecycle(ctx, userReader, ledger, logger)
	}()
	go func() {
		defer wg.Done()
		consumer.ConsumeLeaveLifecycle(ctx, leaveReader, ledger, logger)
	}()

	<-ctx.Done()
	logger.Info("consumer shutting down")
	wg.Wait()

	return nil
}

func newReader(cfg *config.Config, topic string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.Kafka.Broker},
		Topic:          topic,
		GroupID:        cfg.Kafka.ConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
}
