package notify

import (
	"context"
	"fmt"
	"log/slog"

	"enroll/internal/platform/config"
)

// NewSender builds the transport selected by cfg.Driver.
func NewSender(ctx context.Context, cfg config.NotifyConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Driver {
	case "kafka":
		s, err := NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureTopic(ctx, 3, 1); err != nil {
			logger.WarnContext(ctx, "mail topic could not be ensured", "topic", cfg.KafkaTopic, "error", err)
		}
		return s, nil
	case "amqp":
		return NewAMQPSender(cfg.AMQPURL, cfg.AMQPQueue)
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.Driver)
	}
}
