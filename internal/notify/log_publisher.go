package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes events to the log instead of a broker. It is used
// when no RabbitMQ URL is configured.
type LogPublisher struct {
	log *zap.Logger
}

// NewLogPublisher returns a LogPublisher on log.
func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.log.Info("notification event",
		zap.String("id", e.ID),
		zap.String("type", string(e.Type)),
		zap.ByteString("payload", e.Payload))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
