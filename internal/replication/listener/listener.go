package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Notifier is woken by catalog change events; CatalogPull implements it.
type Notifier interface {
	Notify()
}

// CatalogListener turns backend catalog change events into pull nudges.
// Pull correctness never depends on it.
type CatalogListener struct {
	consumer   MessageReader
	pull       Notifier
	logger     logger.ZapLogger
	retryDelay time.Duration
}

func NewCatalogListener(consumer MessageReader, pull Notifier, logger logger.ZapLogger) *CatalogListener {
	return &CatalogListener{
		consumer:   consumer,
		pull:       pull,
		logger:     logger,
		retryDelay: time.Second,
	}
}

func (l *CatalogListener) Start(ctx context.Context) {
	l.logger.Info("Starting catalog change listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping catalog change listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Warn("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.retryDelay):
				}
				continue
			}
			l.processMessage(msg.Value)
		}
	}
}

func (l *CatalogListener) processMessage(value []byte) {
	var event model.CatalogChangedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != model.EventProductsChanged {
		return
	}

	l.logger.Debug("Catalog changed",
		zap.String("event_id", event.EventID),
		zap.Int("products", len(event.Payload.ProductIDs)),
	)
	l.pull.Notify()
}
