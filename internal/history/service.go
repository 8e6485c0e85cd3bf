// Package history records the status trail of every order from the order event stream.
package history

import (
	"context"

	kafkax "github.com/ariefcatur/go-bookstore.git/internal/kafka"
	"github.com/ariefcatur/go-bookstore.git/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Store interface {
	Record(ctx context.Context, e orders.HistoryEntry) error
}

type Dedup interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type Service struct {
	Store Store
	Dedup Dedup
	Log   logrus.FieldLogger
}

// HandleOrderEvent is the consumer handler for the orders topic. Undecodable messages
// are logged and skipped so they do not block the partition.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		s.Log.WithError(err).WithField("offset", m.Offset).Warn("skipping malformed event")
		return nil
	}
	log := s.Log.WithFields(logrus.Fields{"event_id": env.EventID, "event_type": env.EventType})

	if env.EventID == "" {
		log.Warn("skipping event without id")
		return nil
	}
	if seen, err := s.Dedup.Seen(ctx, env.EventID); err != nil {
		log.WithError(err).Warn("dedup lookup failed")
	} else if seen {
		return nil
	}

	orderID, status, actor, err := orders.StatusOf(env)
	if err != nil {
		log.WithError(err).Warn("skipping event with bad payload")
		return nil
	}
	if orderID == "" {
		return nil
	}

	if err := s.Store.Record(ctx, orders.HistoryEntry{
		EventID:    env.EventID,
		OrderID:    orderID,
		Status:     status,
		ActorRole:  actor,
		OccurredAt: env.OccurredAt,
	}); err != nil {
		return err
	}
	if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
		log.WithError(err).Warn("dedup mark failed")
	}
	log.WithFields(logrus.Fields{"order_id": orderID, "status": status}).Debug("history recorded")
	return nil
}
