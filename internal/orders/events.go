package orders

import (
	"encoding/json"
	"time"

	kafkax "github.com/ariefcatur/go-bookstore.git/internal/kafka"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type EventItem struct {
	BookID   string          `json:"book_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	SellerID    string          `json:"seller_id"`
	Items       []EventItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
}

type StatusChangedPayload struct {
	OrderID   string `json:"order_id"`
	Status    Status `json:"status"`
	ActorRole string `json:"actor_role"`
}

// StatusOf extracts the order id and resulting status carried by an event.
func StatusOf(env Envelope) (orderID string, status Status, actor string, err error) {
	switch env.EventType {
	case EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[OrderPlacedPayload](env.Payload)
		if err != nil {
			return "", "", "", err
		}
		return p.OrderID, p.Status, "USER", nil
	case EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[StatusChangedPayload](env.Payload)
		if err != nil {
			return "", "", "", err
		}
		return p.OrderID, p.Status, p.ActorRole, nil
	}
	return "", "", "", nil
}
