package orders

import (
	"context"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/accounts"
	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/cart"
	"github.com/ariefcatur/go-bookstore.git/internal/catalog"
	kafkax "github.com/ariefcatur/go-bookstore.git/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// SellerOrdersLimit caps the seller order listing.
const SellerOrdersLimit = 50

type Store interface {
	Insert(ctx context.Context, o *Order, clearCartOf string) error
	Get(ctx context.Context, id string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListBySeller(ctx context.Context, sellerID string, limit int) ([]SellerOrder, int64, error)
	SetStatus(ctx context.Context, id string, s Status) (Order, error)
	Cancel(ctx context.Context, userID, id string) (Order, error)
	SellerStats(ctx context.Context, sellerID string) (SellerStats, error)
	Count(ctx context.Context) (int64, error)
	History(ctx context.Context, orderID string) ([]HistoryEntry, error)
}

type Users interface {
	Profile(ctx context.Context, userID string) (accounts.User, error)
}

type Books interface {
	Get(ctx context.Context, id string) (catalog.Book, error)
}

type Carts interface {
	Lines(ctx context.Context, userID string) ([]cart.Line, error)
}

// Idempotency remembers which order a client-supplied key already produced.
type Idempotency interface {
	Lookup(ctx context.Context, userID, key string) (orderID string, ok bool, err error)
	Remember(ctx context.Context, userID, key, orderID string) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store       Store
	Users       Users
	Books       Books
	Carts       Carts
	Idem        Idempotency
	Events      Publisher
	Log         logrus.FieldLogger
	ServiceName string
	Now         func() time.Time
}

// Placed is the result of a checkout; Replayed is set when an idempotency key
// matched an earlier order.
type Placed struct {
	Order    Order
	Replayed bool
}

func (s *Service) CreateFromCart(ctx context.Context, userID, idemKey string) (Placed, error) {
	if o, ok, err := s.replay(ctx, userID, idemKey); err != nil {
		return Placed{}, err
	} else if ok {
		return Placed{Order: o, Replayed: true}, nil
	}

	lines, err := s.Carts.Lines(ctx, userID)
	if err != nil {
		return Placed{}, apperr.Wrap(err, "failed to place order")
	}
	if len(lines) == 0 {
		return Placed{}, apperr.Validation("cart is empty")
	}
	o, err := s.draft(ctx, userID)
	if err != nil {
		return Placed{}, err
	}

	first, err := s.Books.Get(ctx, lines[0].BookID)
	if apperr.Is(err, apperr.KindNotFound) {
		return Placed{}, apperr.Validation("invalid cart items")
	}
	if err != nil {
		return Placed{}, apperr.Wrap(err, "failed to place order")
	}
	o.SellerID = first.SellerID

	for _, l := range lines {
		b, err := s.Books.Get(ctx, l.BookID)
		if apperr.Is(err, apperr.KindNotFound) {
			continue
		}
		if err != nil {
			return Placed{}, apperr.Wrap(err, "failed to place order")
		}
		o.Items = append(o.Items, newItem(b.ID, b.Title, b.Price, l.Quantity))
	}
	if len(o.Items) == 0 {
		return Placed{}, apperr.Validation("no valid books in cart")
	}
	return s.place(ctx, &o, userID, idemKey)
}

func (s *Service) BuyNow(ctx context.Context, userID, bookID string, qty int, idemKey string) (Placed, error) {
	if qty < 0 {
		return Placed{}, apperr.Validation("quantity must be >= 1")
	}
	if qty == 0 {
		qty = 1
	}
	if o, ok, err := s.replay(ctx, userID, idemKey); err != nil {
		return Placed{}, err
	} else if ok {
		return Placed{Order: o, Replayed: true}, nil
	}

	b, err := s.Books.Get(ctx, bookID)
	if err != nil {
		return Placed{}, apperr.Wrap(err, "failed to place order")
	}
	o, err := s.draft(ctx, userID)
	if err != nil {
		return Placed{}, err
	}
	o.SellerID = b.SellerID
	o.Items = []Item{newItem(b.ID, b.Title, b.Price, qty)}
	return s.place(ctx, &o, "", idemKey)
}

// draft starts a PENDING order addressed to the buyer's profile address.
func (s *Service) draft(ctx context.Context, userID string) (Order, error) {
	u, err := s.Users.Profile(ctx, userID)
	if err != nil {
		return Order{}, apperr.Wrap(err, "failed to place order")
	}
	if u.AddressPincode == "" {
		return Order{}, apperr.Validation("please set your address in profile first")
	}
	now := s.now()
	return Order{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		Flatno:       u.AddressFlatno,
		Pincode:      u.AddressPincode,
		City:         u.AddressCity,
		State:        u.AddressState,
		Status:       StatusPending,
		BookingDate:  now,
		DeliveryDate: now.Add(DeliveryWindow),
	}, nil
}

func (s *Service) place(ctx context.Context, o *Order, clearCartOf, idemKey string) (Placed, error) {
	o.TotalAmount = total(o.Items)
	if err := s.Store.Insert(ctx, o, clearCartOf); err != nil {
		return Placed{}, apperr.Internal("failed to place order", err)
	}
	if idemKey != "" {
		if err := s.Idem.Remember(ctx, o.UserID, idemKey, o.ID); err != nil {
			s.Log.WithError(err).WithField("order_id", o.ID).Warn("idempotency key not stored")
		}
	}

	items := make([]EventItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, EventItem{BookID: it.BookID, Quantity: it.Quantity, Price: it.Price})
	}
	s.publish(o.ID, EventOrderPlaced, OrderPlacedPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		SellerID:    o.SellerID,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
	})
	return Placed{Order: *o}, nil
}

// replay returns the order an idempotency key already produced for this user. Only a
// missing order counts as a miss; any other read failure aborts the request so the
// key cannot place a second order.
func (s *Service) replay(ctx context.Context, userID, key string) (Order, bool, error) {
	if key == "" {
		return Order{}, false, nil
	}
	id, ok, err := s.Idem.Lookup(ctx, userID, key)
	if err != nil {
		s.Log.WithError(err).Warn("idempotency lookup failed")
		return Order{}, false, nil
	}
	if !ok {
		return Order{}, false, nil
	}
	o, err := s.Store.Get(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, apperr.Internal("failed to place order", err)
	}
	if o.UserID != userID {
		return Order{}, false, nil
	}
	return o, true, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]Order, error) {
	list, err := s.Store.ListByUser(ctx, userID)
	return list, apperr.Wrap(err, "failed to fetch orders")
}

func (s *Service) GetMine(ctx context.Context, userID, id string) (Order, error) {
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, apperr.Wrap(err, "failed to load order details")
	}
	if o.UserID != userID {
		return Order{}, errOrderNotFound
	}
	return o, nil
}

func (s *Service) Cancel(ctx context.Context, userID, id string) (Order, error) {
	o, err := s.Store.Cancel(ctx, userID, id)
	if err != nil {
		return Order{}, apperr.Wrap(err, "failed to cancel order")
	}
	s.statusChanged(o, "USER")
	return o, nil
}

// SetStatus lets the owning seller write any status of the vocabulary.
func (s *Service) SetStatus(ctx context.Context, sellerID, id, status string) (Order, error) {
	st, ok := ParseStatus(status)
	if !ok {
		return Order{}, apperr.Validation("invalid status %q", status)
	}
	cur, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, apperr.Wrap(err, "failed to update order")
	}
	if cur.SellerID != sellerID {
		return Order{}, apperr.Forbidden("order belongs to another seller")
	}
	if cur.Status.Terminal() && cur.Status != st {
		s.Log.WithFields(logrus.Fields{"order_id": id, "from": cur.Status, "to": st}).
			Info("seller rewrote a terminal order status")
	}
	o, err := s.Store.SetStatus(ctx, id, st)
	if err != nil {
		return Order{}, apperr.Wrap(err, "failed to update order")
	}
	s.statusChanged(o, "SELLER")
	return o, nil
}

func (s *Service) ListForSeller(ctx context.Context, sellerID string) ([]SellerOrder, int64, error) {
	list, n, err := s.Store.ListBySeller(ctx, sellerID, SellerOrdersLimit)
	return list, n, apperr.Wrap(err, "failed to load orders")
}

func (s *Service) SellerStats(ctx context.Context, sellerID string) (SellerStats, error) {
	st, err := s.Store.SellerStats(ctx, sellerID)
	return st, apperr.Wrap(err, "failed to load stats")
}

// ListByUser is the unscoped admin view of one user's orders.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.ListMine(ctx, userID)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.Store.Count(ctx)
}

func (s *Service) HistoryForUser(ctx context.Context, userID, id string) ([]HistoryEntry, error) {
	if _, err := s.GetMine(ctx, userID, id); err != nil {
		return nil, err
	}
	h, err := s.Store.History(ctx, id)
	return h, apperr.Wrap(err, "failed to load order history")
}

func (s *Service) HistoryForSeller(ctx context.Context, sellerID, id string) ([]HistoryEntry, error) {
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load order history")
	}
	if o.SellerID != sellerID {
		return nil, apperr.Forbidden("order belongs to another seller")
	}
	h, err := s.Store.History(ctx, id)
	return h, apperr.Wrap(err, "failed to load order history")
}

func (s *Service) statusChanged(o Order, actor string) {
	s.publish(o.ID, EventOrderStatusChanged, StatusChangedPayload{
		OrderID:   o.ID,
		Status:    o.Status,
		ActorRole: actor,
	})
}

// publish is fire-and-forget; the order is already committed.
func (s *Service) publish(orderID, eventType string, payload any) {
	if s.Events == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.now(),
		Producer:      s.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Events.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev), eventHeaders(eventType)...)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
