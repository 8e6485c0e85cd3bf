package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryWindow is added to the booking date for the delivery estimate.
const DeliveryWindow = 7 * 24 * time.Hour

type Item struct {
	BookID   string          `json:"bookId"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	SellerID     string          `json:"sellerId"`
	Flatno       string          `json:"flatno"`
	Pincode      string          `json:"pincode"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	Items        []Item          `json:"items"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       Status          `json:"status"`
	BookingDate  time.Time       `json:"bookingDate"`
	DeliveryDate time.Time       `json:"deliveryDate"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Buyer is the contact block shown to sellers; nil when the user was deleted.
type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// LiveBook is the current state of an ordered book; nil when the book was deleted.
type LiveBook struct {
	Title     string          `json:"title"`
	ItemImage string          `json:"itemImage"`
	Price     decimal.Decimal `json:"price"`
}

type SellerItem struct {
	Item
	Book *LiveBook `json:"book"`
}

type SellerOrder struct {
	Order
	Buyer *Buyer       `json:"buyer"`
	Items []SellerItem `json:"items"`
}

type SellerStats struct {
	Books   int64           `json:"books"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type HistoryEntry struct {
	EventID    string    `json:"eventId"`
	OrderID    string    `json:"orderId"`
	Status     Status    `json:"status"`
	ActorRole  string    `json:"actorRole"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newItem(bookID, title string, price decimal.Decimal, qty int) Item {
	return Item{
		BookID:   bookID,
		Title:    title,
		Price:    price,
		Quantity: qty,
		Subtotal: price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}
