package cart

import "github.com/shopspring/decimal"

// Line is a cart entry; the snapshot fields are frozen when the book is first added.
type Line struct {
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	ItemImage string          `json:"itemImage"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type WishItem struct {
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	ItemImage string          `json:"itemImage"`
	Price     decimal.Decimal `json:"price"`
}
