package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	InStock    StockStatus = "IN_STOCK"
	OutOfStock StockStatus = "OUT_OF_STOCK"
)

// ParseStockStatus is strict: only the two upper-case values are accepted.
func ParseStockStatus(s string) (StockStatus, bool) {
	switch StockStatus(strings.TrimSpace(s)) {
	case InStock:
		return InStock, true
	case OutOfStock:
		return OutOfStock, true
	}
	return "", false
}

// Count is the nominal stock count stored next to the status.
func (s StockStatus) Count() int {
	if s == InStock {
		return 10
	}
	return 0
}

type Book struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Genres      []string        `json:"genres"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ItemImage   string          `json:"itemImage"`
	Pages       *int            `json:"pages,omitempty"`
	StockStatus StockStatus     `json:"stockStatus"`
	StockCount  int             `json:"stockCount"`
	SellerID    string          `json:"sellerId"`
	SellerName  string          `json:"sellerName"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Filter narrows List; zero value lists everything.
type Filter struct {
	Genre       string
	SellerIDs   []string
	InStockOnly bool
}

type NewBook struct {
	Title       string
	Author      string
	Genres      []string
	Price       *decimal.Decimal
	Description string
	Pages       *int
}

// Patch holds the fields a seller may edit; nil means unchanged.
type Patch struct {
	Title       *string
	Author      *string
	Price       *decimal.Decimal
	Description *string
	Pages       *int
	Genres      []string
	ItemImage   *string
}

func (p Patch) empty() bool {
	return p.Title == nil && p.Author == nil && p.Price == nil && p.Description == nil &&
		p.Pages == nil && p.Genres == nil && p.ItemImage == nil
}

func (p Patch) fields() map[string]any {
	m := map[string]any{}
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Author != nil {
		m["author"] = *p.Author
	}
	if p.Price != nil {
		m["price"] = *p.Price
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Pages != nil {
		m["pages"] = *p.Pages
	}
	if p.Genres != nil {
		m["genres"] = p.Genres
	}
	if p.ItemImage != nil {
		m["item_image"] = *p.ItemImage
	}
	return m
}

type TopBook struct {
	Book
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int64   `json:"reviewCount"`
}
