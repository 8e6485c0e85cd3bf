package reviews

import "time"

type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Summary struct {
	Reviews     []Review `json:"reviews"`
	AvgRating   float64  `json:"avgRating"`
	ReviewCount int64    `json:"reviewCount"`
}

type Input struct {
	Rating float64
	Title  string
	Text   string
}
