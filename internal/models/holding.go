package models

import "time"

// Position is a single owned stock within a Holding.
type Position struct {
	Name     string    `json:"Name" bson:"Name"`
	Symbol   string    `json:"Symbol" bson:"Symbol"`
	Quantity float64   `json:"Quantity" bson:"Quantity"`
	Price    float64   `json:"Price" bson:"Price"` // price of the latest acquisition
	Date     time.Time `json:"Date" bson:"Date"`
}

// Holding is the list of positions a user owns, keyed by HoldingID.
type Holding struct {
	ID        string     `json:"-" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	HoldingID string     `json:"HoldingId" gorm:"column:holding_id;uniqueIndex;type:varchar(64);not null" bson:"HoldingId"`
	Holdings  []Position `json:"Holdings" gorm:"serializer:json;type:text" bson:"Holdings"`
	Version   int64      `json:"-" gorm:"not null;default:0" bson:"version"`
	CreatedAt time.Time  `json:"-" bson:"createdAt"`
	UpdatedAt time.Time  `json:"-" bson:"updatedAt"`
}

// IndexOf returns the index of the position for symbol, or -1.
func (h *Holding) IndexOf(symbol string) int {
	for i, p := range h.Holdings {
		if p.Symbol == symbol {
			return i
		}
	}
	return -1
}

func (h *Holding) Clone() *Holding {
	c := *h
	c.Holdings = append(make([]Position, 0, len(h.Holdings)), h.Holdings...)
	return &c
}
