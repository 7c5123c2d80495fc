package models

import "time"

// Watchlist is the ordered list of ticker symbols a user tracks.
// It is keyed by WatchlistID, the opaque id minted on the owning User.
type Watchlist struct {
	ID          string    `json:"-" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	WatchlistID string    `json:"WatchlistId" gorm:"column:watchlist_id;uniqueIndex;type:varchar(64);not null" bson:"WatchlistId"`
	Names       []string  `json:"Names" gorm:"serializer:json;type:text" bson:"Names"`
	Version     int64     `json:"-" gorm:"not null;default:0" bson:"version"`
	CreatedAt   time.Time `json:"-" bson:"createdAt"`
	UpdatedAt   time.Time `json:"-" bson:"updatedAt"`
}

// Contains reports whether symbol is already in the watchlist (exact match).
func (w *Watchlist) Contains(symbol string) bool {
	for _, name := range w.Names {
		if name == symbol {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never share the Names backing array.
func (w *Watchlist) Clone() *Watchlist {
	c := *w
	c.Names = append(make([]string, 0, len(w.Names)), w.Names...)
	return &c
}
