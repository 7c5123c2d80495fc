package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// User represents a registered trader account.
type User struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name        string       `json:"Name" gorm:"type:varchar(255);not null" bson:"Name"`
	Email       string       `json:"Email" gorm:"uniqueIndex;type:varchar(255);not null" bson:"Email"`
	Password    string       `json:"-" gorm:"type:varchar(255);not null" bson:"Password"` // bcrypt hash, never serialized
	MobileNo    MobileNumber `json:"MobileNo" gorm:"type:varchar(32);not null" bson:"MobileNo"`
	Username    string       `json:"Username" gorm:"uniqueIndex;type:varchar(100);not null" bson:"Username"`
	Balance     float64      `json:"Balance" gorm:"not null;default:10000" bson:"Balance"`
	WatchlistID string       `json:"WatchlistId" gorm:"column:watchlist_id;type:varchar(64);not null" bson:"WatchlistId"`
	HoldingID   string       `json:"HoldingId" gorm:"column:holding_id;type:varchar(64);not null" bson:"HoldingId"`
	ExchangeID  string       `json:"ExchangeId" gorm:"column:exchange_id;type:varchar(64);not null" bson:"ExchangeId"`
	Date        time.Time    `json:"Date" gorm:"column:joined_at;not null" bson:"Date"`
}

// MobileNumber is a phone number. Clients send it either as a JSON string or a JSON number.
type MobileNumber string

// UnmarshalJSON accepts both "9876543210" and 9876543210.
func (m *MobileNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MobileNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("mobile number must be a string or a number: %w", err)
	}
	digits, err := n.Int64()
	if err != nil {
		return fmt.Errorf("mobile number must be a whole number: %w", err)
	}
	if digits < 0 {
		return fmt.Errorf("mobile number must not be negative")
	}
	*m = MobileNumber(strconv.FormatInt(digits, 10))
	return nil
}
