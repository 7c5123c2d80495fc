package repositories

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"growup/internal/errs"
)

// maxUpdateAttempts bounds the optimistic-concurrency retry loop of Update.
const maxUpdateAttempts = 8

// isDuplicateKey reports whether err is a unique-index violation from any of
// the supported stores.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// classifyUserDuplicate maps a unique-index violation on the users collection
// to the sentinel naming the offending key.
func classifyUserDuplicate(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "users.username", "idx_users_username", "username_1"):
		return errs.ErrDuplicateUsername
	case containsAny(msg, "users.email", "idx_users_email", "email_1"):
		return errs.ErrDuplicateEmail
	default:
		return errs.ErrAlreadyExists
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
