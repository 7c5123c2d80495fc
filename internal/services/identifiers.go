package services

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newOpaqueID mints the watchlist, holding and exchange ids handed to a new user.
func newOpaqueID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func randomSuffix(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	limit := big.NewInt(int64(len(suffixAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(suffixAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// usernameStem builds the deterministic part of a username:
// first name + first three letters of the email local part + last four
// characters of the mobile number, lower-cased where it makes sense.
func usernameStem(name, email, mobile string) string {
	first := ""
	if fields := strings.Fields(name); len(fields) > 0 {
		first = strings.ToLower(fields[0])
	}

	local, _, _ := strings.Cut(email, "@")
	prefix := []rune(strings.ToLower(local))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	digits := []rune(strings.TrimSpace(mobile))
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}

	return first + string(prefix) + string(digits)
}

func generateUsername(name, email, mobile string) (string, error) {
	suffix, err := randomSuffix(3)
	if err != nil {
		return "", err
	}
	return usernameStem(name, email, mobile) + suffix, nil
}
