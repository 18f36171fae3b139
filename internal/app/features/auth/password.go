package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is deliberately above the library default; login is rare
// enough that the extra work factor is affordable.
const bcryptCost = 12

func hashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// verifyPassword checks candidate against the stored credential blob.
// Rows migrated from the legacy backend hold the raw password instead of a
// bcrypt hash; those are compared in constant time and flagged for rehash.
func verifyPassword(stored, candidate string) (ok, needsRehash bool) {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil, false
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1 {
		return true, true
	}
	return false, false
}
