package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes and newer versions reject it outright.
const maxPasswordBytes = 72

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(password)) == nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is compared against when no user matches, so a login for an
// unknown email costs the same bcrypt work as a wrong password.
func dummyHash() string {
	dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("papertrade-no-such-user"), bcrypt.DefaultCost)
		if err == nil {
			dummy = string(h)
		}
	})
	return dummy
}

func truncate(password string) []byte {
	pwd := []byte(password)
	if len(pwd) > maxPasswordBytes {
		pwd = pwd[:maxPasswordBytes]
	}
	return pwd
}
