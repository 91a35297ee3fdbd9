package testutil

import (
	"strings"

	"github.com/google/uuid"
)

// RandomEmail returns a unique address for test users.
func RandomEmail() string {
	return "user-" + shortID() + "@example.com"
}

// RandomCode returns a unique course code with the given prefix.
func RandomCode(prefix string) string {
	return prefix + "-" + shortID()
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
