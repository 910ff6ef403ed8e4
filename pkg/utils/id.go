package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a random identifier for notifications and log rows.
func GenerateID() string {
	return uuid.NewString()
}
