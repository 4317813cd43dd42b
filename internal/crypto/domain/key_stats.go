package domain

import (
	"time"

	"github.com/google/uuid"
)

// KeyStats summarizes the key ring for operators.
type KeyStats struct {
	CurrentKeyID   uuid.UUID  `json:"current_key_id"`
	CurrentVersion uint       `json:"current_version"`
	PendingKeys    int        `json:"pending_keys"`
	ActiveKeys     int        `json:"active_keys"`
	RetiredKeys    int        `json:"retired_keys"`
	LastRotation   time.Time  `json:"last_rotation"`
	NextRotation   *time.Time `json:"next_rotation,omitempty"`
}
