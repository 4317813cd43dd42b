package domain

import "time"

// EventFilter narrows security event listings.
type EventFilter struct {
	Offset        int
	Limit         int
	Type          EventType
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

// Validate checks the time range.
func (f EventFilter) Validate() error {
	if f.CreatedAtFrom != nil && f.CreatedAtTo != nil && f.CreatedAtFrom.After(*f.CreatedAtTo) {
		return ErrInvalidTimeRange
	}
	return nil
}

// VerifyReport summarizes a signature verification pass.
type VerifyReport struct {
	Total      int      `json:"total"`
	Valid      int      `json:"valid"`
	Invalid    int      `json:"invalid"`
	Unsigned   int      `json:"unsigned"`
	InvalidIDs []string `json:"invalid_ids,omitempty"`
}
