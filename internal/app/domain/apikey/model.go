package apikey

import "time"

// Status describes whether a key is usable.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Key is a long-lived sk- credential owned by one account. The secret
// is shown to its owner; usage counters are informational only.
type Key struct {
	ID         string
	AccountID  string
	Name       string
	Secret     string
	Status     Status
	UsageCount int64
	LastUsedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
