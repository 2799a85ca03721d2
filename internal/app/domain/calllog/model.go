package calllog

import "time"

// Status of one generation attempt. StatusPending is reserved for a
// future two-phase settlement and never written today.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Entry is the immutable record of one generation attempt. Exactly one
// entry exists per attempt that reached the upstream provider; failed
// attempts carry cost 0 unless the charge was already settled.
type Entry struct {
	ID           string
	AccountID    string
	APIKeyID     string
	ModelID      string
	Prompt       string
	Status       Status
	Cost         float64
	ResponseTime time.Duration
	ErrorMessage string
	ImageURL     string
	CreatedAt    time.Time
}

// Stats aggregates the log for the admin dashboard.
type Stats struct {
	TotalAccounts  int
	TotalProviders int
	TotalModels    int
	TotalCalls     int
	TodayCalls     int
	TotalRevenue   float64
	TodayRevenue   float64
	// SuccessRate is a percentage in [0, 100].
	SuccessRate float64
}
