package account

import "time"

// Role describes the privilege level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status describes whether an account may use the platform.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Account is a billing identity. Balance is the prepaid amount the
// account may spend on generations; it is mutated only through the
// ledger's conditional debit/credit operations.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string `json:"-"`
	Balance      float64
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the account may spend.
func (a Account) Active() bool { return a.Status == StatusActive }
