package catalog

import "time"

// Status describes whether a catalog record is selectable.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// GenerationType classifies what a model produces from.
type GenerationType string

const (
	TypeTextToImage  GenerationType = "text2img"
	TypeImageToImage GenerationType = "img2img"
)

// Provider is an upstream endpoint plus the credential used to call it.
type Provider struct {
	ID      string
	Name    string
	BaseURL string
	// APIKey is the upstream bearer credential. It never leaves the
	// admin surface.
	APIKey    string `json:"-"`
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Model is a billable generation capability backed by a provider.
type Model struct {
	ID           string
	Name         string
	UpstreamID   string
	ProviderID   string
	Type         GenerationType
	PricePerCall float64
	Status       Status

	DefaultWidth  int
	DefaultHeight int
	MaxWidth      int
	MaxHeight     int

	CreatedAt time.Time
	UpdatedAt time.Time
}
