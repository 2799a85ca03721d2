package settings

// Settings are the admin-editable platform knobs.
type Settings struct {
	SiteName          string
	SiteDescription   string
	AllowRegistration bool
	// DefaultUserBalance is granted to self-registered accounts.
	DefaultUserBalance float64
	AdminPasswordHash  string `json:"-"`
}

// Defaults returns the settings used before an administrator edits them.
func Defaults() Settings {
	return Settings{
		SiteName:           "Nekoko AI",
		SiteDescription:    "Prepaid AI image generation",
		AllowRegistration:  true,
		DefaultUserBalance: 10,
	}
}
