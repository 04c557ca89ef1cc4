package core

import "strings"

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

type (
	Theme string

	// AppearanceSettings is persisted client-side under "appearanceSettings".
	AppearanceSettings struct {
		Theme            Theme  `json:"theme"`
		CompactView      bool   `json:"compactView"`
		AnimationEffects bool   `json:"animationEffects"`
		Currency         string `json:"currency"`
	}

	NotificationPreferences struct {
		EmailNotifications bool `json:"emailNotifications"`
		TransactionAlerts  bool `json:"transactionAlerts"`
		WeeklyReports      bool `json:"weeklyReports"`
		SecurityAlerts     bool `json:"securityAlerts"`
		MarketingEmails    bool `json:"marketingEmails"`
	}
)

func DefaultAppearance() AppearanceSettings {
	return AppearanceSettings{
		Theme:            ThemeDark,
		CompactView:      false,
		AnimationEffects: true,
		Currency:         "XOF",
	}
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		EmailNotifications: true,
		TransactionAlerts:  true,
		WeeklyReports:      false,
		SecurityAlerts:     true,
		MarketingEmails:    false,
	}
}

func ParseTheme(s string) (Theme, bool) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return t, true
	}
	return "", false
}

// Normalized fills empty or unknown fields with defaults.
func (s AppearanceSettings) Normalized() AppearanceSettings {
	def := DefaultAppearance()
	if t, ok := ParseTheme(string(s.Theme)); ok {
		s.Theme = t
	} else {
		s.Theme = def.Theme
	}
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if s.Currency == "" {
		s.Currency = def.Currency
	}
	return s
}

// IsDarkMode resolves "auto" against the environment's preference.
func (s AppearanceSettings) IsDarkMode(prefersDark bool) bool {
	if s.Theme == ThemeAuto {
		return prefersDark
	}
	return s.Theme == ThemeDark
}
