package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"finboard/internal/core"
)

// AppearanceStore persists appearance settings client-side.
type AppearanceStore interface {
	SaveAppearance(core.AppearanceSettings)
	LoadAppearance() core.AppearanceSettings
}

// SettingsService owns appearance settings, which live only in the session
// store, and notification preferences, which live on the backend.
type SettingsService struct {
	api   API
	store AppearanceStore
}

func NewSettingsService(api API, store AppearanceStore) *SettingsService {
	return &SettingsService{api: api, store: store}
}

func (s *SettingsService) Appearance() core.AppearanceSettings {
	return s.store.LoadAppearance()
}

// UpdateAppearance applies fn to the current settings and saves the result.
func (s *SettingsService) UpdateAppearance(fn func(*core.AppearanceSettings)) core.AppearanceSettings {
	a := s.store.LoadAppearance()
	fn(&a)
	a = a.Normalized()
	s.store.SaveAppearance(a)
	return a
}

func (s *SettingsService) SetTheme(theme string) (core.AppearanceSettings, error) {
	t, ok := core.ParseTheme(theme)
	if !ok {
		return s.Appearance(), fmt.Errorf("unknown theme %q", theme)
	}
	return s.UpdateAppearance(func(a *core.AppearanceSettings) { a.Theme = t }), nil
}

func (s *SettingsService) SetCompactView(on bool) core.AppearanceSettings {
	return s.UpdateAppearance(func(a *core.AppearanceSettings) { a.CompactView = on })
}

func (s *SettingsService) SetAnimations(on bool) core.AppearanceSettings {
	return s.UpdateAppearance(func(a *core.AppearanceSettings) { a.AnimationEffects = on })
}

// SetCurrency takes a three-letter code, case-insensitive.
func (s *SettingsService) SetCurrency(code string) (core.AppearanceSettings, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 || strings.IndexFunc(code, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		return s.Appearance(), fmt.Errorf("invalid currency code %q", code)
	}
	return s.UpdateAppearance(func(a *core.AppearanceSettings) { a.Currency = code }), nil
}

// IsDarkMode resolves the saved theme against the environment preference.
func (s *SettingsService) IsDarkMode(prefersDark bool) bool {
	return s.Appearance().IsDarkMode(prefersDark)
}

type preferencesResponse struct {
	Data struct {
		Preferences json.RawMessage `json:"preferences"`
	} `json:"data"`
}

// NotificationPreferences falls back to the defaults when the backend has
// none stored.
func (s *SettingsService) NotificationPreferences(ctx context.Context) (core.NotificationPreferences, error) {
	var resp preferencesResponse
	if err := s.api.Get(ctx, "/notifications", &resp); err != nil {
		return core.DefaultNotificationPreferences(), fmt.Errorf("get notification preferences: %w", err)
	}
	return decodePreferences(resp.Data.Preferences, core.DefaultNotificationPreferences()), nil
}

// UpdateNotificationPreferences sends the full preference set. When the
// response omits it, the submitted values are returned.
func (s *SettingsService) UpdateNotificationPreferences(ctx context.Context, p core.NotificationPreferences) (core.NotificationPreferences, error) {
	var resp preferencesResponse
	if err := s.api.Put(ctx, "/notifications", p, &resp); err != nil {
		return p, fmt.Errorf("update notification preferences: %w", err)
	}
	return decodePreferences(resp.Data.Preferences, p), nil
}

func decodePreferences(raw json.RawMessage, fallback core.NotificationPreferences) core.NotificationPreferences {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}
	p := fallback
	if err := json.Unmarshal(raw, &p); err != nil {
		return fallback
	}
	return p
}
