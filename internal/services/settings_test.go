package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
)

func TestAppearanceSetters(t *testing.T) {
	be := newBackend(t)
	svc := NewSettingsService(be.client, be.store)

	assert.Equal(t, core.DefaultAppearance(), svc.Appearance())
	assert.True(t, svc.IsDarkMode(false))

	a, err := svc.SetTheme("AUTO")
	require.NoError(t, err)
	assert.Equal(t, core.ThemeAuto, a.Theme)
	assert.False(t, svc.IsDarkMode(false))
	assert.True(t, svc.IsDarkMode(true))

	_, err = svc.SetTheme("sepia")
	assert.Error(t, err)
	assert.Equal(t, core.ThemeAuto, svc.Appearance().Theme)

	svc.SetCompactView(true)
	svc.SetAnimations(false)
	a, err = svc.SetCurrency("eur")
	require.NoError(t, err)
	assert.Equal(t, core.AppearanceSettings{Theme: core.ThemeAuto, CompactView: true, AnimationEffects: false, Currency: "EUR"}, a)
	assert.Equal(t, a, be.store.LoadAppearance())

	_, err = svc.SetCurrency("euro")
	assert.Error(t, err)
	assert.Equal(t, int32(0), be.requests.Load(), "appearance never hits the backend")
}

func TestNotificationPreferencesDefaults(t *testing.T) {
	be := newBackend(t)
	be.mux.HandleFunc("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{}}`))
	})

	p, err := NewSettingsService(be.client, be.store).NotificationPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.DefaultNotificationPreferences(), p)
}

func TestUpdateNotificationPreferences(t *testing.T) {
	be := newBackend(t)
	var sent core.NotificationPreferences
	be.mux.HandleFunc("PUT /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&sent)
		w.Write([]byte(`{"data":{"preferences":{"emailNotifications":false,"weeklyReports":true}}}`))
	})

	want := core.DefaultNotificationPreferences()
	want.EmailNotifications = false
	want.WeeklyReports = true
	got, err := NewSettingsService(be.client, be.store).UpdateNotificationPreferences(context.Background(), want)
	require.NoError(t, err)
	assert.Equal(t, want, sent)
	assert.Equal(t, want, got)
}
