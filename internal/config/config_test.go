package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FARMACASE_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("FARMACASE_ADMIN_PASSWORD", "pw")
	t.Setenv("FARMACASE_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 60, cfg.Alerts.ExpirationDays)
	assert.Equal(t, time.Monday, cfg.Alerts.Weekday)
	assert.Equal(t, 7, cfg.Alerts.Hour)
	assert.Equal(t, 0, cfg.Alerts.Minute)
	assert.Equal(t, "admin@example.com", cfg.Alerts.Sender, "sender defaults to the admin address")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FARMACASE_EXPIRATION_DAYS", "30")
	t.Setenv("FARMACASE_NOTIFICATION_DAY", "Friday")
	t.Setenv("FARMACASE_NOTIFICATION_TIME", "18:45")
	t.Setenv("FARMACASE_EMAIL_SENDER", "alerts@example.com")
	t.Setenv("FARMACASE_BASE_URL", "https://farmacase.example.com/")
	t.Setenv("FARMACASE_TIMEZONE", "Europe/Rome")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Alerts.ExpirationDays)
	assert.Equal(t, time.Friday, cfg.Alerts.Weekday)
	assert.Equal(t, 18, cfg.Alerts.Hour)
	assert.Equal(t, 45, cfg.Alerts.Minute)
	assert.Equal(t, "alerts@example.com", cfg.Alerts.Sender)
	assert.Equal(t, "https://farmacase.example.com", cfg.BaseURL)
	assert.Equal(t, "Europe/Rome", cfg.Alerts.Location.String())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"lookahead too small", "FARMACASE_EXPIRATION_DAYS", "0"},
		{"lookahead too large", "FARMACASE_EXPIRATION_DAYS", "366"},
		{"bad weekday", "FARMACASE_NOTIFICATION_DAY", "someday"},
		{"bad time", "FARMACASE_NOTIFICATION_TIME", "7 o'clock"},
		{"bad zone", "FARMACASE_TIMEZONE", "Mars/Olympus"},
		{"admin without password", "FARMACASE_ADMIN_EMAIL", "admin@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
