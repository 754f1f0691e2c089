package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort  string
	DBPath    string
	LogLevel  string
	LogFormat string
	BaseURL   string
	Postmark  PostmarkConfig
	Admin     AdminConfig
	Alerts    AlertsConfig
}

type PostmarkConfig struct {
	ServerToken string
	APIURL      string
}

// AdminConfig seeds the first system administrator on startup.
type AdminConfig struct {
	Email    string
	Password string
}

// AlertsConfig drives the weekly medication scan.
type AlertsConfig struct {
	Sender         string
	ExpirationDays int
	Weekday        time.Weekday
	Hour           int
	Minute         int
	Location       *time.Location
}

const (
	minExpirationDays = 1
	maxExpirationDays = 365
)

// Load reads .env when present, then the process environment, and validates
// the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	adminEmail := getEnv("FARMACASE_ADMIN_EMAIL", "")
	cfg := Config{
		HTTPPort:  getEnv("FARMACASE_PORT", "8080"),
		DBPath:    getEnv("FARMACASE_DB_PATH", "farmacase.db"),
		LogLevel:  getEnv("FARMACASE_LOG_LEVEL", "info"),
		LogFormat: getEnv("FARMACASE_LOG_FORMAT", "text"),
		BaseURL:   strings.TrimRight(getEnv("FARMACASE_BASE_URL", "http://localhost:8080"), "/"),
		Postmark: PostmarkConfig{
			ServerToken: getEnv("FARMACASE_POSTMARK_TOKEN", ""),
			APIURL:      getEnv("FARMACASE_POSTMARK_URL", "https://api.postmarkapp.com"),
		},
		Admin: AdminConfig{
			Email:    adminEmail,
			Password: getEnv("FARMACASE_ADMIN_PASSWORD", ""),
		},
		Alerts: AlertsConfig{
			Sender:         getEnv("FARMACASE_EMAIL_SENDER", adminEmail),
			ExpirationDays: getEnvInt("FARMACASE_EXPIRATION_DAYS", 60),
		},
	}

	weekday, err := parseWeekday(getEnv("FARMACASE_NOTIFICATION_DAY", "monday"))
	if err != nil {
		return Config{}, err
	}
	cfg.Alerts.Weekday = weekday

	cfg.Alerts.Hour, cfg.Alerts.Minute, err = parseClock(getEnv("FARMACASE_NOTIFICATION_TIME", "07:00"))
	if err != nil {
		return Config{}, err
	}

	cfg.Alerts.Location, err = time.LoadLocation(getEnv("FARMACASE_TIMEZONE", "Local"))
	if err != nil {
		return Config{}, fmt.Errorf("load timezone: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Alerts.ExpirationDays < minExpirationDays || c.Alerts.ExpirationDays > maxExpirationDays {
		return fmt.Errorf("FARMACASE_EXPIRATION_DAYS must be between %d and %d, got %d",
			minExpirationDays, maxExpirationDays, c.Alerts.ExpirationDays)
	}
	if c.Admin.Email != "" && c.Admin.Password == "" {
		return errors.New("FARMACASE_ADMIN_PASSWORD is required when FARMACASE_ADMIN_EMAIL is set")
	}
	return nil
}

func parseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid FARMACASE_NOTIFICATION_DAY %q", s)
}

// parseClock parses an HH:MM time of day.
func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid FARMACASE_NOTIFICATION_TIME %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
