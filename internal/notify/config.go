package notify

import (
	"net/mail"
	"time"
)

const (
	DefaultLookaheadDays = 60
	DefaultListLimit     = 20
)

// Config is the engine's view of the alert settings.
type Config struct {
	LookaheadDays int
	// Sender overrides the mail client's default From when it is a valid
	// address.
	Sender string
	// AppURL is linked from every report.
	AppURL   string
	Location *time.Location
	Schedule Schedule
}

// Schedule is the weekly slot in which RunWeekly fires.
type Schedule struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

func (c Config) withDefaults() Config {
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = DefaultLookaheadDays
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

func validAddress(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
