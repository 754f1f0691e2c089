package notify

import (
	"math"
	"time"

	"github.com/farmacase/farmacase/internal/model"
)

// IsLowQuantity reports whether stock is at or below the alert threshold.
func IsLowQuantity(m model.Medication) bool {
	return m.TotalQuantity <= m.MinQuantityAlert
}

// IsExpiringSoon reports whether expiry falls within [today, today+lookahead]
// by calendar day. Already expired medications are not expiring soon.
func IsExpiringSoon(expiry, today time.Time, lookaheadDays int) bool {
	e := dateOf(expiry)
	t := dateOf(today)
	return !e.Before(t) && !e.After(t.AddDate(0, 0, lookaheadDays))
}

// DaysUntil is the number of days left before expiry, rounded up, never
// negative.
func DaysUntil(expiry, now time.Time) int {
	days := math.Ceil(expiry.Sub(now).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return int(days)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
