// Package schedule knows when the ASX trades and when the next cycle
// should start. The engine itself is schedule-agnostic; only the run loop
// in cmd/trader consults this package.
package schedule

import "time"

const (
	openHour  = 10
	closeHour = 16
)

// DefaultInterval is the cadence between cycles when none is configured.
const DefaultInterval = 90 * time.Minute

var sydney = loadSydney()

func loadSydney() *time.Location {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		// No tzdata on this host. A fixed AEST offset skews daylight-saving
		// months by an hour, which is acceptable at cycle granularity.
		return time.FixedZone("AEST", 10*60*60)
	}
	return loc
}

// Location returns the exchange timezone.
func Location() *time.Location {
	return sydney
}

// Now returns the current exchange-local time.
func Now() time.Time {
	return time.Now().In(sydney)
}

// tradingHolidays lists ASX closures beyond weekends, keyed by exchange-local
// date. Extend per the published settlement calendar.
var tradingHolidays = map[string]bool{
	"2025-01-01": true, // New Year's Day
	"2025-01-27": true, // Australia Day observed
	"2025-04-18": true, // Good Friday
	"2025-04-21": true, // Easter Monday
	"2025-04-25": true, // Anzac Day
	"2025-06-09": true, // King's Birthday
	"2025-12-25": true, // Christmas Day
	"2025-12-26": true, // Boxing Day
	"2026-01-01": true, // New Year's Day
	"2026-01-26": true, // Australia Day
	"2026-04-03": true, // Good Friday
	"2026-04-06": true, // Easter Monday
	"2026-06-08": true, // King's Birthday
	"2026-12-25": true, // Christmas Day
	"2026-12-28": true, // Boxing Day observed
}

// IsMarketOpen reports whether the ASX is trading at t: weekdays 10:00 to
// 16:00 Sydney time, excluding listed holidays.
func IsMarketOpen(t time.Time) bool {
	t = t.In(sydney)
	if !isTradingDay(t) {
		return false
	}
	return t.Hour() >= openHour && t.Hour() < closeHour
}

// NextRunTime returns the next cycle start after now. now+interval is kept
// as-is when it lands inside trading hours; otherwise it snaps forward to
// the open of the next session, skipping weekends and holidays.
func NextRunTime(now time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		interval = DefaultInterval
	}
	next := now.In(sydney).Add(interval)

	if next.Hour() < openHour {
		next = openAt(next)
	} else if next.Hour() >= closeHour {
		next = openAt(next.AddDate(0, 0, 1))
	}
	for !isTradingDay(next) {
		next = openAt(next.AddDate(0, 0, 1))
	}
	return next
}

func isTradingDay(t time.Time) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !tradingHolidays[t.Format("2006-01-02")]
}

func openAt(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), openHour, 0, 0, 0, sydney)
}
