package recommend

import (
	"time"

	"github.com/rbacarra/cliweather/internal/models"
)

// Matches evaluates every defined criterion against the reading; all must
// hold. Criteria with no bounds at all match every reading. A bound set
// against a missing data field is a non-match: absent data never passes a
// threshold check.
func Matches(r models.WeatherReading, c models.Criteria) bool {
	if c.TempMin != nil && r.Temperature < *c.TempMin {
		return false
	}
	if c.TempMax != nil && r.Temperature > *c.TempMax {
		return false
	}
	if c.RainMax != nil {
		if r.Rain == nil || *r.Rain > *c.RainMax {
			return false
		}
	}
	if c.WindMin != nil && r.WindSpeed < *c.WindMin {
		return false
	}
	if c.WindMax != nil && r.WindSpeed > *c.WindMax {
		return false
	}
	if c.HasTimeWindow() && !r.Timestamp.IsZero() {
		if !clockWithin(r.Timestamp, c.TimeStart, c.TimeEnd) {
			return false
		}
	}
	return true
}

// clockWithin reports whether t's time of day falls in [start, end). When
// end < start the window wraps past midnight (e.g. 22:00–06:00). Bounds are
// assumed pre-validated "HH:MM" strings.
func clockWithin(t time.Time, start, end string) bool {
	minutes := t.Hour()*60 + t.Minute()
	s := parseClock(start)
	e := parseClock(end)
	if s <= e {
		return minutes >= s && minutes < e
	}
	return minutes >= s || minutes < e
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(v string) int {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}
