// Package schedule decides whether a refresh cycle may run right now,
// based on a fixed weekly business-hours policy.
package schedule

import "time"

// window is a half-open [from, to) interval of minutes since midnight.
type window struct {
	from int
	to   int
}

var businessWindows = []window{
	{from: 8 * 60, to: 12*60 + 30},  // 08:00–12:30
	{from: 13*60 + 30, to: 18 * 60}, // 13:30–18:00
}

// Gate evaluates the business-hours policy in a fixed location. It holds
// no state beyond the location; the caller supplies the clock.
type Gate struct {
	loc *time.Location
}

// NewGate creates a gate for the given location.
func NewGate(loc *time.Location) *Gate {
	if loc == nil {
		loc = time.Local
	}
	return &Gate{loc: loc}
}

// IsOpen reports whether now falls on a business day inside one of the
// open windows. Weekends are always closed, whatever the time of day.
func (g *Gate) IsOpen(now time.Time) bool {
	local := now.In(g.loc)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	for _, w := range businessWindows {
		if minutes >= w.from && minutes < w.to {
			return true
		}
	}
	return false
}
