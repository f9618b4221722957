package phase

import (
	"fmt"
	"time"
)

// TimeRemaining is a countdown to a phase boundary
type TimeRemaining struct {
	Expired     bool          `json:"expired"`
	Days        int           `json:"days"`
	Hours       int           `json:"hours"`
	Minutes     int           `json:"minutes"`
	Seconds     int           `json:"seconds"`
	Total       time.Duration `json:"-"`
	TotalMillis int64         `json:"total"`
	Formatted   string        `json:"formatted"`
}

// Until computes the time remaining from now to target, clamped at zero.
func Until(target, now time.Time) TimeRemaining {
	d := target.Sub(now)
	if d <= 0 {
		return TimeRemaining{Expired: true, Formatted: "0m"}
	}

	total := d
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := int(d / time.Second)

	tr := TimeRemaining{
		Days:        days,
		Hours:       hours,
		Minutes:     minutes,
		Seconds:     seconds,
		Total:       total,
		TotalMillis: total.Milliseconds(),
	}
	switch {
	case days > 0:
		tr.Formatted = fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		tr.Formatted = fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		tr.Formatted = fmt.Sprintf("%dm", minutes)
	}
	return tr
}

func countdownTo(target *time.Time, now time.Time) *TimeRemaining {
	if !valid(target) {
		return nil
	}
	tr := Until(*target, now)
	return &tr
}

// At returns r with its countdown recomputed for now. The countdown runs to
// EndsAt when the window has one and to StartsAt otherwise. The phase itself
// is not re-resolved.
func (r Result) At(now time.Time) Result {
	if r.Countdown == nil {
		return r
	}
	target := r.EndsAt
	if target == nil {
		target = r.StartsAt
	}
	r.Countdown = countdownTo(target, now)
	return r
}
