package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the interface we use for time operations.
// In production, use Real(). In tests, a clockwork.FakeClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
	NewTimer(d time.Duration) clockwork.Timer
}

// Real returns a clock backed by the system time.
func Real() Clock {
	return clockwork.NewRealClock()
}
