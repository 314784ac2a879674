package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock abstracts time to keep usecases deterministic in tests.
// Readings keep their monotonic component, so callers must not convert
// them with UTC() or Local() before subtracting.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

func System() Clock {
	return clockwork.NewRealClock()
}
