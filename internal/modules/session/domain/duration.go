package domain

import "time"

// Interval is one contiguous period of active mobbing. Start and End come
// from the same monotonic clock and Start <= End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Seconds returns the interval length truncated to whole seconds.
func (i Interval) Seconds() int {
	d := i.End.Sub(i.Start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Durations holds intervals newest first. Only the head may still be open.
type Durations []Interval

// StartNew prepends the interval (moment, moment).
func StartNew(durations Durations, moment time.Time) Durations {
	out := make(Durations, 0, len(durations)+1)
	out = append(out, Interval{Start: moment, End: moment})
	return append(out, durations...)
}

// ExtendLatest moves the head interval's end to moment. An empty sequence is
// returned unchanged.
func ExtendLatest(durations Durations, moment time.Time) Durations {
	if len(durations) == 0 {
		return durations
	}
	out := make(Durations, len(durations))
	copy(out, durations)
	out[0].End = moment
	return out
}

// ElapsedSeconds sums every interval, each truncated to whole seconds.
func ElapsedSeconds(durations Durations) int {
	total := 0
	for _, interval := range durations {
		total += interval.Seconds()
	}
	return total
}
