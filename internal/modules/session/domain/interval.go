package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxIntervalSeconds bounds the rotation interval so totals never overflow.
const MaxIntervalSeconds = math.MaxInt32

var ErrIntervalTooLong = errors.New("interval too long")

// Field names one component of the rotation interval editor.
type Field string

const (
	FieldHours   Field = "hours"
	FieldMinutes Field = "minutes"
	FieldSeconds Field = "seconds"
)

func (f Field) Validate() error {
	switch f {
	case FieldHours, FieldMinutes, FieldSeconds:
		return nil
	default:
		return fmt.Errorf("unknown interval field: %s", f)
	}
}

// HMS is a total number of seconds split into its displayed components.
type HMS struct {
	Hours   int
	Minutes int
	Seconds int
}

func SplitSeconds(total int) HMS {
	if total < 0 {
		total = 0
	}
	return HMS{Hours: total / 3600, Minutes: total % 3600 / 60, Seconds: total % 60}
}

func (c HMS) Total() int {
	return c.Hours*3600 + c.Minutes*60 + c.Seconds
}

// EditIntervalField replaces one component of total with raw, holding the
// other two fixed. Negative values clamp to zero; non-numeric input or a
// result above MaxIntervalSeconds leaves total unchanged.
func EditIntervalField(total int, field Field, raw string) int {
	next, err := ApplyIntervalField(total, field, raw)
	if err != nil {
		return total
	}
	return next
}

// ApplyIntervalField is EditIntervalField reporting why an edit was refused.
func ApplyIntervalField(total int, field Field, raw string) (int, error) {
	if err := field.Validate(); err != nil {
		return total, err
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return total, fmt.Errorf("%s must be a whole number", field)
	}
	value = max(value, 0)

	c := SplitSeconds(total)
	unit := 1
	switch field {
	case FieldHours:
		c.Hours, unit = 0, 3600
	case FieldMinutes:
		c.Minutes, unit = 0, 60
	case FieldSeconds:
		c.Seconds = 0
	}
	rest := c.Total()
	if rest > MaxIntervalSeconds || value > (MaxIntervalSeconds-rest)/unit {
		return total, fmt.Errorf("%w: %s %d exceeds %d seconds in total", ErrIntervalTooLong, field, value, MaxIntervalSeconds)
	}
	return rest + value*unit, nil
}

// Layout selects which components a readable duration shows.
type Layout int

const (
	LayoutHMS Layout = iota
	LayoutMS
)

// FormatSeconds renders seconds zero padded. Hours (LayoutHMS) or minutes
// (LayoutMS) are not bounded.
func FormatSeconds(seconds int, layout Layout) string {
	c := SplitSeconds(seconds)
	if layout == LayoutMS {
		return fmt.Sprintf("%02d:%02d", c.Hours*60+c.Minutes, c.Seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}
