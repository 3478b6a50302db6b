package recurse

import "strings"

// TimeUnit is the unit durations are reported in.
type TimeUnit int

const (
	Seconds TimeUnit = iota
	Minutes
	Hours
	Days
)

// Seconds returns the number of seconds in one unit.
func (u TimeUnit) Seconds() float64 {
	switch u {
	case Minutes:
		return 60
	case Hours:
		return 60 * 60
	case Days:
		return 60 * 60 * 24
	default:
		return 1
	}
}

func (u TimeUnit) String() string {
	switch u {
	case Minutes:
		return "mins"
	case Hours:
		return "hours"
	case Days:
		return "days"
	default:
		return "secs"
	}
}

// ParseTimeUnit recognises secs, mins, hours and days (plus their long forms).
// Anything else is treated as seconds without an error.
func ParseTimeUnit(s string) TimeUnit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mins", "min", "minutes":
		return Minutes
	case "hours", "hour":
		return Hours
	case "days", "day":
		return Days
	default:
		return Seconds
	}
}
