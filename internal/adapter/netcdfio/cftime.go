package netcdfio

import (
	"fmt"
	"strings"
	"time"
)

// cfTimeLayouts are the timestamp layouts seen in CPOL time units strings.
var cfTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseCFTimeUnits parses a CF-convention time units string such as
// "seconds since 2017-03-04T00:00:00Z" into a base time and the duration of
// one unit.
func parseCFTimeUnits(units string) (time.Time, time.Duration, error) {
	parts := strings.SplitN(units, " since ", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("time units %q: missing 'since'", units)
	}

	var scale time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "milliseconds", "millisecond", "ms":
		scale = time.Millisecond
	case "seconds", "second", "secs", "sec", "s":
		scale = time.Second
	case "minutes", "minute", "mins", "min":
		scale = time.Minute
	case "hours", "hour", "hrs", "hr", "h":
		scale = time.Hour
	case "days", "day", "d":
		scale = 24 * time.Hour
	default:
		return time.Time{}, 0, fmt.Errorf("time units %q: unknown unit", units)
	}

	stamp := strings.TrimSpace(parts[1])
	for _, layout := range cfTimeLayouts {
		if t, err := time.Parse(layout, stamp); err == nil {
			return t.UTC(), scale, nil
		}
	}
	return time.Time{}, 0, fmt.Errorf("time units %q: unparseable base time", units)
}

// cfTimeAt converts one CF time offset to an absolute UTC time.
func cfTimeAt(base time.Time, scale time.Duration, offset float64) time.Time {
	return base.Add(time.Duration(offset * float64(scale))).UTC()
}
