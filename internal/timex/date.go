package timex

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDateBound parses a query-string date. RFC 3339 timestamps are taken
// as-is. A bare YYYY-MM-DD date is interpreted in UTC: as the first instant
// of that day, or, when endOfDay is set, as its last instant so that an
// inclusive upper bound covers the whole day.
func ParseDateBound(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
