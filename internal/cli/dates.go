package cli

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// parseBound reads a --from or --to value: YYYY-MM-DD in loc, or RFC 3339.
// A date-only upper bound covers that whole day, so it moves to the next
// midnight.
func parseBound(v string, loc *time.Location, upper bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(dateLayout, v, loc); err == nil {
		if upper {
			t = t.AddDate(0, 0, 1)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", v)
	}
	return &t, nil
}
