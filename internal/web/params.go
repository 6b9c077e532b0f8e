package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/core"
)

const dateLayout = "2006-01-02"

// parseHistoryFilter reads from, to, ean, order and limit from the query.
// A date-only "to" covers the whole day, so it becomes the next midnight.
func parseHistoryFilter(r *http.Request, loc *time.Location) (core.HistoryFilter, error) {
	q := r.URL.Query()
	f := core.HistoryFilter{
		EAN:   strings.TrimSpace(q.Get("ean")),
		Order: core.ParseSortOrder(strings.ToLower(q.Get("order"))),
	}

	if v := q.Get("from"); v != "" {
		t, _, err := parseTimeParam(v, loc)
		if err != nil {
			return f, fmt.Errorf("%w: from %q", errInvalidRequest, v)
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, dateOnly, err := parseTimeParam(v, loc)
		if err != nil {
			return f, fmt.Errorf("%w: to %q", errInvalidRequest, v)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return f, fmt.Errorf("%w: from must be before to", errInvalidRequest)
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fmt.Errorf("%w: limit %q", errInvalidRequest, v)
		}
		f.Limit = n
	}

	return f, nil
}

// parseTimeParam accepts YYYY-MM-DD in loc or an RFC 3339 timestamp.
func parseTimeParam(v string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, v, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}
