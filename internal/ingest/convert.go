package ingest

// convert.go coerces untyped record values into the scalar types the
// validators need. Source values arrive as strings (CSV cells, JSON
// strings) or float64 (JSON numbers); the helpers here normalize both.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// orderDateLayouts are the accepted order_date formats, tried in order.
// The first successful parse wins.
var orderDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// emailRegex accepts the usual local@domain.tld shape. It intentionally
// stays loose; the store does not enforce deliverability.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// parseOrderDate tries each accepted layout against s.
func parseOrderDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isValidEmail reports whether s looks like an email address.
func isValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// toString coerces a raw value to a string. JSON numbers are rendered in
// their shortest decimal form so numeric identifiers survive the trip.
func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return formatNumber(s), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

// toFloat coerces a raw value to a float64.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("invalid number %v", v)
	}
}

// toInt coerces a raw value to an int. Fractional JSON numbers truncate
// toward zero, matching how the loader has always treated them.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(math.Trunc(n)), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("invalid integer %v", v)
	}
}

// formatNumber renders a float64 without a trailing ".0" for whole values.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// truncate shortens s to at most n bytes for error messages, backing up
// to a rune boundary so the excerpt stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
