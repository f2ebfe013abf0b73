// Package timestamp extracts and parses the bracketed timestamps used in
// trace logs, e.g. "[9/12/25, 13:25:29:271 CDT]".
package timestamp

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Token shape: [M/D/YY, HH:MM:SS:mmm TZ]. Month, day, and the sub-second
// field are 1-3 digits; the timezone abbreviation is any run of three
// uppercase letters and is optional.
var (
	tokenPattern = regexp.MustCompile(`\[[^\]]*\]`)
	zoneSuffix   = regexp.MustCompile(`\s+[A-Z]{3}$`)
	bodyPattern  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}), (\d{1,2}):(\d{1,2}):(\d{1,2}):(\d{1,3})$`)
)

// Extract returns the first bracket-delimited run in line, brackets included.
// Returns false if the line contains no bracketed token.
func Extract(line string) (string, bool) {
	token := tokenPattern.FindString(line)
	if token == "" {
		return "", false
	}
	return token, true
}

// Parse converts a bracketed timestamp token into a time.Time.
// The two-digit year is interpreted as 2000+YY, and the sub-second field is
// a fractional remainder ("27" means 270ms, not 27ms). Returns zero time and
// an error on malformed input; callers record the failure and keep going.
func Parse(token string) (time.Time, error) {
	body := token
	if len(body) >= 2 && body[0] == '[' && body[len(body)-1] == ']' {
		body = body[1 : len(body)-1]
	}
	body = zoneSuffix.ReplaceAllString(body, "")

	m := bodyPattern.FindStringSubmatch(body)
	if m == nil {
		return time.Time{}, fmt.Errorf("timestamp %q does not match M/D/YY, HH:MM:SS:mmm", token)
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	yy, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	min, _ := strconv.Atoi(m[5])
	sec, _ := strconv.Atoi(m[6])
	year := 2000 + yy
	nsec := fractionNanos(m[7])

	t := time.Date(year, time.Month(month), day, hour, min, sec, nsec, time.UTC)

	// time.Date normalizes out-of-range components (month 13 rolls into the
	// next year), which would silently accept garbage. Reject anything that
	// did not round-trip.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day ||
		t.Hour() != hour || t.Minute() != min || t.Second() != sec {
		return time.Time{}, fmt.Errorf("timestamp %q has out-of-range components", token)
	}

	return t, nil
}

// fractionNanos converts a 1-3 digit fractional-second field to nanoseconds,
// right-padding to milliseconds ("5" -> 500ms).
func fractionNanos(digits string) int {
	for len(digits) < 3 {
		digits += "0"
	}
	ms, _ := strconv.Atoi(digits)
	return ms * int(time.Millisecond)
}
