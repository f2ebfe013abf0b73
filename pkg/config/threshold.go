package config

import (
	"fmt"
	"regexp"
	"time"
)

// thresholdPattern accepts decimal seconds: optional integer digits and an
// optional single dot that must be followed by digits. "3", "2.5" and ".5"
// pass; "", "3." and "1.2.3" do not.
var thresholdPattern = regexp.MustCompile(`^[0-9]*\.?[0-9]+$`)

// ParseThreshold validates a threshold given in decimal seconds and
// converts it exactly, with no floating-point rounding at the boundary:
// "0.013" is precisely 13ms, so a 13ms call meets a 0.013 threshold.
func ParseThreshold(s string) (time.Duration, error) {
	if !thresholdPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid threshold %q: want decimal seconds such as 2 or 2.5", s)
	}

	d, err := time.ParseDuration(s + "s")
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", s, err)
	}
	return d, nil
}
